package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mddclient/internal/client/client"
	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/client/session"
)

// ---- helpers ----

func newStore(t *testing.T) *session.Store {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "mdd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return session.NewStore(db, nil)
}

func ptr[T any](v T) *T { return &v }

type fixedUser int64

func (f fixedUser) CurrentUserID(context.Context) int64 { return int64(f) }

// Token is stable per user, so a fixedUser is one unchanging session.
func (f fixedUser) Token(context.Context) string { return fmt.Sprintf("tok-%d", int64(f)) }

// ---- fake client ----

// fakeClient implements client.Client. Unset funcs fail the call with
// client.ErrUnavailable.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	RegisterFn           func(models.RegisterRequest) (*models.AuthResponse, error)
	LoginFn              func(models.LoginRequest) (*models.AuthResponse, error)
	MeFn                 func(ctx context.Context) (*models.User, error)
	UpdateUserFn         func(int64, models.UserProfileUpdate) (*models.User, error)
	ThemesFn             func(ctx context.Context) ([]models.Theme, error)
	UserSubscriptionsFn  func(ctx context.Context, userID int64) ([]models.RawSubscription, error)
	SubscribeFn          func(userID, themeID int64) (models.RawSubscription, error)
	UnsubscribeFn        func(userID, themeID int64) error
	SubscribedArticlesFn func(userID int64) ([]models.Article, error)
	CreateArticleFn      func(models.NewArticle) (*models.Article, error)
	ArticleFn            func(int64) (*models.Article, error)
	CreateCommentFn      func(models.NewComment) (*models.Comment, error)
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.record("Register")
	if f.RegisterFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.RegisterFn(req)
}

func (f *fakeClient) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.record("Login")
	if f.LoginFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.LoginFn(req)
}

func (f *fakeClient) Me(ctx context.Context) (*models.User, error) {
	f.record("Me")
	if f.MeFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.MeFn(ctx)
}

func (f *fakeClient) UpdateUser(_ context.Context, id int64, upd models.UserProfileUpdate) (*models.User, error) {
	f.record("UpdateUser")
	if f.UpdateUserFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.UpdateUserFn(id, upd)
}

func (f *fakeClient) Themes(ctx context.Context) ([]models.Theme, error) {
	f.record("Themes")
	if f.ThemesFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.ThemesFn(ctx)
}

func (f *fakeClient) UserSubscriptions(ctx context.Context, userID int64) ([]models.RawSubscription, error) {
	f.record("UserSubscriptions")
	if f.UserSubscriptionsFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.UserSubscriptionsFn(ctx, userID)
}

func (f *fakeClient) Subscribe(_ context.Context, userID, themeID int64) (models.RawSubscription, error) {
	f.record("Subscribe")
	if f.SubscribeFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.SubscribeFn(userID, themeID)
}

func (f *fakeClient) Unsubscribe(_ context.Context, userID, themeID int64) error {
	f.record("Unsubscribe")
	if f.UnsubscribeFn == nil {
		return client.ErrUnavailable
	}
	return f.UnsubscribeFn(userID, themeID)
}

func (f *fakeClient) SubscribedArticles(_ context.Context, userID int64) ([]models.Article, error) {
	f.record("SubscribedArticles")
	if f.SubscribedArticlesFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.SubscribedArticlesFn(userID)
}

func (f *fakeClient) CreateArticle(_ context.Context, a models.NewArticle) (*models.Article, error) {
	f.record("CreateArticle")
	if f.CreateArticleFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.CreateArticleFn(a)
}

func (f *fakeClient) Article(_ context.Context, id int64) (*models.Article, error) {
	f.record("Article")
	if f.ArticleFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.ArticleFn(id)
}

func (f *fakeClient) CreateComment(_ context.Context, c models.NewComment) (*models.Comment, error) {
	f.record("CreateComment")
	if f.CreateCommentFn == nil {
		return nil, client.ErrUnavailable
	}
	return f.CreateCommentFn(c)
}

var _ client.Client = (*fakeClient)(nil)
