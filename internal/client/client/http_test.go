package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mddclient/internal/client/models"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(context.Context) string { return s.token }

type recordedRequest struct {
	Method    string
	Path      string
	Query     string
	Auth      string
	RequestID string
	Body      string
}

type backend struct {
	t *testing.T

	mu       sync.Mutex
	requests []recordedRequest
	status   int
	reply    string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, recordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get(RequestIDHeader),
		Body:      string(body),
	})
	status, reply := b.status, b.reply
	b.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (b *backend) last() recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(b.t, b.requests)
	return b.requests[len(b.requests)-1]
}

func newBackend(t *testing.T, status int, reply string, opts ...Option) (*backend, *HTTPClient) {
	t.Helper()
	b := &backend{t: t, status: status, reply: reply}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return b, c
}

func TestNewHTTPClient_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient("localhost:8080", nil)
	require.Error(t, err)

	_, err = NewHTTPClient("://", nil)
	require.Error(t, err)
}

func TestLogin_SendsCredentialsWithoutBearer(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `{"token":"jwt","userId":7,"username":"ann"}`,
		WithAuth(staticTokens{"stale"}, nil))

	resp, err := c.Login(context.Background(), models.LoginRequest{EmailOrUsername: "ann", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "jwt", resp.Token)
	require.NotNil(t, resp.UserID)
	require.Equal(t, int64(7), *resp.UserID)

	got := b.last()
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/auth/login", got.Path)
	require.Empty(t, got.Auth)
	require.JSONEq(t, `{"emailOrUsername":"ann","password":"pw"}`, got.Body)

	_, err = uuid.Parse(got.RequestID)
	require.NoError(t, err)
}

func TestRegister_Body(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `{"token":"jwt"}`)

	resp, err := c.Register(context.Background(), models.RegisterRequest{Username: "ann", Email: "a@x.io", Password: "pw"})
	require.NoError(t, err)
	require.Nil(t, resp.UserID)

	got := b.last()
	require.Equal(t, "/auth/register", got.Path)
	require.JSONEq(t, `{"username":"ann","email":"a@x.io","password":"pw"}`, got.Body)
}

func TestCredentialEndpoints_MapRejectionToErrCredentials(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict} {
		_, c := newBackend(t, status, `{"message":"nope"}`)

		_, err := c.Login(context.Background(), models.LoginRequest{EmailOrUsername: "ann", Password: "bad"})
		require.ErrorIs(t, err, ErrCredentials, "status %d", status)
		require.NotErrorIs(t, err, ErrUnauthorized)

		_, err = c.Register(context.Background(), models.RegisterRequest{Username: "ann"})
		require.ErrorIs(t, err, ErrCredentials, "status %d", status)
	}
}

func TestCredentialEndpoints_ServerErrorIsUnavailable(t *testing.T) {
	_, c := newBackend(t, http.StatusBadGateway, ``)

	_, err := c.Login(context.Background(), models.LoginRequest{})
	require.ErrorIs(t, err, ErrUnavailable)
	require.NotErrorIs(t, err, ErrCredentials)
}

func TestAuthenticatedRequest_CarriesBearer(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `{"id":7,"username":"ann","email":"a@x.io"}`,
		WithAuth(staticTokens{"jwt"}, nil))

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)
	require.Equal(t, "Bearer jwt", b.last().Auth)
}

func TestAnonymousRequest_HasNoBearer(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `[]`, WithAuth(staticTokens{""}, nil))

	themes, err := c.Themes(context.Background())
	require.NoError(t, err)
	require.Empty(t, themes)
	require.Empty(t, b.last().Auth)
}

func TestEndpoints_PathsAndQueries(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, ``)
	ctx := context.Background()

	cases := []struct {
		name   string
		call   func() error
		method string
		path   string
		query  string
	}{
		{"update user", func() error {
			_, err := c.UpdateUser(ctx, 7, models.UserProfileUpdate{Username: "ann"})
			return err
		}, http.MethodPut, "/api/users/7", ""},
		{"themes", func() error { _, err := c.Themes(ctx); return err }, http.MethodGet, "/api/themes", ""},
		{"subscriptions", func() error { _, err := c.UserSubscriptions(ctx, 7); return err }, http.MethodGet, "/api/subscriptions/user/7", ""},
		{"subscribe", func() error { _, err := c.Subscribe(ctx, 7, 3); return err }, http.MethodPost, "/api/subscriptions/subscribe", "themeId=3&userId=7"},
		{"unsubscribe", func() error { return c.Unsubscribe(ctx, 7, 3) }, http.MethodDelete, "/api/subscriptions/unsubscribe", "themeId=3&userId=7"},
		{"feed", func() error { _, err := c.SubscribedArticles(ctx, 7); return err }, http.MethodGet, "/api/articles/subscribed/7", ""},
		{"create article", func() error {
			_, err := c.CreateArticle(ctx, models.NewArticle{ThemeID: 3, Title: "t", Content: "c"})
			return err
		}, http.MethodPost, "/api/articles", ""},
		{"article", func() error { _, err := c.Article(ctx, 11); return err }, http.MethodGet, "/api/articles/11", ""},
		{"comment", func() error {
			_, err := c.CreateComment(ctx, models.NewComment{ArticleID: 11, UserID: 7, Content: "hi"})
			return err
		}, http.MethodPost, "/api/comments", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.call())
			got := b.last()
			require.Equal(t, tc.method, got.Method)
			require.Equal(t, tc.path, got.Path)
			require.Equal(t, tc.query, got.Query)
		})
	}
}

func TestCreateComment_Body(t *testing.T) {
	b, c := newBackend(t, http.StatusOK, `{"id":1,"content":"hi","articleId":11,"userId":7,"senderUsername":"ann"}`)

	cm, err := c.CreateComment(context.Background(), models.NewComment{ArticleID: 11, UserID: 7, Content: "hi"})
	require.NoError(t, err)
	require.Equal(t, "ann", cm.SenderUsername)
	require.JSONEq(t, `{"articleId":11,"userId":7,"content":"hi"}`, b.last().Body)
}

func TestUserSubscriptions_KeepsRawShape(t *testing.T) {
	_, c := newBackend(t, http.StatusOK, `[{"id":9,"themeId":3},{"theme":{"id":1,"title":"Go"}}]`)

	raw, err := c.UserSubscriptions(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, raw, 2)
	require.Equal(t, int64(3), raw[0].Int("themeId"))

	theme, ok := raw[1].Object("theme")
	require.True(t, ok)
	title, _ := theme.String("title")
	require.Equal(t, "Go", title)
}

func TestUserSubscriptions_MalformedElementKeepsTheRest(t *testing.T) {
	_, c := newBackend(t, http.StatusOK, `[{"id":9,"themeId":3}, 42, "x", null, {"id":10,"themeId":4}]`)

	raw, err := c.UserSubscriptions(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, raw, 5)
	require.Equal(t, int64(3), raw[0].Int("themeId"))
	require.Equal(t, int64(4), raw[4].Int("themeId"))
	for _, r := range raw[1:4] {
		require.NotNil(t, r)
		require.Empty(t, r)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusConflict, ErrBadRequest},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusServiceUnavailable, ErrUnavailable},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			_, c := newBackend(t, tc.status, `{"message":"x"}`)
			_, err := c.Themes(context.Background())
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestStatusMapping_OtherIsStatusError(t *testing.T) {
	_, c := newBackend(t, http.StatusTeapot, "short and stout\n")

	_, err := c.Themes(context.Background())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusTeapot, se.Code)
	require.Equal(t, "short and stout", se.Body)
}

func TestDialFailure_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, nil)
	require.NoError(t, err)

	_, err = c.Themes(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestTimeout_IsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewHTTPClient(srv.URL, nil, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Themes(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCancelledContext_IsNotUnavailable(t *testing.T) {
	_, c := newBackend(t, http.StatusOK, `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Themes(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrUnavailable)
}

func TestDecodeError(t *testing.T) {
	_, c := newBackend(t, http.StatusOK, `{not json`)

	_, err := c.Me(context.Background())
	require.Error(t, err)

	var syntax *json.SyntaxError
	require.True(t, errors.As(err, &syntax))
}
