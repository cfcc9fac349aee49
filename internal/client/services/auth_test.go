package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mddclient/internal/client/broadcast"
	"github.com/dmitrijs2005/mddclient/internal/client/client"
	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/client/session"
)

type emissions struct {
	mu sync.Mutex
	v  []bool
}

func (e *emissions) add(v bool) {
	e.mu.Lock()
	e.v = append(e.v, v)
	e.mu.Unlock()
}

func (e *emissions) values() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.v...)
}

func newAuth(t *testing.T, fc *fakeClient) (*AuthService, *emissions) {
	t.Helper()
	store := newStore(t)
	state := RestoreAuthState(context.Background(), store)

	em := &emissions{}
	sub := state.Subscribe(em.add)
	t.Cleanup(sub.Unsubscribe)

	svc := NewAuthService(fc, store, state, nil)
	t.Cleanup(svc.Close)
	return svc, em
}

func grant(token string, userID *int64) func(models.LoginRequest) (*models.AuthResponse, error) {
	return func(models.LoginRequest) (*models.AuthResponse, error) {
		return &models.AuthResponse{Token: token, UserID: userID}, nil
	}
}

func me(id int64) func(context.Context) (*models.User, error) {
	return func(context.Context) (*models.User, error) {
		return &models.User{ID: id, Username: "ann"}, nil
	}
}

func TestLogin_Success_PersistsAndPublishes(t *testing.T) {
	fc := &fakeClient{LoginFn: grant("jwt", nil), MeFn: me(7)}
	svc, em := newAuth(t, fc)
	ctx := context.Background()

	res, err := svc.Login(ctx, " ann ", "pw")
	require.NoError(t, err)
	require.NoError(t, res.IdentityErr)
	require.Equal(t, int64(7), res.User.ID)

	require.True(t, svc.IsAuthenticated(ctx))
	require.Equal(t, int64(7), svc.store.CurrentUserID(ctx))
	require.Equal(t, []bool{false, true}, em.values())
	require.Equal(t, []string{"Login", "Me"}, fc.Calls())
}

func TestLogin_SendsTrimmedIdentifier(t *testing.T) {
	var got models.LoginRequest
	fc := &fakeClient{
		LoginFn: func(req models.LoginRequest) (*models.AuthResponse, error) {
			got = req
			return &models.AuthResponse{Token: "jwt"}, nil
		},
		MeFn: me(7),
	}
	svc, _ := newAuth(t, fc)

	_, err := svc.Login(context.Background(), "  ann@x.io ", "pw")
	require.NoError(t, err)
	require.Equal(t, models.LoginRequest{EmailOrUsername: "ann@x.io", Password: "pw"}, got)
}

func TestLogin_UserIDInResponseIsPersisted(t *testing.T) {
	fc := &fakeClient{LoginFn: grant("jwt", ptr(int64(7))), MeFn: func(context.Context) (*models.User, error) {
		return nil, client.ErrUnavailable
	}}
	svc, _ := newAuth(t, fc)

	res, err := svc.Login(context.Background(), "ann", "pw")
	require.NoError(t, err)
	require.ErrorIs(t, res.IdentityErr, ErrIdentityResolution)
	require.Equal(t, int64(7), svc.store.CurrentUserID(context.Background()))
}

func TestLogin_MissingFields_NoRequest(t *testing.T) {
	fc := &fakeClient{}
	svc, _ := newAuth(t, fc)

	_, err := svc.Login(context.Background(), "  ", "pw")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Login(context.Background(), "ann", "")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, fc.Calls())
}

func TestLogin_CredentialError_LeavesSessionUntouched(t *testing.T) {
	fc := &fakeClient{LoginFn: func(models.LoginRequest) (*models.AuthResponse, error) {
		return nil, client.ErrCredentials
	}}
	svc, em := newAuth(t, fc)

	_, err := svc.Login(context.Background(), "ann", "bad")
	require.ErrorIs(t, err, client.ErrCredentials)
	require.True(t, strings.HasPrefix(err.Error(), "login error:"))
	require.False(t, svc.IsAuthenticated(context.Background()))
	require.Equal(t, []bool{false}, em.values())
}

func TestLogin_NoTokenInResponse_IsCredentialError(t *testing.T) {
	fc := &fakeClient{LoginFn: grant("", ptr(int64(7)))}
	svc, em := newAuth(t, fc)

	_, err := svc.Login(context.Background(), "ann", "pw")
	require.ErrorIs(t, err, client.ErrCredentials)
	require.False(t, svc.IsAuthenticated(context.Background()))
	require.Equal(t, int64(0), svc.store.CurrentUserID(context.Background()))
	require.Equal(t, []bool{false}, em.values())
}

func TestLogin_IdentityFailureIsNonFatal(t *testing.T) {
	fc := &fakeClient{LoginFn: grant("jwt", nil), MeFn: func(context.Context) (*models.User, error) {
		return nil, client.ErrUnavailable
	}}
	svc, em := newAuth(t, fc)

	res, err := svc.Login(context.Background(), "ann", "pw")
	require.NoError(t, err)
	require.Nil(t, res.User)
	require.ErrorIs(t, res.IdentityErr, ErrIdentityResolution)
	require.ErrorIs(t, res.IdentityErr, client.ErrUnavailable)

	require.True(t, svc.IsAuthenticated(context.Background()))
	require.Equal(t, int64(0), svc.store.CurrentUserID(context.Background()))
	require.Equal(t, []bool{false, true}, em.values())

	select {
	case got := <-svc.IdentityErrors():
		require.ErrorIs(t, got, ErrIdentityResolution)
	default:
		t.Fatal("identity error not published")
	}
}

func TestLogin_Twice_EmitsOnce(t *testing.T) {
	fc := &fakeClient{LoginFn: grant("jwt", nil), MeFn: me(7)}
	svc, em := newAuth(t, fc)

	_, err := svc.Login(context.Background(), "ann", "pw")
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "ann", "pw")
	require.NoError(t, err)

	require.Equal(t, []bool{false, true}, em.values())
}

func TestLoginLogoutLogin_ReflectsLatest(t *testing.T) {
	fc := &fakeClient{LoginFn: grant("jwt", nil), MeFn: me(7)}
	svc, em := newAuth(t, fc)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ann", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))
	require.False(t, svc.IsAuthenticated(ctx))
	require.Equal(t, int64(0), svc.store.CurrentUserID(ctx))

	_, err = svc.Login(ctx, "ann", "pw")
	require.NoError(t, err)
	require.True(t, svc.IsAuthenticated(ctx))

	require.Equal(t, []bool{false, true, false, true}, em.values())
}

func TestLogout_Idempotent(t *testing.T) {
	svc, em := newAuth(t, &fakeClient{})

	require.NoError(t, svc.Logout(context.Background()))
	require.NoError(t, svc.Logout(context.Background()))
	require.Equal(t, []bool{false}, em.values())
}

type failingStore struct {
	SessionStore
	clearErr error
}

func (f failingStore) ClearSession(context.Context) error { return f.clearErr }

func TestLogout_StoreFailure_LeavesStateUntouched(t *testing.T) {
	state := broadcast.New(true)
	store := failingStore{SessionStore: newStore(t), clearErr: errors.New("disk full")}
	svc := NewAuthService(&fakeClient{}, store, state, nil)
	defer svc.Close()

	err := svc.Logout(context.Background())
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "logout error:"))
	require.True(t, state.Current())
}

func TestRegister_ResolvesIdentityInBackground(t *testing.T) {
	release := make(chan struct{})
	fc := &fakeClient{
		RegisterFn: func(models.RegisterRequest) (*models.AuthResponse, error) {
			return &models.AuthResponse{Token: "jwt"}, nil
		},
		MeFn: func(context.Context) (*models.User, error) {
			<-release
			return &models.User{ID: 9}, nil
		},
	}
	svc, em := newAuth(t, fc)
	ctx := context.Background()

	res, err := svc.Register(ctx, "ann", "a@x.io", "pw")
	require.NoError(t, err)
	require.Equal(t, "ann", res.Username)

	// register returns before identity resolution completes
	require.True(t, svc.IsAuthenticated(ctx))
	require.Equal(t, int64(0), svc.store.CurrentUserID(ctx))
	require.Equal(t, []bool{false, true}, em.values())

	close(release)
	select {
	case <-res.Resolved:
	case <-time.After(2 * time.Second):
		t.Fatal("identity resolution did not finish")
	}
	require.Equal(t, int64(9), svc.store.CurrentUserID(ctx))
}

func TestRegister_IdentityFailureIsReportedNotReturned(t *testing.T) {
	fc := &fakeClient{
		RegisterFn: func(models.RegisterRequest) (*models.AuthResponse, error) {
			return &models.AuthResponse{Token: "jwt"}, nil
		},
		MeFn: func(context.Context) (*models.User, error) { return nil, client.ErrNotFound },
	}
	svc, _ := newAuth(t, fc)

	res, err := svc.Register(context.Background(), "ann", "a@x.io", "pw")
	require.NoError(t, err)
	<-res.Resolved

	select {
	case got := <-svc.IdentityErrors():
		require.ErrorIs(t, got, client.ErrNotFound)
	case <-time.After(2 * time.Second):
		t.Fatal("identity error not published")
	}
	require.True(t, svc.IsAuthenticated(context.Background()))
}

func TestRegister_CloseAbandonsResolution(t *testing.T) {
	fc := &fakeClient{
		RegisterFn: func(models.RegisterRequest) (*models.AuthResponse, error) {
			return &models.AuthResponse{Token: "jwt"}, nil
		},
		MeFn: func(ctx context.Context) (*models.User, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	store := newStore(t)
	svc := NewAuthService(fc, store, broadcast.New(false), nil)

	res, err := svc.Register(context.Background(), "ann", "a@x.io", "pw")
	require.NoError(t, err)

	svc.Close()
	<-res.Resolved

	require.Equal(t, int64(0), store.CurrentUserID(context.Background()))
	select {
	case got := <-svc.IdentityErrors():
		t.Fatalf("unexpected identity error after close: %v", got)
	default:
	}
}

func TestRegister_Rejected(t *testing.T) {
	fc := &fakeClient{RegisterFn: func(models.RegisterRequest) (*models.AuthResponse, error) {
		return nil, client.ErrCredentials
	}}
	svc, _ := newAuth(t, fc)

	_, err := svc.Register(context.Background(), "ann", "a@x.io", "pw")
	require.ErrorIs(t, err, client.ErrCredentials)
	require.True(t, strings.HasPrefix(err.Error(), "register error:"))
	require.False(t, svc.IsAuthenticated(context.Background()))
}

func TestRegister_MissingFields(t *testing.T) {
	fc := &fakeClient{}
	svc, _ := newAuth(t, fc)

	_, err := svc.Register(context.Background(), "ann", " ", "pw")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, fc.Calls())
}

func TestFetchCurrentUser(t *testing.T) {
	fc := &fakeClient{LoginFn: grant("jwt", nil), MeFn: me(7)}
	svc, _ := newAuth(t, fc)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ann", "pw")
	require.NoError(t, err)

	fc.MeFn = me(8)
	u, ok := svc.FetchCurrentUser(ctx)
	require.True(t, ok)
	require.Equal(t, int64(8), u.ID)
	require.Equal(t, int64(8), svc.store.CurrentUserID(ctx))

	fc.MeFn = func(context.Context) (*models.User, error) { return &models.User{}, nil }
	u, ok = svc.FetchCurrentUser(ctx)
	require.False(t, ok)
	require.Nil(t, u)
	require.True(t, svc.IsAuthenticated(ctx))
}

func TestFetchCurrentUser_WithoutSession(t *testing.T) {
	svc, _ := newAuth(t, &fakeClient{MeFn: me(7)})

	_, ok := svc.FetchCurrentUser(context.Background())
	require.False(t, ok)
}

func TestIdentityErrors_DroppedWhenFull(t *testing.T) {
	svc, _ := newAuth(t, &fakeClient{})

	for i := 0; i < identityErrBuffer+3; i++ {
		_, ok := svc.FetchCurrentUser(context.Background())
		require.False(t, ok)
	}
	require.Len(t, svc.IdentityErrors(), identityErrBuffer)
}

func TestRegister_LateIdentityDoesNotLeakIntoNewerLogin(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	var (
		mu    sync.Mutex
		calls int
	)
	fc := &fakeClient{
		RegisterFn: func(models.RegisterRequest) (*models.AuthResponse, error) {
			return &models.AuthResponse{Token: "tokA"}, nil
		},
		LoginFn: grant("tokB", ptr(int64(2))),
		MeFn: func(context.Context) (*models.User, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()

			if n == 1 {
				close(started)
				<-release
				return &models.User{ID: 1, Username: "alice"}, nil
			}
			return &models.User{ID: 2, Username: "bob"}, nil
		},
	}
	svc, _ := newAuth(t, fc)
	ctx := context.Background()

	res, err := svc.Register(ctx, "alice", "a@x.io", "pw")
	require.NoError(t, err)
	<-started

	login, err := svc.Login(ctx, "bob", "pw")
	require.NoError(t, err)
	require.NoError(t, login.IdentityErr)
	require.Equal(t, int64(2), login.User.ID)

	close(release)
	select {
	case <-res.Resolved:
	case <-time.After(2 * time.Second):
		t.Fatal("identity resolution did not finish")
	}

	require.Equal(t, models.Session{Token: "tokB", UserID: 2}, svc.store.(*session.Store).Snapshot(ctx))
	require.Empty(t, svc.IdentityErrors(), "a replaced session is not an identity failure")
}

func TestFetchCurrentUser_SessionReplacedDuringLookup(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetSession(ctx, "tokA", 0))

	fc := &fakeClient{MeFn: func(context.Context) (*models.User, error) {
		// another login completes while /auth/me is in flight
		require.NoError(t, store.SetSession(ctx, "tokB", 2))
		return &models.User{ID: 1}, nil
	}}
	svc := NewAuthService(fc, store, broadcast.New(true), nil)
	defer svc.Close()

	u, ok := svc.FetchCurrentUser(ctx)
	require.False(t, ok)
	require.Nil(t, u)
	require.EqualValues(t, 2, store.CurrentUserID(ctx))
	require.Empty(t, svc.IdentityErrors())
}
