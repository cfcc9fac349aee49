// Package services contains application services for the MDD client.
// This file defines the authentication service: login, register, identity
// resolution and logout, keeping the session store and the shared auth
// state in step.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mddclient/internal/client/broadcast"
	"github.com/dmitrijs2005/mddclient/internal/client/client"
	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/client/scope"
	"github.com/dmitrijs2005/mddclient/internal/client/session"
	"github.com/dmitrijs2005/mddclient/internal/logging"
)

const identityErrBuffer = 8

// LoginResult is a successful login. IdentityErr is set when the session
// was established but the user could not be resolved; User is nil then.
type LoginResult struct {
	User        *models.User
	IdentityErr error
}

// RegisterResult is a successful registration. Resolved is closed once the
// background identity resolution has finished or was abandoned.
type RegisterResult struct {
	Username string
	Resolved <-chan struct{}
}

// AuthService coordinates authentication.
//
// Contract:
//   - Login: submit credentials, persist the session, publish true, then
//     resolve the identity before returning.
//   - Register: same as Login, but the identity is resolved in the
//     background on the service's own scope.
//   - FetchCurrentUser: GET /auth/me and persist the user id.
//   - Logout: clear the session and publish false.
//
// Identity resolution failures are reported on IdentityErrors and never
// fail the login or register that triggered them.
type AuthService struct {
	client client.Client
	store  SessionStore
	state  *broadcast.Signal[bool]
	scope  *scope.Scope
	log    logging.Logger

	identityErrs chan error
}

func NewAuthService(c client.Client, store SessionStore, state *broadcast.Signal[bool], log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{
		client:       c,
		store:        store,
		state:        state,
		scope:        scope.New(context.Background()),
		log:          log.With("component", "auth"),
		identityErrs: make(chan error, identityErrBuffer),
	}
}

func (a *AuthService) AuthState() *broadcast.Signal[bool] {
	return a.state
}

// IsAuthenticated reads the session store, not the cached state.
func (a *AuthService) IsAuthenticated(ctx context.Context) bool {
	return a.store.IsAuthenticated(ctx)
}

// IdentityErrors delivers identity resolution failures. Errors are dropped
// when nobody drains the channel.
func (a *AuthService) IdentityErrors() <-chan error {
	return a.identityErrs
}

func (a *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: username or email and password are required", ErrInvalidInput)
	}

	resp, err := a.client.Login(ctx, models.LoginRequest{EmailOrUsername: identifier, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	token, err := a.establish(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	user, err := a.resolve(ctx, token)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.reportIdentity(ctx, err)
		}
		return &LoginResult{IdentityErr: err}, nil
	}
	return &LoginResult{User: user}, nil
}

func (a *AuthService) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	resp, err := a.client.Register(ctx, models.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	token, err := a.establish(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}

	done := make(chan struct{})
	started := a.scope.Go(func(ctx context.Context) {
		defer close(done)

		_, err := a.resolve(ctx, token)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.reportIdentity(ctx, err)
		}
	})
	if !started {
		close(done)
	}

	name := resp.Username
	if name == "" {
		name = username
	}
	return &RegisterResult{Username: name, Resolved: done}, nil
}

// establish persists the credential response, publishes true and returns
// the token the session was opened with.
func (a *AuthService) establish(ctx context.Context, resp *models.AuthResponse) (string, error) {
	if resp == nil || resp.Token == "" {
		return "", fmt.Errorf("%w: response carries no token", client.ErrCredentials)
	}

	var userID int64
	if resp.UserID != nil {
		userID = *resp.UserID
	}

	if err := a.store.SetSession(ctx, resp.Token, userID); err != nil {
		return "", fmt.Errorf("session saving error: %w", err)
	}
	a.state.Set(true)

	a.log.Info(ctx, "session established", "user_id", userID)
	return resp.Token, nil
}

// FetchCurrentUser resolves the logged-in user and persists its id. On
// failure it logs and reports false; the session is left as it is.
func (a *AuthService) FetchCurrentUser(ctx context.Context) (*models.User, bool) {
	user, err := a.resolve(ctx, a.store.Token(ctx))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.reportIdentity(ctx, err)
		}
		return nil, false
	}
	return user, true
}

// resolve looks up the user and records its id on the session opened with
// token. A session replaced in the meantime makes the result moot and it is
// reported as cancelled.
func (a *AuthService) resolve(ctx context.Context, token string) (*models.User, error) {
	user, err := a.client.Me(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrIdentityResolution, err)
	}
	if user == nil || user.ID == 0 {
		return nil, fmt.Errorf("%w: response carries no user id", ErrIdentityResolution)
	}

	var saveErr error
	delivered := a.scope.Deliver(func() {
		saveErr = a.store.SetUserID(ctx, token, user.ID)
	})
	if !delivered {
		return nil, context.Canceled
	}
	if errors.Is(saveErr, session.ErrSessionChanged) {
		a.log.Debug(ctx, "dropping identity of a replaced session", "user_id", user.ID)
		return nil, fmt.Errorf("%w: %w", saveErr, context.Canceled)
	}
	if saveErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityResolution, saveErr)
	}
	return user, nil
}

func (a *AuthService) reportIdentity(ctx context.Context, err error) {
	a.log.Warn(ctx, "could not resolve current user", "error", err)

	select {
	case a.identityErrs <- err:
	default:
	}
}

// Logout clears the session and publishes false. It is idempotent. When
// the store cannot be cleared the state is left untouched.
func (a *AuthService) Logout(ctx context.Context) error {
	if err := a.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	a.state.Set(false)

	a.log.Info(ctx, "logged out")
	return nil
}

// Close abandons background identity resolutions and waits for them.
func (a *AuthService) Close() {
	a.scope.Close()
	a.scope.Wait()
}
