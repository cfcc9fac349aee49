package services

import (
	"context"

	"github.com/dmitrijs2005/mddclient/internal/client/broadcast"
)

// SessionStore is the persisted session as seen by the services.
// *session.Store implements it.
// SetUserID must refuse to write when token is no longer the persisted one.
type SessionStore interface {
	IsAuthenticated(ctx context.Context) bool
	Token(ctx context.Context) string
	SetSession(ctx context.Context, token string, userID int64) error
	SetUserID(ctx context.Context, token string, userID int64) error
	ClearSession(ctx context.Context) error
	CurrentUserID(ctx context.Context) int64
}

// UserIDSource yields the resolved id of the logged-in user, 0 if unknown.
type UserIDSource interface {
	CurrentUserID(ctx context.Context) int64
}

// RestoreAuthState seeds the shared auth state from the persisted session,
// so a restart with a stored token starts authenticated.
func RestoreAuthState(ctx context.Context, store SessionStore) *broadcast.Signal[bool] {
	return broadcast.New(store.IsAuthenticated(ctx))
}
