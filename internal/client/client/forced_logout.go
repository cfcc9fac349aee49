package client

import (
	"context"

	"github.com/dmitrijs2005/mddclient/internal/logging"
)

// SessionResetter is the part of the session store the 401 handler needs.
// ClearSessionIf clears only while token is still persisted and reports
// whether it did.
type SessionResetter interface {
	ClearSessionIf(ctx context.Context, token string) (bool, error)
}

// StateSetter is the shared auth state.
type StateSetter interface {
	Set(v bool) bool
}

// ForcedLogout handles a 401 on an authenticated request: it clears the
// session, publishes false and redirects, in that order.
type ForcedLogout struct {
	store    SessionResetter
	state    StateSetter
	redirect func(ctx context.Context)
	log      logging.Logger
}

func NewForcedLogout(store SessionResetter, state StateSetter, redirect func(ctx context.Context), log logging.Logger) *ForcedLogout {
	if log == nil {
		log = logging.Nop()
	}
	return &ForcedLogout{store: store, state: state, redirect: redirect, log: log}
}

// HandleUnauthorized ignores a 401 for a token that is no longer the
// current one, so a slow response cannot end a newer session.
func (f *ForcedLogout) HandleUnauthorized(ctx context.Context, token string) {
	cleared, err := f.store.ClearSessionIf(ctx, token)
	if err != nil {
		f.log.Error(ctx, "forced logout: clearing session failed", "error", err)
		return
	}
	if !cleared {
		f.log.Debug(ctx, "ignoring 401 for stale token")
		return
	}
	f.state.Set(false)
	f.log.Warn(ctx, "session rejected by server, logged out")

	if f.redirect != nil {
		f.redirect(ctx)
	}
}
