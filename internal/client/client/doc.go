// Package client contains the client-side building blocks that talk to the
// MDD backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) with one
//     method per REST endpoint: authentication, profile, themes,
//     subscriptions, articles and comments.
//  2. A concrete HTTP implementation (see HTTPClient) that injects the
//     persisted bearer token through a RoundTripper and maps HTTP status
//     codes to sentinel errors.
//  3. The 401 handler (ForcedLogout) that clears the session, flips the
//     shared auth state and redirects to the login screen.
//  4. Local persistence bootstrap utilities (InitDatabase, RunMigrations),
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrCredentials,
// ErrForbidden, ErrNotFound, ErrBadRequest. Any other non-2xx status is
// returned as a *StatusError.
//
// Login and register never report ErrUnauthorized: a rejection there is
// ErrCredentials and never touches the session.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
//
// See Also
//
//   - Interface:  Client
//   - HTTP impl:  HTTPClient
//   - 401 hook:   ForcedLogout
//   - DB helpers: InitDatabase, RunMigrations
package client
