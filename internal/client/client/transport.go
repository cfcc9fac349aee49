package client

import (
	"context"
	"net/http"
)

// TokenSource yields the bearer token for outgoing requests; "" means
// anonymous.
type TokenSource interface {
	Token(ctx context.Context) string
}

// UnauthorizedHandler is told when the backend rejects token with a 401.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context, token string)
}

type UnauthorizedFunc func(ctx context.Context, token string)

func (f UnauthorizedFunc) HandleUnauthorized(ctx context.Context, token string) {
	f(ctx, token)
}

type skipAuthKey struct{}

// withoutAuth marks a request as a credential submission: it is sent with
// no bearer token and its 401 is never treated as a forced logout.
func withoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey{}, true)
}

func authSkipped(ctx context.Context) bool {
	v, _ := ctx.Value(skipAuthKey{}).(bool)
	return v
}

// authTransport injects the session token and reports 401s on requests
// that carried one.
type authTransport struct {
	base           http.RoundTripper
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	ctx := req.Context()
	if t.tokens == nil || authSkipped(ctx) {
		return base.RoundTrip(req)
	}

	token := t.tokens.Token(ctx)
	if token == "" {
		return base.RoundTrip(req)
	}

	req = req.Clone(ctx)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := base.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && t.onUnauthorized != nil {
		// the caller may already be giving up on ctx; the logout must land
		t.onUnauthorized.HandleUnauthorized(context.WithoutCancel(ctx), token)
	}
	return resp, err
}
