// Package guards decides whether a screen may be entered given the
// persisted session. Guards hold no state and ask the session store on
// every check.
package guards

import "context"

type Route string

const (
	RouteHome          Route = "home"
	RouteLogin         Route = "login"
	RouteSignup        Route = "signup"
	RouteArticles      Route = "articles"
	RouteArticle       Route = "article"
	RouteCreateArticle Route = "create-article"
	RouteThemes        Route = "themes"
	RouteMe            Route = "me"
)

// Authenticator is the single source of truth for "is someone logged in".
// *session.Store implements it.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// Decision is the outcome of a guard. When Allowed is false, Redirect names
// the route to go to instead.
type Decision struct {
	Allowed  bool
	Redirect Route
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func RedirectTo(r Route) Decision {
	return Decision{Redirect: r}
}

type Guard interface {
	Check(ctx context.Context) Decision
}

// AuthGuard admits only authenticated users and sends everyone else to the
// login screen.
type AuthGuard struct {
	Session Authenticator
}

func (g AuthGuard) Check(ctx context.Context) Decision {
	if g.Session.IsAuthenticated(ctx) {
		return Allow()
	}
	return RedirectTo(RouteLogin)
}

// LoginGuard keeps authenticated users away from the login and signup
// screens.
type LoginGuard struct {
	Session Authenticator
}

func (g LoginGuard) Check(ctx context.Context) Decision {
	if !g.Session.IsAuthenticated(ctx) {
		return Allow()
	}
	return RedirectTo(RouteArticles)
}
