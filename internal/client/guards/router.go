package guards

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/mddclient/internal/logging"
)

const maxRedirects = 4

var (
	ErrRedirectLoop = errors.New("too many redirects")
	ErrNoHandler    = errors.New("no handler for route")
)

// Handler renders a screen. args are the words after the route name.
type Handler func(ctx context.Context, args []string) error

type entry struct {
	guard   Guard
	handler Handler
}

// Router maps routes to guards and handlers. Unknown routes fall back to
// home.
type Router struct {
	log logging.Logger

	mu      sync.Mutex
	routes  map[Route]*entry
	pending Route
}

// NewRouter builds the route table: login and signup behind LoginGuard,
// every content screen behind AuthGuard, home open.
func NewRouter(session Authenticator, log logging.Logger) *Router {
	if log == nil {
		log = logging.Nop()
	}

	auth := AuthGuard{Session: session}
	anon := LoginGuard{Session: session}

	r := &Router{log: log.With("component", "router"), routes: map[Route]*entry{}}
	r.routes[RouteHome] = &entry{}
	r.routes[RouteLogin] = &entry{guard: anon}
	r.routes[RouteSignup] = &entry{guard: anon}
	for _, rt := range []Route{RouteArticles, RouteArticle, RouteCreateArticle, RouteThemes, RouteMe} {
		r.routes[rt] = &entry{guard: auth}
	}
	return r
}

func (r *Router) Handle(route Route, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.routes[route]
	if !ok {
		e = &entry{}
		r.routes[route] = e
	}
	e.handler = h
}

// Guard returns the guard of route, nil for open routes.
func (r *Router) Guard(route Route) Guard {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.routes[route]; ok {
		return e.guard
	}
	return nil
}

func (r *Router) lookup(route Route) (Route, entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.routes[route]; ok {
		return route, *e
	}
	return RouteHome, *r.routes[RouteHome]
}

// Navigate enters route, following guard redirects, and returns the route
// that was actually entered. args are dropped on a redirect.
func (r *Router) Navigate(ctx context.Context, route Route, args []string) (Route, error) {
	for i := 0; i <= maxRedirects; i++ {
		target, e := r.lookup(route)

		if e.guard != nil {
			if d := e.guard.Check(ctx); !d.Allowed {
				r.log.Debug(ctx, "navigation redirected", "from", target, "to", d.Redirect)
				route, args = d.Redirect, nil
				continue
			}
		}

		if e.handler == nil {
			return target, fmt.Errorf("%w: %s", ErrNoHandler, target)
		}
		return target, e.handler(ctx, args)
	}
	return route, fmt.Errorf("%w: last target %s", ErrRedirectLoop, route)
}

// Request schedules a navigation to be taken by the caller's loop, for
// code that must not render a screen itself (the 401 handler).
func (r *Router) Request(route Route) {
	r.mu.Lock()
	r.pending = route
	r.mu.Unlock()
}

// TakeRequest returns and clears the scheduled navigation.
func (r *Router) TakeRequest() (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	route := r.pending
	r.pending = ""
	return route, route != ""
}
