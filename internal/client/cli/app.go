package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/mddclient/internal/client/broadcast"
	"github.com/dmitrijs2005/mddclient/internal/client/client"
	"github.com/dmitrijs2005/mddclient/internal/client/config"
	"github.com/dmitrijs2005/mddclient/internal/client/guards"
	"github.com/dmitrijs2005/mddclient/internal/client/scope"
	"github.com/dmitrijs2005/mddclient/internal/client/services"
	"github.com/dmitrijs2005/mddclient/internal/client/session"
	"github.com/dmitrijs2005/mddclient/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger

	db    *sql.DB
	api   client.Client
	store *session.Store
	state *broadcast.Signal[bool]

	authService    *services.AuthService
	themeService   *services.ThemeService
	articleService *services.ArticleService
	userService    *services.UserService

	router *guards.Router
	reader *bufio.Reader
	out    io.Writer

	lifetime *scope.Scope
	navSub   *broadcast.Subscription[bool]

	mu       sync.Mutex
	userName string
	loggedIn bool
	order    services.SortOrder
}

// NewApp opens the session database and wires the services. in and out
// are the terminal; passwords are still read from os.Stdin.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store := session.NewStore(db, log)
	state := services.RestoreAuthState(ctx, store)
	router := guards.NewRouter(store, log)

	forced := client.NewForcedLogout(store, state, func(context.Context) {
		router.Request(guards.RouteLogin)
	}, log)

	api, err := client.NewHTTPClient(c.APIBaseURL, log,
		client.WithTimeout(c.RequestTimeout),
		client.WithAuth(store, forced),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		config:         c,
		log:            log,
		db:             db,
		api:            api,
		store:          store,
		state:          state,
		authService:    services.NewAuthService(api, store, state, log),
		themeService:   services.NewThemeService(api, store, log),
		articleService: services.NewArticleService(api, store, log),
		userService:    services.NewUserService(api, store, state, log),
		router:         router,
		reader:         bufio.NewReader(in),
		out:            out,
		lifetime:       scope.New(ctx),
	}
	a.registerRoutes()

	// the prompt is the nav bar: it follows the shared auth state
	a.navSub = state.Subscribe(a.onAuthChange)
	return a, nil
}

func (a *App) registerRoutes() {
	a.router.Handle(guards.RouteHome, a.home)
	a.router.Handle(guards.RouteLogin, a.login)
	a.router.Handle(guards.RouteSignup, a.signup)
	a.router.Handle(guards.RouteArticles, a.articles)
	a.router.Handle(guards.RouteArticle, a.article)
	a.router.Handle(guards.RouteCreateArticle, a.createArticle)
	a.router.Handle(guards.RouteThemes, a.themes)
	a.router.Handle(guards.RouteMe, a.me)
}

func (a *App) onAuthChange(authenticated bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loggedIn = authenticated
	if !authenticated {
		a.userName = ""
	}
}

func (a *App) setUserName(name string) {
	a.mu.Lock()
	a.userName = name
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case !a.loggedIn:
		return "(guest)"
	case a.userName != "":
		return fmt.Sprintf("(%s)", a.userName)
	default:
		return "(logged in)"
	}
}

// Run shows the home screen and runs the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.lifetime.Go(a.watchIdentityErrors)
	a.lifetime.Go(a.watchAuthState)

	fmt.Fprintln(a.out, "Welcome to the MDD client (type 'help' for commands)")
	if a.isLoggedIn() {
		if u, err := a.userService.Profile(ctx); err == nil {
			a.setUserName(u.Username)
		}
	}
	_ = a.Navigate(ctx, guards.RouteHome, nil)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) watchIdentityErrors(ctx context.Context) {
	for {
		select {
		case err := <-a.authService.IdentityErrors():
			a.log.Warn(ctx, "profile not loaded", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

// watchAuthState logs every auth transition, including ones caused by a
// forced logout inside an HTTP call.
func (a *App) watchAuthState(ctx context.Context) {
	for authenticated := range a.state.Changes(ctx) {
		a.log.Info(ctx, "auth state changed", "authenticated", authenticated)
	}
}

// Navigate enters route through the guards. One screen scope is opened per
// activation; work left running when the screen returns is cancelled.
func (a *App) Navigate(ctx context.Context, route guards.Route, args []string) error {
	screen := scope.New(ctx)
	defer screen.Close()

	_, err := a.router.Navigate(screen.Context(), route, args)
	if err != nil {
		a.report(ctx, err)
	}
	return err
}

// FollowRedirects takes navigations requested outside a screen, such as
// the login screen after the server rejected the session.
func (a *App) FollowRedirects(ctx context.Context) {
	for i := 0; i < 2; i++ {
		route, ok := a.router.TakeRequest()
		if !ok {
			return
		}
		if route == guards.RouteLogin {
			fmt.Fprintln(a.out, "Your session has ended. Please log in again.")
		}
		_ = a.Navigate(ctx, route, nil)
	}
}

func (a *App) Close() {
	a.navSub.Unsubscribe()
	a.userService.Close()
	a.authService.Close()

	a.lifetime.Close()
	a.lifetime.Wait()

	_ = a.api.Close()
	_ = a.db.Close()
}
