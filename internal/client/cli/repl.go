package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/mddclient/internal/client/guards"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Navigate(ctx context.Context, route guards.Route, args []string) error
	FollowRedirects(ctx context.Context)
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
}

// commandRoutes maps REPL commands to screens. Action commands reach their
// screen with the action as the first argument, so they pass the same guard.
var commandRoutes = map[string]struct {
	route  guards.Route
	action string
}{
	"home":           {route: guards.RouteHome},
	"login":          {route: guards.RouteLogin},
	"signup":         {route: guards.RouteSignup},
	"register":       {route: guards.RouteSignup},
	"articles":       {route: guards.RouteArticles},
	"article":        {route: guards.RouteArticle},
	"comment":        {route: guards.RouteArticle, action: actionComment},
	"create-article": {route: guards.RouteCreateArticle},
	"themes":         {route: guards.RouteThemes},
	"subscribe":      {route: guards.RouteThemes, action: actionSubscribe},
	"unsubscribe":    {route: guards.RouteThemes, action: actionUnsubscribe},
	"me":             {route: guards.RouteMe},
	"profile":        {route: guards.RouteMe, action: actionEdit},
}

const (
	actionComment     = "comment"
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionEdit        = "edit"
	actionSort        = "sort"
)

// runREPL starts a simple read–eval–print loop for the MDD CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to 'a'. Unknown commands are reported back to the user. The
// loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help             — show available commands
//	  - home             — home screen
//	  - login            — authenticate
//	  - signup           — create an account
//	  - exit | quit      — leave the program
//
//	Logged in:
//	  - articles [sort]  — feed of followed themes, sort flips the order
//	  - article <id>     — read an article and its comments
//	  - comment <id>     — comment on an article
//	  - create-article   — write an article
//	  - themes           — theme catalog
//	  - subscribe <id>   — follow a theme
//	  - unsubscribe <id> — stop following a theme
//	  - me               — profile and subscriptions
//	  - profile          — update username, email or password
//	  - status           — session details
//	  - logout           — log out
//	  - exit | quit      — leave the program
//
// Any errors returned by command handlers are ignored here; handlers
// report their own errors. After every command, navigations requested in
// the background (a forced logout) are followed.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("mdd %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: home, articles [sort], article <id>, comment <id>, create-article, themes, subscribe <id>, unsubscribe <id>, me, profile, status, logout, exit")
			} else {
				printlnFn("Available commands: home, login, signup, exit")
			}

		case "logout":
			_ = a.Logout(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			target, ok := commandRoutes[cmd]
			if !ok {
				printlnFn("Unknown command:", cmd)
				break
			}
			if target.action != "" {
				args = append([]string{target.action}, args...)
			}
			_ = a.Navigate(ctx, target.route, args)
		}

		a.FollowRedirects(ctx)
	}
}
