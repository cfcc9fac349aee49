package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mddclient/internal/client/guards"
)

func (a *App) home(ctx context.Context, _ []string) error {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "MDD: your developer feed. Type 'articles' to read or 'themes' to follow topics.")
		return nil
	}
	fmt.Fprintln(a.out, "MDD: the developer community. Type 'login' or 'signup' to start.")
	return nil
}

// login prompts for credentials. On success the articles screen is
// requested, as the web client lands there after login.
func (a *App) login(ctx context.Context, _ []string) error {
	identifier, err := getSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	res, err := a.authService.Login(ctx, identifier, string(password))
	if err != nil {
		return err
	}

	if res.IdentityErr != nil {
		fmt.Fprintln(a.out, "Logged in, but your profile could not be loaded.")
	} else {
		a.setUserName(res.User.Username)
		fmt.Fprintf(a.out, "Welcome back, %s!\n", res.User.Username)
	}

	a.router.Request(guards.RouteArticles)
	return nil
}

func (a *App) signup(ctx context.Context, _ []string) error {
	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	res, err := a.authService.Register(ctx, username, email, string(password))
	if err != nil {
		return err
	}

	a.setUserName(res.Username)
	fmt.Fprintf(a.out, "Account created. Welcome, %s!\n", res.Username)

	a.router.Request(guards.RouteArticles)
	return nil
}

// Logout clears the persisted session and returns to the home screen.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		a.report(ctx, err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	a.router.Request(guards.RouteHome)
	return nil
}

// Status prints what is known about the persisted session.
func (a *App) Status(ctx context.Context) error {
	if !a.authService.IsAuthenticated(ctx) {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	fmt.Fprintln(a.out, "Logged in.")
	if id := a.store.CurrentUserID(ctx); id != 0 {
		fmt.Fprintf(a.out, "User id: %d\n", id)
	} else {
		fmt.Fprintln(a.out, "User id: not resolved")
	}

	claims, err := a.store.Claims(ctx)
	if err != nil {
		// opaque tokens carry no readable claims
		a.log.Debug(ctx, "token claims unavailable", "error", err)
		return nil
	}
	if claims.Subject != "" {
		fmt.Fprintf(a.out, "Subject: %s\n", claims.Subject)
	}
	if !claims.ExpiresAt.IsZero() {
		state := "valid"
		if claims.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(a.out, "Token expires: %s (%s)\n", claims.ExpiresAt.Format(time.RFC1123), state)
	}
	return nil
}
