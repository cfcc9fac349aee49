package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mddclient/internal/client/models"
)

// me shows the profile and the followed themes. "me edit" prompts for new
// values first; empty answers keep the current ones.
func (a *App) me(ctx context.Context, args []string) error {
	user, err := a.userService.Profile(ctx)
	if err != nil {
		return err
	}
	a.setUserName(user.Username)

	if len(args) > 0 && args[0] == actionEdit {
		user, err = a.editProfile(ctx, user)
		if err != nil {
			return err
		}
		a.setUserName(user.Username)
		fmt.Fprintln(a.out, "Profile updated.")
	}

	fmt.Fprintln(a.out, "Profile")
	fmt.Fprintf(a.out, "  Username: %s\n", user.Username)
	fmt.Fprintf(a.out, "  Email:    %s\n", user.Email)

	subs, err := a.themeService.Subscriptions(ctx)
	if err != nil {
		// the profile is still useful without the list
		a.log.Warn(ctx, "subscriptions not loaded", "error", err)
		fmt.Fprintln(a.out, "Subscriptions could not be loaded.")
		return nil
	}

	fmt.Fprintf(a.out, "Subscriptions (%d)\n", len(subs))
	for _, s := range subs {
		fmt.Fprintf(a.out, "  %d  %s: %s\n", s.Theme.ID, s.Theme.Title, s.Theme.Description)
	}
	return nil
}

func (a *App) editProfile(ctx context.Context, current *models.User) (*models.User, error) {
	username, err := getSimpleText(a.reader, fmt.Sprintf("Username [%s]", current.Username), a.out)
	if err != nil {
		return nil, err
	}
	if username == "" {
		username = current.Username
	}

	email, err := getSimpleText(a.reader, fmt.Sprintf("Email [%s]", current.Email), a.out)
	if err != nil {
		return nil, err
	}
	if email == "" {
		email = current.Email
	}

	fmt.Fprintln(a.out, "New password (leave empty to keep the current one)")
	password, err := getPassword(a.out)
	if err != nil {
		return nil, err
	}
	defer wipe(password)

	return a.userService.Update(ctx, models.UserProfileUpdate{
		Username: username,
		Email:    email,
		Password: string(password),
	})
}
