package cli

import (
	"context"
	"fmt"
)

// themes prints the catalog. "subscribe <id>" and "unsubscribe <id>" act on
// a theme before the catalog is shown again.
func (a *App) themes(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case actionSubscribe:
			id, err := parseID(args, 1, actionSubscribe)
			if err != nil {
				return err
			}
			sub, err := a.themeService.Subscribe(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Subscribed to %s.\n", sub.Theme.Title)
		case actionUnsubscribe:
			id, err := parseID(args, 1, actionUnsubscribe)
			if err != nil {
				return err
			}
			if err := a.themeService.Unsubscribe(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Unsubscribed from theme %d.\n", id)
		}
	}

	catalog, err := a.themeService.Catalog(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Themes")
	if len(catalog) == 0 {
		fmt.Fprintln(a.out, "No themes available.")
		return nil
	}
	for _, t := range catalog {
		mark := " "
		if t.IsSubscribed {
			mark = "x"
		}
		fmt.Fprintf(a.out, "[%s] %d  %s\n", mark, t.ID, t.Title)
		if t.Description != "" {
			fmt.Fprintf(a.out, "        %s\n", t.Description)
		}
	}
	return nil
}
