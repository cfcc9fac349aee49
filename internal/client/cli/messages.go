package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/mddclient/internal/client/client"
	"github.com/dmitrijs2005/mddclient/internal/client/guards"
	"github.com/dmitrijs2005/mddclient/internal/client/services"
)

var errUsage = errors.New("usage")

// userMessage turns an error into the line shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return err.Error()
	case errors.Is(err, client.ErrCredentials):
		return "Invalid credentials."
	case errors.Is(err, services.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, services.ErrUnknownUser):
		return "Your profile is not loaded yet. Run 'me' or log in again."
	case errors.Is(err, services.ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, client.ErrUnauthorized):
		return "Your session was rejected by the server."
	case errors.Is(err, client.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, client.ErrNotFound):
		return "Not found."
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, try again later."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, guards.ErrRedirectLoop):
		return "Navigation failed."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func (a *App) report(ctx context.Context, err error) {
	if errors.Is(err, errUsage) || errors.Is(err, services.ErrInvalidInput) {
		a.log.Debug(ctx, "rejected input", "error", err)
	} else {
		a.log.Error(ctx, "command failed", "error", err)
	}
	fmt.Fprintln(a.out, userMessage(err))
}

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

// parseID reads a positive numeric id from args[i].
func parseID(args []string, i int, cmd string) (int64, error) {
	if len(args) <= i {
		return 0, usage("%s <id>", cmd)
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, usage("%s <id>, got %q", cmd, args[i])
	}
	return id, nil
}
