package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oktotech/okto-go/internal/appctx"
	"github.com/oktotech/okto-go/internal/output"
	"github.com/oktotech/okto-go/internal/tui"
)

// appFrom returns the app stored by the root command.
func appFrom(cmd *cobra.Command) (*appctx.App, error) {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return app, nil
}

// requireLogin fails fast with an auth error instead of letting the gateway
// send an unauthenticated request.
func requireLogin(app *appctx.App) error {
	if !app.Okto.IsLoggedIn() {
		return output.ErrAuth("Not authenticated")
	}
	return nil
}

// waitWithSpinner waits for a submitted job. On a terminal the wait runs
// behind a spinner drawn on stderr; otherwise it blocks silently.
func waitWithSpinner[T any](ctx context.Context, app *appctx.App, id string, wait func(context.Context, string) (*T, error)) (*T, error) {
	if !app.IsInteractive() {
		return wait(ctx, id)
	}

	styles := tui.NewStylesWithTheme(app.Okto.Theme())
	spin := tui.NewSpinner("Waiting for order "+id, app.Stderr, tui.WithSpinnerStyles(styles))

	var result *T
	_, err := spin.Run(ctx, func(ctx context.Context, status func(string)) (string, error) {
		r, err := wait(ctx, id)
		if err != nil {
			return "", err
		}
		result = r
		return "Order " + id + " finished", nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// confirmSubmit asks before moving funds when a person is at the terminal.
// Non-interactive runs and --yes skip the prompt.
func confirmSubmit(app *appctx.App, yes bool, title, description string) error {
	if yes || !app.IsInteractive() {
		return nil
	}
	ok, err := tui.Confirm(title, description, false)
	if err != nil {
		return err
	}
	if !ok {
		return output.ErrUsage("Canceled")
	}
	return nil
}

// parseAssignments splits key=value arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, output.ErrUsageHint(fmt.Sprintf("Invalid assignment %q", arg), "Use key=value")
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// statusSummary describes a finished order.
func statusSummary(kind, id, status string) string {
	if status == "" {
		return fmt.Sprintf("%s %s recorded", kind, id)
	}
	return fmt.Sprintf("%s %s: %s", kind, id, status)
}

// orderBreadcrumbs points at the follow-up lookup for an order id.
func orderBreadcrumbs(lookup, id string) []output.Breadcrumb {
	return []output.Breadcrumb{
		{
			Action:      "status",
			Cmd:         fmt.Sprintf("okto %s --order-id %s", lookup, id),
			Description: "Check order status",
		},
	}
}

// readAll reads piped input such as --tx -.
func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, output.ErrUsage("No input on stdin")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}
