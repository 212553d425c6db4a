package commands

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oktotech/okto-go/internal/appctx"
	"github.com/oktotech/okto-go/internal/auth"
	"github.com/oktotech/okto-go/internal/bridge"
	"github.com/oktotech/okto-go/internal/events"
	"github.com/oktotech/okto-go/internal/okto"
	"github.com/oktotech/okto-go/internal/output"
	"github.com/oktotech/okto-go/internal/tui"
)

// NewWidgetCmd creates the widget command group.
func NewWidgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Drive the hosted onboarding page and wallet widget",
		Long: `The onboarding page and wallet widget are web pages hosted by Okto.
A host embeds them and forwards their messages to "okto widget relay".`,
	}
	cmd.AddCommand(newWidgetURLCmd(), newWidgetRelayCmd())
	return cmd
}

func newWidgetURLCmd() *cobra.Command {
	var onboarding, reveal bool
	var authType string
	var brand okto.BrandData

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Show the page URL and the data to inject",
		Long: `Print the URL of the wallet widget (or onboarding page with --onboarding)
and the data the host injects once the page loads. The request is also
published on the event bus.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if !onboarding {
				if err := requireLogin(app); err != nil {
					return err
				}
				ev := app.Okto.WidgetEvent()
				if err := app.Okto.ShowWidgetModal(cmd.Context()); err != nil {
					return err
				}
				if inj, ok := ev.Data.(okto.WidgetInjection); ok && !reveal {
					inj.AuthToken = (&auth.Credential{AuthToken: inj.AuthToken}).Redacted().AuthToken
					ev.Data = inj
				}
				return app.OK(ev, output.WithSummary(ev.URL))
			}

			primary, err := resolveAuthType(app, authType)
			if err != nil {
				return err
			}
			ev := app.Okto.OnboardingEvent(primary, brand)
			if err := app.Okto.ShowOnboardingModal(cmd.Context(), primary, brand); err != nil {
				return err
			}
			return app.OK(ev,
				output.WithSummary(ev.URL),
				output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "relay",
					Cmd:         "okto widget relay",
					Description: "Forward page messages",
				}),
			)
		},
	}

	cmd.Flags().BoolVar(&onboarding, "onboarding", false, "Show the onboarding page instead of the widget")
	cmd.Flags().StringVar(&authType, "auth-type", "", "Primary login method: Phone, Email or GAuth")
	cmd.Flags().StringVar(&brand.Title, "title", "", "Onboarding brand title")
	cmd.Flags().StringVar(&brand.Subtitle, "subtitle", "", "Onboarding brand subtitle")
	cmd.Flags().StringVar(&brand.IconURL, "icon-url", "", "Onboarding brand icon URL")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Include the full auth token in widget data")

	return cmd
}

// resolveAuthType parses --auth-type, asking on a terminal when it is unset.
func resolveAuthType(app *appctx.App, value string) (okto.AuthType, error) {
	if value == "" && app.IsInteractive() {
		picked, err := tui.Select("Primary login method", []tui.SelectOption{
			{Value: string(okto.AuthEmail), Label: "Email"},
			{Value: string(okto.AuthPhone), Label: "Phone"},
			{Value: string(okto.AuthGAuth), Label: "Google"},
		})
		if err != nil {
			return "", err
		}
		value = picked
	}
	if value == "" {
		return okto.AuthEmail, nil
	}
	t, err := okto.ParseAuthType(value)
	if err != nil {
		return "", output.ErrUsage(err.Error())
	}
	return t, nil
}

func newWidgetRelayCmd() *cobra.Command {
	var googleIDToken string
	var streamEvents bool

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Handle messages posted by the hosted pages",
		Long: `Read page messages as JSON lines on stdin and write replies as JSON lines
on stdout. auth_success installs the posted credentials; go_back closes the page.

With --events, session and UI events are written to stdout as well.
When credentials are kept in a file, changes made by other processes are
picked up while the relay runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			opts := []bridge.Option{
				bridge.WithLogger(app.Logger),
				bridge.WithCloser(app.Okto.CloseModal),
			}
			if googleIDToken != "" {
				opts = append(opts, bridge.WithGoogleAuth(func(context.Context) (string, error) {
					return googleIDToken, nil
				}))
			}
			handler := bridge.NewHandler(app.Session, opts...)

			out := &lockedWriter{w: app.Stdout}
			g, ctx := errgroup.WithContext(cmd.Context())
			ctx, stop := context.WithCancel(ctx)
			defer stop()

			if streamEvents {
				if err := relayEvents(ctx, g, app.Bus, out); err != nil {
					return err
				}
			}
			if fkv, ok := app.KV.(*auth.FileKV); ok {
				g.Go(func() error { return auth.WatchFile(ctx, app.Session, fkv) })
			}
			g.Go(func() error {
				// Input closed: stop the watchers too.
				defer stop()
				return handler.Serve(ctx, app.Stdin, out)
			})

			if err := g.Wait(); err != nil && cmd.Context().Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&googleIDToken, "google-id-token", "", "ID token to answer g_auth requests with")
	cmd.Flags().BoolVar(&streamEvents, "events", false, "Also write session and UI events to stdout")

	return cmd
}

// relayEvent is one event line written by relay --events.
type relayEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func relayEvents(ctx context.Context, g *errgroup.Group, bus *events.Bus, w io.Writer) error {
	sessions, err := bus.SubscribeSession(ctx)
	if err != nil {
		return err
	}
	ui, err := bus.SubscribeUI(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	g.Go(func() error {
		for sessions != nil || ui != nil {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-sessions:
				if !ok {
					sessions = nil
					continue
				}
				if err := enc.Encode(relayEvent{Event: "session", Data: ev}); err != nil {
					return err
				}
			case ev, ok := <-ui:
				if !ok {
					ui = nil
					continue
				}
				if err := enc.Encode(relayEvent{Event: "ui", Data: ev}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return nil
}

// lockedWriter serializes whole-line writes from the reply and event writers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
