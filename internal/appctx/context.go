// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/google/uuid"

	"github.com/oktotech/okto-go/internal/api"
	"github.com/oktotech/okto-go/internal/auth"
	"github.com/oktotech/okto-go/internal/config"
	"github.com/oktotech/okto-go/internal/events"
	"github.com/oktotech/okto-go/internal/jobs"
	"github.com/oktotech/okto-go/internal/observability"
	"github.com/oktotech/okto-go/internal/okto"
	"github.com/oktotech/okto-go/internal/output"
	"github.com/oktotech/okto-go/internal/resilience"
	"github.com/oktotech/okto-go/internal/sdk"
	"github.com/oktotech/okto-go/internal/version"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config  *config.Config
	KV      sdk.KV
	Session *auth.Session
	Gateway *api.Client
	Okto    *okto.Client
	Bus     *events.Bus
	Output  *output.Writer
	Logger  *slog.Logger

	// Observability
	Collector *observability.SessionCollector
	Hooks     *observability.CLIHooks

	// Flags holds the global flag values
	Flags GlobalFlags

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logLevel  *slog.LevelVar
	unforward func()
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Output format flags
	JSON   bool
	Quiet  bool
	Styled bool
	Count  bool
	JQ     string

	// Connection flags
	Env     string
	APIKey  string
	BaseURL string
	Store   string

	// Behavior flags
	Verbose int // 0=off, 1=operations, 2=operations+requests (stacks with -v -v or -vv)
	Stats   bool
}

// Overrides returns the flag values that take precedence over configuration.
func (f GlobalFlags) Overrides() config.FlagOverrides {
	return config.FlagOverrides{
		Environment: f.Env,
		BaseURL:     f.BaseURL,
		APIKey:      f.APIKey,
		Store:       f.Store,
	}
}

// NewApp wires the SDK for cfg: credential store, session, gateway, poller,
// event bus and facade. The persisted credential, if any, is restored.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, output.ErrUsage(err.Error())
	}

	kv, err := auth.OpenKV(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Warnings and errors only until ApplyFlags reads -v
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Collector always runs to gather stats; hooks control trace verbosity
	collector := observability.NewSessionCollector()
	hooks := observability.NewCLIHooks(0, collector, observability.NewTraceWriter())

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	baseURL := cfg.ResolvedBaseURL()

	session := auth.NewSession(baseURL, cfg.APIKey, auth.NewCredentialStore(kv),
		auth.WithHTTPClient(httpClient),
		auth.WithUserAgent(version.UserAgent()),
		auth.WithLogger(logger),
		auth.WithRefreshHook(func(d time.Duration, err error) {
			hooks.OnRefresh(context.Background(), err, d)
		}),
	)

	gatewayOpts := []api.Option{
		api.WithHTTPClient(httpClient),
		api.WithHooks(hooks),
		api.WithUserAgent(version.UserAgent()),
		api.WithLogger(logger),
	}
	if cfg.Resilience {
		store := resilience.NewStore(cfg.StateDir)
		gatewayOpts = append(gatewayOpts, api.WithGuard(resilience.NewGuardFromConfig(store, resilience.DefaultConfig())))
	}
	gateway := api.NewClient(baseURL, cfg.APIKey, session, gatewayOpts...)

	bus, err := openBus(kv, logger)
	if err != nil {
		closeKV(kv)
		return nil, err
	}

	theme, err := okto.LoadTheme(ctx, kv)
	if err != nil {
		logger.Warn("ignoring stored theme", "error", err)
	}

	poller := jobs.New(cfg.JobInterval, cfg.JobMaxAttempts, jobs.WithLogger(logger), jobs.WithHooks(hooks))
	client := okto.New(session, gateway,
		okto.WithPoller(poller),
		okto.WithBus(bus),
		okto.WithEnvironment(cfg.Environment),
		okto.WithAPIKey(cfg.APIKey),
		okto.WithTheme(theme),
		okto.WithLogger(logger),
	)

	app := &App{
		Config:    cfg,
		KV:        kv,
		Session:   session,
		Gateway:   gateway,
		Okto:      client,
		Bus:       bus,
		Logger:    logger,
		Collector: collector,
		Hooks:     hooks,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		logLevel:  level,
		unforward: bus.ForwardSession(session),
	}
	app.Output = output.New(output.Options{
		Format: output.ParseFormat(cfg.Format),
		Writer: app.Stdout,
	})

	if err := session.Restore(ctx); err != nil {
		logger.Warn("failed to restore session", "error", err)
	}
	return app, nil
}

// openBus shares events through Redis streams when credentials live in
// Redis, so every process on that store sees the same session.
func openBus(kv sdk.KV, logger *slog.Logger) (*events.Bus, error) {
	rkv, ok := kv.(*auth.RedisKV)
	if !ok {
		return events.NewInMemoryBus(logger), nil
	}
	bus, err := events.NewRedisBus(rkv.Client(), "okto-cli-"+uuid.NewString(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open event bus: %w", err)
	}
	return bus, nil
}

// ApplyFlags applies global flag values to the app configuration.
func (a *App) ApplyFlags() error {
	format := output.ParseFormat(a.Config.Format)
	switch {
	case a.Flags.Count:
		format = output.FormatCount
	case a.Flags.Quiet:
		format = output.FormatQuiet
	case a.Flags.JSON:
		format = output.FormatJSON
	case a.Flags.Styled:
		format = output.FormatStyled
	}

	opts := output.Options{Format: format, Writer: a.Stdout}
	if a.Flags.JQ != "" {
		code, err := output.CompileJQ(a.Flags.JQ)
		if err != nil {
			return err
		}
		opts.JQ = code
	}
	a.Output = output.New(opts)

	// Determine verbosity level from flags, config and OKTO_DEBUG
	verboseLevel := a.Flags.Verbose
	if verboseLevel == 0 && a.Config.Verbose != nil {
		verboseLevel = *a.Config.Verbose
	}
	if debugEnv := os.Getenv("OKTO_DEBUG"); debugEnv != "" {
		// OKTO_DEBUG can be "1", "2", or "true" (treated as 2 for full debug)
		if level, err := strconv.Atoi(debugEnv); err == nil {
			if level > verboseLevel {
				verboseLevel = level
			}
		} else if debugEnv == "true" {
			verboseLevel = 2
		}
	}

	if a.Hooks != nil {
		a.Hooks.SetLevel(verboseLevel)
	}
	if a.logLevel != nil {
		switch {
		case verboseLevel >= 2:
			a.logLevel.Set(slog.LevelDebug)
		case verboseLevel == 1:
			a.logLevel.Set(slog.LevelInfo)
		}
	}

	if !a.Flags.Stats && a.Config.Stats != nil {
		a.Flags.Stats = *a.Config.Stats
	}
	return nil
}

// Close releases the event bus.
func (a *App) Close() error {
	if a.unforward != nil {
		a.unforward()
	}
	var err error
	if a.Bus != nil {
		err = a.Bus.Close()
	}
	closeKV(a.KV)
	return err
}

// closeKV releases backends that hold connections, such as Redis.
func closeKV(kv sdk.KV) {
	if c, ok := kv.(io.Closer); ok {
		_ = c.Close()
	}
}

// OK outputs a success response, automatically including stats if --stats flag is set.
func (a *App) OK(data any, opts ...output.ResponseOption) error {
	if a.Flags.Stats && a.Collector != nil {
		stats := a.Collector.Summary()
		opts = append(opts, output.WithStats(&stats))
	}
	return a.Output.OK(data, opts...)
}

// Err outputs an error response, printing stats to stderr if --stats flag is set.
func (a *App) Err(err error) error {
	if outputErr := a.Output.Err(err); outputErr != nil {
		return outputErr
	}

	// Machine-consumable modes keep stderr clean
	if a.Flags.Stats && a.Collector != nil && !a.isMachineOutput() {
		stats := a.Collector.Summary()
		if parts := stats.FormatParts(); len(parts) > 0 {
			fmt.Fprintf(a.stderr(), "\nStats: %s\n", strings.Join(parts, " | "))
		}
	}
	return nil
}

// isMachineOutput returns true if the output mode is intended for programmatic consumption.
func (a *App) isMachineOutput() bool {
	if a.Flags.Quiet || a.Flags.Count || a.Flags.JQ != "" {
		return true
	}
	return a.Config != nil && (a.Config.Format == "quiet" || a.Config.Format == "count")
}

func (a *App) stderr() io.Writer {
	if a.Stderr != nil {
		return a.Stderr
	}
	return os.Stderr
}

// IsInteractive returns true if the terminal supports prompts and spinners.
func (a *App) IsInteractive() bool {
	if a.Flags.JSON || a.Flags.Quiet || a.Flags.Count || a.Flags.JQ != "" {
		return false
	}
	f, ok := a.Stdout.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
