package appctx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/oktotech/okto-go/internal/auth"
	"github.com/oktotech/okto-go/internal/config"
	"github.com/oktotech/okto-go/internal/output"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("OKTO_DEBUG", "")
	cfg := config.Default()
	cfg.Store = config.StoreMemory
	cfg.StateDir = t.TempDir()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.APIKey = "key"
	return cfg
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	app, err := NewApp(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	buf := &bytes.Buffer{}
	app.Stdout = buf
	app.Stderr = &bytes.Buffer{}
	app.Output = output.New(output.Options{Format: output.FormatJSON, Writer: buf})
	return app, buf
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)

	if app.Session == nil || app.Gateway == nil || app.Okto == nil {
		t.Fatal("SDK components not initialized")
	}
	if app.Bus == nil {
		t.Error("event bus not initialized")
	}
	if _, ok := app.KV.(*auth.MemoryKV); !ok {
		t.Errorf("KV = %T, want *auth.MemoryKV", app.KV)
	}
	if app.Okto.Poller().MaxAttempts() != config.DefaultJobMaxAttempts {
		t.Errorf("poller max attempts = %d", app.Okto.Poller().MaxAttempts())
	}
	if app.Session.IsLoggedIn() {
		t.Error("fresh memory store should be logged out")
	}
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = "floppy"

	_, err := NewApp(context.Background(), cfg)

	if err == nil || output.AsError(err).Code != output.CodeUsage {
		t.Errorf("expected usage error, got %v", err)
	}
}

func TestWithAppAndFromContext(t *testing.T) {
	app, _ := newTestApp(t)

	ctx := WithApp(context.Background(), app)

	if FromContext(ctx) != app {
		t.Error("FromContext did not retrieve the same app")
	}
	if FromContext(context.Background()) != nil {
		t.Error("expected nil from empty context")
	}
}

func TestApplyFlagsFormats(t *testing.T) {
	tests := []struct {
		name  string
		flags GlobalFlags
		want  output.Format
	}{
		{"json", GlobalFlags{JSON: true}, output.FormatJSON},
		{"quiet", GlobalFlags{Quiet: true}, output.FormatQuiet},
		{"count", GlobalFlags{Count: true}, output.FormatCount},
		{"styled", GlobalFlags{Styled: true}, output.FormatStyled},
		{"count wins over json", GlobalFlags{Count: true, JSON: true}, output.FormatCount},
		{"default", GlobalFlags{}, output.FormatAuto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			app.Flags = tt.flags
			if err := app.ApplyFlags(); err != nil {
				t.Fatal(err)
			}
			if got := app.Output.Format(); got != tt.want {
				t.Errorf("format = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFlagsInvalidJQ(t *testing.T) {
	app, _ := newTestApp(t)
	app.Flags.JQ = ".data["

	if err := app.ApplyFlags(); err == nil {
		t.Error("expected error for invalid --jq")
	}
}

func TestApplyFlagsVerbose(t *testing.T) {
	app, _ := newTestApp(t)
	app.Flags.Verbose = 2

	if err := app.ApplyFlags(); err != nil {
		t.Fatal(err)
	}
	if app.Hooks.Level() != 2 {
		t.Errorf("hooks level = %d, want 2", app.Hooks.Level())
	}
}

func TestApplyFlagsDebugEnv(t *testing.T) {
	app, _ := newTestApp(t)
	t.Setenv("OKTO_DEBUG", "true")

	if err := app.ApplyFlags(); err != nil {
		t.Fatal(err)
	}
	if app.Hooks.Level() != 2 {
		t.Errorf("hooks level = %d, want 2", app.Hooks.Level())
	}
}

func TestApplyFlagsStatsFromConfig(t *testing.T) {
	app, _ := newTestApp(t)
	on := true
	app.Config.Stats = &on

	if err := app.ApplyFlags(); err != nil {
		t.Fatal(err)
	}
	if !app.Flags.Stats {
		t.Error("config stats should enable --stats")
	}
}

func TestAppOKWithStats(t *testing.T) {
	app, buf := newTestApp(t)
	app.Flags.Stats = true

	if err := app.OK(map[string]string{"status": "ok"}); err != nil {
		t.Fatal(err)
	}

	var resp map[string]any
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	meta, ok := resp["meta"].(map[string]any)
	if !ok || meta["stats"] == nil {
		t.Errorf("expected stats in meta, got %v", resp)
	}
}

func TestAppErrPrintsStatsToStderr(t *testing.T) {
	app, _ := newTestApp(t)
	stderr := &bytes.Buffer{}
	app.Stderr = stderr
	app.Flags.Stats = true

	if err := app.Err(errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr.String(), "Stats: ") {
		t.Errorf("expected stats on stderr, got %q", stderr.String())
	}
}

func TestAppErrMachineOutputNoStats(t *testing.T) {
	app, _ := newTestApp(t)
	stderr := &bytes.Buffer{}
	app.Stderr = stderr
	app.Flags.Stats = true
	app.Flags.Quiet = true

	if err := app.Err(errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	if stderr.Len() != 0 {
		t.Errorf("quiet mode should not print stats, got %q", stderr.String())
	}
}

func TestIsInteractiveNonTTY(t *testing.T) {
	app, _ := newTestApp(t)

	if app.IsInteractive() {
		t.Error("buffer output should not be interactive")
	}
}

func TestGlobalFlagsOverrides(t *testing.T) {
	f := GlobalFlags{Env: "staging", APIKey: "k", BaseURL: "http://x", Store: "file"}

	o := f.Overrides()

	if o.Environment != "staging" || o.APIKey != "k" || o.BaseURL != "http://x" || o.Store != "file" {
		t.Errorf("unexpected overrides: %+v", o)
	}
}
