package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktotech/okto-go/internal/appctx"
	"github.com/oktotech/okto-go/internal/auth"
	"github.com/oktotech/okto-go/internal/config"
	"github.com/oktotech/okto-go/internal/okto"
	"github.com/oktotech/okto-go/internal/output"
)

type route func(w http.ResponseWriter, r *http.Request)

// fakeOkto is an httptest server answering Okto API paths.
type fakeOkto struct {
	srv *httptest.Server

	mu     sync.Mutex
	counts map[string]int
	last   map[string]*http.Request
	bodies map[string][]byte
}

func newFakeOkto(t *testing.T, routes map[string]route) *fakeOkto {
	t.Helper()
	f := &fakeOkto{counts: map[string]int{}, last: map[string]*http.Request{}, bodies: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.counts[r.URL.Path]++
		f.last[r.URL.Path] = r.Clone(context.Background())
		f.bodies[r.URL.Path] = body
		f.mu.Unlock()

		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeOkto) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[path]
}

func (f *fakeOkto) request(path string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[path]
}

func (f *fakeOkto) body(path string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[path]
}

func envelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
}

// setupTestApp builds an app on a memory store that talks to f.
func setupTestApp(t *testing.T, f *fakeOkto) (*appctx.App, *bytes.Buffer) {
	t.Helper()
	t.Setenv("OKTO_DEBUG", "")

	cfg := config.Default()
	cfg.Store = config.StoreMemory
	cfg.StateDir = t.TempDir()
	cfg.APIKey = "test-key"
	cfg.BaseURL = "http://127.0.0.1:1"
	if f != nil {
		cfg.BaseURL = f.srv.URL
	}
	cfg.JobInterval = time.Millisecond
	cfg.JobMaxAttempts = 5

	app, err := appctx.NewApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	buf := &bytes.Buffer{}
	app.Stdout = buf
	app.Stderr = &bytes.Buffer{}
	app.Stdin = strings.NewReader("")
	app.Output = output.New(output.Options{Format: output.FormatJSON, Writer: buf})
	return app, buf
}

func login(t *testing.T, app *appctx.App) {
	t.Helper()
	require.NoError(t, app.Session.Adopt(context.Background(), &auth.Credential{
		AuthToken:    "access-token-0123456789",
		RefreshToken: "refresh-token-0123456789",
		DeviceToken:  "device-token-0123456789",
	}))
}

// executeCommand executes a cobra command with the given args.
func executeCommand(cmd *cobra.Command, app *appctx.App, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetContext(appctx.WithApp(context.Background(), app))

	// Suppress cobra's own output during tests
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	return cmd.Execute()
}

type envelopeOut struct {
	OK      bool           `json:"ok"`
	Data    map[string]any `json:"data"`
	Summary string         `json:"summary"`
}

func decode(t *testing.T, buf *bytes.Buffer) envelopeOut {
	t.Helper()
	var out envelopeOut
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())
	return out
}

func errorCode(err error) string {
	return output.AsError(err).Code
}

func TestWalletCommandsRequireAuth(t *testing.T) {
	for _, tc := range []struct {
		name string
		cmd  func() *cobra.Command
	}{
		{"portfolio", NewPortfolioCmd},
		{"tokens", NewTokensCmd},
		{"networks", NewNetworksCmd},
		{"me", NewMeCmd},
		{"wallets", NewWalletsCmd},
		{"orders", NewOrdersCmd},
	} {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := setupTestApp(t, nil)

			err := executeCommand(tc.cmd(), app)

			require.Error(t, err)
			assert.Equal(t, output.CodeAuth, errorCode(err))
		})
	}
}

func TestPortfolioSummarizesHoldings(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathPortfolio: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]any{
				"total": 2,
				"tokens": []map[string]string{
					{"token_name": "ETH", "network_name": "POLYGON", "quantity": "0.5", "amount_in_inr": "100.25"},
					{"token_name": "MATIC", "network_name": "POLYGON", "quantity": "12", "amount_in_inr": "20.5"},
				},
			})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)

	require.NoError(t, executeCommand(NewPortfolioCmd(), app))

	out := decode(t, buf)
	assert.True(t, out.OK)
	assert.Equal(t, "2 holdings, ₹120.75 total", out.Summary)
	assert.Len(t, out.Data["tokens"], 2)
	assert.Equal(t, "Bearer access-token-0123456789", f.request(okto.PathPortfolio).Header.Get("Authorization"))
}

func TestWalletsCreate(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathWallet: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]any{"wallets": []map[string]any{
				{"network_name": "POLYGON", "address": "0xabc", "success": true},
			}})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)

	require.NoError(t, executeCommand(NewWalletsCmd(), app, "create"))

	assert.Equal(t, http.MethodPost, f.request(okto.PathWallet).Method)
	assert.Equal(t, "1 wallets", decode(t, buf).Summary)
}

func TestOrdersPassesFilters(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathOrders: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]any{"total": 3, "jobs": []map[string]string{
				{"order_id": "o-1", "status": "SUCCESS"},
			}})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)

	require.NoError(t, executeCommand(NewOrdersCmd(), app, "--state", "success", "--limit", "1", "--offset", "2"))

	q := f.request(okto.PathOrders).URL.Query()
	assert.Equal(t, "SUCCESS", q.Get("order_state"))
	assert.Equal(t, "1", q.Get("limit"))
	assert.Equal(t, "2", q.Get("offset"))
	assert.Equal(t, "1 of 3 orders", decode(t, buf).Summary)
}

func TestOrdersUnknownIDIsNotFound(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathOrders: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]any{"total": 0, "jobs": []any{}})
		},
	})
	app, _ := setupTestApp(t, f)
	login(t, app)

	err := executeCommand(NewOrdersCmd(), app, "--order-id", "missing")

	require.Error(t, err)
	assert.Equal(t, output.CodeNotFound, errorCode(err))
}

func TestOrdersRejectsNegativePaging(t *testing.T) {
	app, _ := setupTestApp(t, nil)
	login(t, app)

	err := executeCommand(NewOrdersCmd(), app, "--limit", "-1")

	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, errorCode(err))
}

func TestTransferTokensSubmitsWithoutWaiting(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathTransferTokens: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]string{"orderId": "o-9"})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)

	require.NoError(t, executeCommand(NewTransferCmd(), app,
		"tokens", "--network", "POLYGON", "--token", "0xtoken", "--quantity", "1.5", "--to", "0xdest"))

	var sent okto.TransferTokens
	require.NoError(t, json.Unmarshal(f.body(okto.PathTransferTokens), &sent))
	assert.Equal(t, okto.TransferTokens{
		NetworkName: "POLYGON", TokenAddress: "0xtoken", Quantity: "1.5", RecipientAddress: "0xdest",
	}, sent)
	assert.Equal(t, 0, f.count(okto.PathOrders))

	out := decode(t, buf)
	assert.Equal(t, "o-9", out.Data["orderId"])
	assert.Equal(t, "Transfer submitted as order o-9", out.Summary)
}

func TestTransferTokensWaitPollsUntilTerminal(t *testing.T) {
	var polls int
	var mu sync.Mutex
	f := newFakeOkto(t, map[string]route{
		okto.PathTransferTokens: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]string{"orderId": "o-1"})
		},
		okto.PathOrders: func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			polls++
			status := "PENDING"
			if polls >= 3 {
				status = "SUCCESS"
			}
			mu.Unlock()
			envelope(w, map[string]any{"total": 1, "jobs": []map[string]string{
				{"order_id": "o-1", "status": status, "transaction_hash": "0xhash"},
			}})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)

	require.NoError(t, executeCommand(NewTransferCmd(), app,
		"tokens", "--network", "POLYGON", "--quantity", "2", "--to", "0xdest", "--wait"))

	assert.Equal(t, 3, f.count(okto.PathOrders))
	out := decode(t, buf)
	assert.Equal(t, "SUCCESS", out.Data["status"])
	assert.Equal(t, "Order o-1: SUCCESS", out.Summary)
}

func TestTransferTokensWaitTimesOut(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathTransferTokens: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]string{"orderId": "o-1"})
		},
		okto.PathOrders: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]any{"total": 1, "jobs": []map[string]string{
				{"order_id": "o-1", "status": "PENDING"},
			}})
		},
	})
	app, _ := setupTestApp(t, f)
	login(t, app)

	err := executeCommand(NewTransferCmd(), app,
		"tokens", "--network", "POLYGON", "--quantity", "2", "--to", "0xdest", "--wait")

	require.Error(t, err)
	assert.Equal(t, output.CodeJobTimeout, errorCode(err))
	assert.Equal(t, output.ExitJobTimeout, output.AsError(err).ExitCode())
	assert.Equal(t, 5, f.count(okto.PathOrders))
}

func TestTransferTokensRejectsBadQuantity(t *testing.T) {
	f := newFakeOkto(t, map[string]route{})
	app, _ := setupTestApp(t, f)
	login(t, app)

	err := executeCommand(NewTransferCmd(), app,
		"tokens", "--network", "POLYGON", "--quantity", "lots", "--to", "0xdest")

	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, errorCode(err))
	assert.Equal(t, 0, f.count(okto.PathTransferTokens))
}

func TestTransferNftWaitsForDetails(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathTransferNft: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]string{"order_id": "n-1"})
		},
		okto.PathNftOrderDetails: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]any{"count": 1, "nfts": []map[string]string{
				{"id": "n-1", "nft_name": "Punk", "collection_name": "Punks"},
			}})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)

	require.NoError(t, executeCommand(NewTransferCmd(), app,
		"nft", "--network", "POLYGON", "--collection-address", "0xcol", "--collection-name", "Punks",
		"--to", "0xdest", "--nft-address", "7", "--operation-type", "NFT_TRANSFER", "--wait"))

	var sent okto.TransferNft
	require.NoError(t, json.Unmarshal(f.body(okto.PathTransferNft), &sent))
	assert.Equal(t, "1", sent.Quantity)
	assert.Equal(t, "NFT_TRANSFER", sent.OperationType)
	assert.Equal(t, "n-1", f.request(okto.PathNftOrderDetails).URL.Query().Get("order_id"))

	out := decode(t, buf)
	assert.Equal(t, "Punk", out.Data["nft_name"])
	assert.Equal(t, "NFT order n-1 recorded", out.Summary)
}

func TestRawTxExecuteReadsStdin(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathRawTxExecute: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]string{"jobId": "j-1"})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)
	app.Stdin = strings.NewReader(`{"from":"0xa","to":"0xb","value":"0x1"}` + "\n")

	require.NoError(t, executeCommand(NewRawTxCmd(), app, "execute", "--network", "POLYGON", "--tx", "-"))

	var sent struct {
		NetworkName string         `json:"network_name"`
		Transaction map[string]any `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(f.body(okto.PathRawTxExecute), &sent))
	assert.Equal(t, "POLYGON", sent.NetworkName)
	assert.Equal(t, "0xb", sent.Transaction["to"])
	assert.Equal(t, "j-1", decode(t, buf).Data["jobId"])
}

func TestRawTxExecuteRejectsInvalidJSON(t *testing.T) {
	f := newFakeOkto(t, map[string]route{})
	app, _ := setupTestApp(t, f)
	login(t, app)

	err := executeCommand(NewRawTxCmd(), app, "execute", "--network", "POLYGON", "--tx", "{not json")

	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, errorCode(err))
	assert.Equal(t, 0, f.count(okto.PathRawTxExecute))
}

func TestRawTxStatus(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		okto.PathRawTxStatus: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]any{"total": 1, "jobs": []map[string]string{
				{"order_id": "j-1", "status": "FAILED"},
			}})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)

	require.NoError(t, executeCommand(NewRawTxCmd(), app, "status", "--order-id", "j-1"))

	assert.Equal(t, "j-1", f.request(okto.PathRawTxStatus).URL.Query().Get("order_id"))
	assert.Equal(t, "Transaction j-1: FAILED", decode(t, buf).Summary)
}

func TestAuthLoginWithIDToken(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		auth.PathAuthenticate: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]string{
				"auth_token": "new-access-token", "refresh_auth_token": "new-refresh-token", "device_token": "new-device-token",
			})
		},
	})
	app, buf := setupTestApp(t, f)

	require.NoError(t, executeCommand(NewAuthCmd(), app, "login", "--id-token", "google-id"))

	assert.True(t, app.Session.IsLoggedIn())
	assert.JSONEq(t, `{"id_token":"google-id"}`, string(f.body(auth.PathAuthenticate)))

	out := decode(t, buf)
	assert.Equal(t, "Logged in", out.Summary)
	assert.Equal(t, "memory", out.Data["store"])
	assert.NotContains(t, buf.String(), "new-access-token")
}

func TestAuthLoginNeedsTokenWhenNotInteractive(t *testing.T) {
	app, _ := setupTestApp(t, nil)

	err := executeCommand(NewAuthCmd(), app, "login")

	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, errorCode(err))
}

func TestAuthLoginJWTRequiresUserID(t *testing.T) {
	app, _ := setupTestApp(t, nil)

	err := executeCommand(NewAuthCmd(), app, "login-jwt", "--jwt", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user-id")
}

func TestAuthStatus(t *testing.T) {
	app, buf := setupTestApp(t, nil)

	require.NoError(t, executeCommand(NewAuthCmd(), app, "status"))
	out := decode(t, buf)
	assert.Equal(t, false, out.Data["authenticated"])
	assert.Equal(t, "Not authenticated", out.Summary)

	buf.Reset()
	login(t, app)
	require.NoError(t, executeCommand(NewAuthCmd(), app, "status"))
	out = decode(t, buf)
	assert.Equal(t, true, out.Data["authenticated"])
	assert.Equal(t, "access…", out.Data["auth_token"])
	assert.Equal(t, "SANDBOX", out.Data["environment"])
}

func TestAuthLogout(t *testing.T) {
	app, buf := setupTestApp(t, nil)
	login(t, app)

	require.NoError(t, executeCommand(NewAuthCmd(), app, "logout"))

	assert.False(t, app.Session.IsLoggedIn())
	assert.Equal(t, "logged_out", decode(t, buf).Data["status"])
}

func TestAuthRefresh(t *testing.T) {
	f := newFakeOkto(t, map[string]route{
		auth.PathRefreshToken: func(w http.ResponseWriter, r *http.Request) {
			envelope(w, map[string]string{
				"auth_token": "rotated-access", "refresh_auth_token": "rotated-refresh", "device_token": "rotated-device",
			})
		},
	})
	app, buf := setupTestApp(t, f)
	login(t, app)

	require.NoError(t, executeCommand(NewAuthCmd(), app, "refresh"))

	assert.Equal(t, "rotated-access", app.Session.Current().AuthToken)
	assert.Equal(t, "Token refreshed", decode(t, buf).Summary)
}

func TestThemeSetPersists(t *testing.T) {
	app, buf := setupTestApp(t, nil)

	require.NoError(t, executeCommand(NewThemeCmd(), app, "set", "accent1Color=0xFF00C2A8"))

	assert.Equal(t, "0xFF00C2A8", app.Okto.Theme().Accent1Color)
	assert.Equal(t, okto.DefaultTheme().SurfaceColor, app.Okto.Theme().SurfaceColor)

	stored, err := okto.LoadTheme(context.Background(), app.KV)
	require.NoError(t, err)
	assert.Equal(t, "0xFF00C2A8", stored.Accent1Color)
	assert.Equal(t, "0xFF00C2A8", decode(t, buf).Data["accent1Color"])
}

func TestThemeSetRejectsBadInput(t *testing.T) {
	for _, arg := range []string{"accent1Color=purple", "nope=0xFF000000", "accent1Color"} {
		t.Run(arg, func(t *testing.T) {
			app, _ := setupTestApp(t, nil)

			err := executeCommand(NewThemeCmd(), app, "set", arg)

			require.Error(t, err)
			assert.Equal(t, output.CodeUsage, errorCode(err))
		})
	}
}

func TestThemeReset(t *testing.T) {
	app, _ := setupTestApp(t, nil)
	require.NoError(t, executeCommand(NewThemeCmd(), app, "set", "backgroundColor=0xFF111111"))

	require.NoError(t, executeCommand(NewThemeCmd(), app, "reset"))

	assert.Equal(t, okto.DefaultTheme(), app.Okto.Theme())
	_, ok, err := app.KV.Get(context.Background(), okto.ThemeKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWidgetURLRedactsToken(t *testing.T) {
	app, buf := setupTestApp(t, nil)
	login(t, app)

	require.NoError(t, executeCommand(NewWidgetCmd(), app, "url"))

	out := decode(t, buf)
	assert.Equal(t, "show_widget", out.Data["kind"])
	assert.Equal(t, config.Sandbox.WidgetURL(), out.Data["url"])
	data := out.Data["data"].(map[string]any)
	assert.Equal(t, "access…", data["authToken"])
	assert.Equal(t, okto.DefaultTheme().Accent1Color, data["accent1Color"])
}

func TestWidgetURLOnboarding(t *testing.T) {
	app, buf := setupTestApp(t, nil)

	require.NoError(t, executeCommand(NewWidgetCmd(), app,
		"url", "--onboarding", "--auth-type", "phone", "--title", "Acme"))

	out := decode(t, buf)
	assert.Equal(t, "show_onboarding", out.Data["kind"])
	data := out.Data["data"].(map[string]any)
	assert.Equal(t, "Phone", data["primaryAuthType"])
	assert.Equal(t, "Acme", data["brandTitle"])
	assert.Equal(t, "test-key", data["API_KEY"])
}

func TestWidgetURLRejectsUnknownAuthType(t *testing.T) {
	app, _ := setupTestApp(t, nil)

	err := executeCommand(NewWidgetCmd(), app, "url", "--onboarding", "--auth-type", "fax")

	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, errorCode(err))
}

func TestWidgetRelayInstallsCredentials(t *testing.T) {
	app, buf := setupTestApp(t, nil)
	app.Stdin = strings.NewReader(strings.Join([]string{
		`{"type":"auth_success","data":{"auth_token":"page-access","refresh_auth_token":"page-refresh","device_token":"page-device"}}`,
		`{"type":"g_auth"}`,
		`{"type":"unknown"}`,
		"",
	}, "\n"))

	require.NoError(t, executeCommand(NewWidgetCmd(), app, "relay", "--google-id-token", "gid-1"))

	assert.True(t, app.Session.IsLoggedIn())
	assert.Equal(t, "page-access", app.Session.Current().AuthToken)
	assert.JSONEq(t, `{"type":"g_auth","data":"gid-1"}`, strings.TrimSpace(buf.String()))
}

func TestConfigSetAndUnset(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	app, buf := setupTestApp(t, nil)

	require.NoError(t, executeCommand(NewConfigCmd(), app, "set", "job_max_attempts", "20"))
	values, err := readConfigFile(config.GlobalConfigPath())
	require.NoError(t, err)
	assert.Equal(t, 20, values["job_max_attempts"])

	require.NoError(t, executeCommand(NewConfigCmd(), app, "set", "environment", "production"))
	values, err = readConfigFile(config.GlobalConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "PRODUCTION", values["environment"])

	buf.Reset()
	require.NoError(t, executeCommand(NewConfigCmd(), app, "unset", "job_max_attempts"))
	assert.Equal(t, true, decode(t, buf).Data["removed"])
	values, err = readConfigFile(config.GlobalConfigPath())
	require.NoError(t, err)
	assert.NotContains(t, values, "job_max_attempts")
}

func TestConfigSetValidates(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	for _, args := range [][]string{
		{"set", "colour", "red"},
		{"set", "environment", "mars"},
		{"set", "store", "floppy"},
		{"set", "job_interval", "soon"},
		{"set", "verbose", "3"},
		{"set", "stats", "maybe"},
		{"set", "format", "xml"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			app, _ := setupTestApp(t, nil)

			err := executeCommand(NewConfigCmd(), app, args...)

			require.Error(t, err)
			assert.Equal(t, output.CodeUsage, errorCode(err))
		})
	}
}

func TestConfigShowSources(t *testing.T) {
	app, buf := setupTestApp(t, nil)
	app.Config.Sources["api_key"] = string(config.SourceFlag)

	require.NoError(t, executeCommand(NewConfigCmd(), app, "show"))

	out := decode(t, buf)
	apiKey := out.Data["api_key"].(map[string]any)
	assert.Equal(t, "flag", apiKey["source"])
	assert.Equal(t, "****", apiKey["value"])
	env := out.Data["environment"].(map[string]any)
	assert.Equal(t, "default", env["source"])
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"a=1", " b = two ", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "two", "c": ""}, got)

	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}
