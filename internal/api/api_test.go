package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktotech/okto-go/internal/auth"
	"github.com/oktotech/okto-go/internal/sdk"
	sdkerrors "github.com/oktotech/okto-go/internal/sdk/errors"
)

func writeEnvelope(w http.ResponseWriter, status string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "data": data})
}

// fixture wires a real session and gateway against one test server.
type fixture struct {
	srv     *httptest.Server
	session *auth.Session
	client  *Client
	calls   atomic.Int32
	paths   []string
	mu      sync.Mutex
}

func newFixture(t *testing.T, handler func(f *fixture, w http.ResponseWriter, r *http.Request)) *fixture {
	t.Helper()
	f := &fixture{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()
		handler(f, w, r)
	}))
	t.Cleanup(f.srv.Close)

	f.session = auth.NewSession(f.srv.URL, "key-1", auth.NewCredentialStore(auth.NewMemoryKV()))
	f.client = NewClient(f.srv.URL, "key-1", f.session)
	return f
}

func (f *fixture) adopt(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, f.session.Adopt(context.Background(), &auth.Credential{
		AuthToken: token, RefreshToken: "R", DeviceToken: "D",
	}))
}

func TestGetAttachesHeaders(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A", r.Header.Get("Authorization"))
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		writeEnvelope(w, "success", map[string]any{"total": 1})
	})
	f.adopt(t, "A")

	out, err := GetJSON[map[string]int](context.Background(), f.client, "/api/v1/portfolio", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out["total"])
}

func TestGetWithoutSessionOmitsAuthorization(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		writeEnvelope(w, "success", nil)
	})

	_, err := f.client.Get(context.Background(), "/api/v1/supported/networks", nil)
	require.NoError(t, err)
}

func TestUnauthorizedRefreshesAndRetriesOnce(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case auth.PathRefreshToken:
			writeEnvelope(w, "success", map[string]string{
				"auth_token": "A2", "refresh_auth_token": "R2", "device_token": "D2",
			})
		case "/api/v1/portfolio":
			if r.Header.Get("Authorization") == "Bearer A" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "Bearer A2", r.Header.Get("Authorization"))
			writeEnvelope(w, "success", map[string]any{"total": 3})
		}
	})
	f.adopt(t, "A")

	out, err := GetJSON[map[string]int](context.Background(), f.client, "/api/v1/portfolio", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out["total"])
	assert.Equal(t, int32(3), f.calls.Load())
	assert.Equal(t, []string{"/api/v1/portfolio", auth.PathRefreshToken, "/api/v1/portfolio"}, f.paths)
}

func TestRefreshFailurePropagatesWithoutRetry(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.adopt(t, "A")

	_, err := f.client.Get(context.Background(), "/api/v1/portfolio", nil)
	assert.True(t, sdkerrors.IsRefresh(err), "want refresh error, got %v", err)
	assert.False(t, f.session.IsLoggedIn())
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestSecondUnauthorizedIsNotRetried(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == auth.PathRefreshToken {
			writeEnvelope(w, "success", map[string]string{
				"auth_token": "A2", "refresh_auth_token": "R2", "device_token": "D2",
			})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.adopt(t, "A")

	_, err := f.client.Get(context.Background(), "/api/v1/portfolio", nil)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsTransport(err))
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestUnauthorizedWhileLoggedOutIsAuthError(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := f.client.Get(context.Background(), "/api/v1/portfolio", nil)
	assert.True(t, sdkerrors.IsAuth(err), "want auth error, got %v", err)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestConcurrentUnauthorizedTriggerOneRefresh(t *testing.T) {
	var refreshes atomic.Int32
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case auth.PathRefreshToken:
			refreshes.Add(1)
			time.Sleep(50 * time.Millisecond)
			writeEnvelope(w, "success", map[string]string{
				"auth_token": "A2", "refresh_auth_token": "R2", "device_token": "D2",
			})
		default:
			if r.Header.Get("Authorization") != "Bearer A2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeEnvelope(w, "success", map[string]any{})
		}
	})
	f.adopt(t, "A")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.client.Get(context.Background(), "/api/v1/portfolio", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestNonSuccessEnvelopeIsServerError(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, "failed", map[string]any{"secret": "dropped"})
	})

	_, err := f.client.Get(context.Background(), "/api/v1/portfolio", nil)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsServer(err))
	assert.Equal(t, "Server responded with an error", err.Error())
}

func TestTransportErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantMsg    string
	}{
		{
			name: "json message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"message":"bad quantity"}`))
			},
			wantStatus: 400,
			wantMsg:    "bad quantity (HTTP 400)",
		},
		{
			name: "failed envelope on error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"status":"failed","message":"insufficient balance"}`))
			},
			wantStatus: 422,
			wantMsg:    "insufficient balance (HTTP 422)",
		},
		{
			name: "plain body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: 502,
			wantMsg:    "Bad Gateway (HTTP 502)",
		},
		{
			name: "undecodable success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			wantStatus: 0,
			wantMsg:    "Failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) { tt.handler(w, r) })

			_, err := f.client.Get(context.Background(), "/x", nil)

			var e *sdkerrors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, sdkerrors.CodeTransport, e.Code)
			assert.Equal(t, tt.wantStatus, e.HTTPStatus)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k", &sdk.StaticTokenSource{})

	_, err := c.Get(context.Background(), "/x", nil)
	assert.True(t, sdkerrors.IsTransport(err))
}

func TestPostSendsJSONBody(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "POLYGON", body["network_name"])
		writeEnvelope(w, "success", map[string]string{"orderId": "o-1"})
	})

	out, err := PostJSON[map[string]string](context.Background(), f.client, "/api/v1/transfer/tokens/execute", map[string]string{"network_name": "POLYGON"})
	require.NoError(t, err)
	assert.Equal(t, "o-1", out["orderId"])
}

func TestBuildURLOmitsEmptyQueryValues(t *testing.T) {
	c := NewClient("https://api.example.com/", "k", &sdk.StaticTokenSource{})

	q := url.Values{}
	q.Set("order_id", "o-1")
	q.Set("offset", "")
	assert.Equal(t, "https://api.example.com/api/v1/orders?order_id=o-1", c.buildURL("api/v1/orders", q))
	assert.Equal(t, "https://api.example.com/api/v1/orders", c.buildURL("/api/v1/orders", nil))
}

type recordingHooks struct {
	sdk.NoopHooks
	mu      sync.Mutex
	ids     []string
	retries int
}

func (h *recordingHooks) OnRequestStart(ctx context.Context, info sdk.RequestInfo) context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, info.ID)
	return ctx
}

func (h *recordingHooks) OnRetry(context.Context, sdk.RequestInfo, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.retries++
}

func TestHooksSeeRetryUnderSameRequestID(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == auth.PathRefreshToken {
			writeEnvelope(w, "success", map[string]string{
				"auth_token": "A2", "refresh_auth_token": "R2", "device_token": "D2",
			})
			return
		}
		if r.Header.Get("Authorization") == "Bearer A" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, "success", nil)
	})
	hooks := &recordingHooks{}
	f.client = NewClient(f.srv.URL, "key-1", f.session, WithHooks(hooks))
	f.adopt(t, "A")

	_, err := f.client.Get(context.Background(), "/api/v1/portfolio", nil)
	require.NoError(t, err)

	require.Len(t, hooks.ids, 2)
	assert.Equal(t, hooks.ids[0], hooks.ids[1])
	assert.Equal(t, 1, hooks.retries)
}

type denyGuard struct{ after int }

func (g *denyGuard) Before(context.Context) error {
	return sdkerrors.ErrTransport(0, "circuit open")
}

func (g *denyGuard) After(context.Context, sdk.RequestResult) { g.after++ }

func TestGuardRejectionSkipsNetwork(t *testing.T) {
	f := newFixture(t, func(f *fixture, w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	g := &denyGuard{}
	f.client = NewClient(f.srv.URL, "key-1", f.session, WithGuard(g))

	_, err := f.client.Get(context.Background(), "/x", nil)
	assert.True(t, sdkerrors.IsTransport(err))
	assert.Zero(t, g.after)
}
