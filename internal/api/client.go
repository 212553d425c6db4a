// Package api is the request gateway for the Okto REST API: it attaches
// credentials, unwraps the {status, data} envelope and drives the single
// refresh-and-retry cycle on 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oktotech/okto-go/internal/sdk"
	sdkerrors "github.com/oktotech/okto-go/internal/sdk/errors"
)

// Guard gates outgoing requests, e.g. a circuit breaker shared across processes.
type Guard interface {
	Before(ctx context.Context) error
	After(ctx context.Context, result sdk.RequestResult)
}

// Client is an HTTP client for the Okto API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	tokens     sdk.TokenSource
	hooks      sdk.Hooks
	guard      Guard
	userAgent  string
	logger     *slog.Logger
}

// Response wraps the data member of a successful envelope.
type Response struct {
	Data       json.RawMessage
	StatusCode int
	Headers    http.Header
}

// UnmarshalData unmarshals the response data into the given value.
func (r *Response) UnmarshalData(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHooks installs observability hooks.
func WithHooks(h sdk.Hooks) Option {
	return func(c *Client) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithGuard installs a request gate.
func WithGuard(g Guard) Option {
	return func(c *Client) { c.guard = g }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a gateway for baseURL. tokens supplies the bearer token
// and renews it on 401.
func NewClient(baseURL, apiKey string, tokens sdk.TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		tokens:  tokens,
		hooks:   sdk.NoopHooks{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hooks returns the installed hooks.
func (c *Client) Hooks() sdk.Hooks {
	return c.hooks
}

// Get performs a GET request. Empty query values are omitted.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// GetJSON performs a GET and decodes the envelope data into T.
func GetJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return out, err
	}
	if err := resp.UnmarshalData(&out); err != nil {
		return out, sdkerrors.ErrDecode(err)
	}
	return out, nil
}

// PostJSON performs a POST and decodes the envelope data into T.
func PostJSON[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return out, err
	}
	if err := resp.UnmarshalData(&out); err != nil {
		return out, sdkerrors.ErrDecode(err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		payload = b
	}

	info := sdk.RequestInfo{
		ID:      uuid.NewString(),
		Method:  method,
		URL:     c.buildURL(path, query),
		Attempt: 1,
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.singleRequest(ctx, info, payload, token)
	if err == nil || !isUnauthorized(err) {
		return resp, err
	}

	// One refresh, one retry.
	fresh, rerr := c.tokens.RefreshStale(ctx, token)
	if rerr != nil {
		return nil, rerr
	}
	if fresh == "" {
		return nil, sdkerrors.ErrAuth("Not authenticated")
	}

	info.Attempt = 2
	c.hooks.OnRetry(ctx, info, info.Attempt, err)
	c.logger.Debug("retrying after token refresh", "method", method, "url", info.URL, "request_id", info.ID)

	resp, err = c.singleRequest(ctx, info, payload, fresh)
	if err != nil && isUnauthorized(err) {
		return nil, sdkerrors.ErrTransport(http.StatusUnauthorized, "Unauthorized after token refresh")
	}
	return resp, err
}

func (c *Client) singleRequest(ctx context.Context, info sdk.RequestInfo, payload []byte, token string) (resp *Response, err error) {
	if c.guard != nil {
		if err := c.guard.Before(ctx); err != nil {
			return nil, err
		}
	}

	ctx = c.hooks.OnRequestStart(ctx, info)
	start := time.Now()
	status := 0
	defer func() {
		result := sdk.RequestResult{
			StatusCode: status,
			Duration:   time.Since(start),
			Error:      err,
		}
		if e, ok := err.(*sdkerrors.Error); ok {
			result.Retryable = e.Retryable
		}
		c.hooks.OnRequestEnd(ctx, info, result)
		if c.guard != nil {
			c.guard.After(ctx, result)
		}
	}()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, info.Method, info.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-api-key", c.apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, sdkerrors.ErrNetwork(err)
	}
	defer httpResp.Body.Close()
	status = httpResp.StatusCode

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, sdkerrors.ErrNetwork(fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case status == http.StatusUnauthorized:
		return nil, sdkerrors.ErrTransport(status, "Unauthorized")

	case status >= 200 && status < 300:
		var env sdk.Envelope[json.RawMessage]
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, sdkerrors.ErrDecode(err)
		}
		if !env.OK() {
			return nil, sdkerrors.ErrServer(env.Status)
		}
		return &Response{
			Data:       env.Data,
			StatusCode: status,
			Headers:    httpResp.Header,
		}, nil

	default:
		return nil, sdkerrors.ErrTransport(status, errorMessage(status, respBody))
	}
}

// errorMessage extracts a message from an error body, falling back to the status text.
func errorMessage(status int, body []byte) string {
	var apiErr struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Message != "" {
			return fmt.Sprintf("%s (HTTP %d)", apiErr.Message, status)
		}
		if s, ok := apiErr.Error.(string); ok && s != "" {
			return fmt.Sprintf("%s (HTTP %d)", s, status)
		}
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%s (HTTP %d)", text, status)
	}
	return fmt.Sprintf("Request failed (HTTP %d)", status)
}

func isUnauthorized(err error) bool {
	e, ok := err.(*sdkerrors.Error)
	return ok && e.Code == sdkerrors.CodeTransport && e.HTTPStatus == http.StatusUnauthorized
}

func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path

	clean := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				clean.Add(k, v)
			}
		}
	}
	if len(clean) > 0 {
		u += "?" + clean.Encode()
	}
	return u
}
