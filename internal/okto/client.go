// Package okto is the SDK surface: it composes the session, the request
// gateway and the job poller into the named wallet operations.
package okto

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oktotech/okto-go/internal/api"
	"github.com/oktotech/okto-go/internal/auth"
	"github.com/oktotech/okto-go/internal/config"
	"github.com/oktotech/okto-go/internal/events"
	"github.com/oktotech/okto-go/internal/jobs"
	"github.com/oktotech/okto-go/internal/sdk"
)

// API paths.
const (
	PathPortfolio         = "/api/v1/portfolio"
	PathSupportedTokens   = "/api/v1/supported/tokens"
	PathSupportedNetworks = "/api/v1/supported/networks"
	PathUserFromToken     = "/api/v1/user_from_token"
	PathWidgetWallet      = "/api/v1/widget/wallet"
	PathWallet            = "/api/v1/wallet"
	PathOrders            = "/api/v1/orders"
	PathNftOrderDetails   = "/api/v1/nft/order_details"
	PathRawTxStatus       = "/api/v1/rawtransaction/status"
	PathTransferTokens    = "/api/v1/transfer/tokens/execute"
	PathTransferNft       = "/api/v1/nft/transfer"
	PathRawTxExecute      = "/api/v1/rawtransaction/execute"
)

// Client is the Okto SDK facade. It is safe for concurrent use.
type Client struct {
	session *auth.Session
	gateway *api.Client
	poller  *jobs.Poller
	bus     *events.Bus
	hooks   sdk.Hooks
	logger  *slog.Logger
	env     config.Environment
	apiKey  string

	themeMu sync.RWMutex
	theme   Theme
}

// Option configures a Client.
type Option func(*Client)

// WithPoller replaces the default job poller.
func WithPoller(p *jobs.Poller) Option {
	return func(c *Client) {
		if p != nil {
			c.poller = p
		}
	}
}

// WithBus publishes UI events on b.
func WithBus(b *events.Bus) Option {
	return func(c *Client) { c.bus = b }
}

// WithEnvironment selects the hosted page URLs used in UI events.
func WithEnvironment(env config.Environment) Option {
	return func(c *Client) { c.env = env }
}

// WithAPIKey sets the key injected into the onboarding page.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTheme sets the initial theme.
func WithTheme(t Theme) Option {
	return func(c *Client) { c.theme = DefaultTheme().Merge(t) }
}

// WithLogger sets the facade logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New composes a facade over an authenticated session and its gateway.
func New(session *auth.Session, gateway *api.Client, opts ...Option) *Client {
	c := &Client{
		session: session,
		gateway: gateway,
		hooks:   gateway.Hooks(),
		logger:  slog.New(slog.DiscardHandler),
		env:     config.Sandbox,
		theme:   DefaultTheme(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.poller == nil {
		c.poller = jobs.New(jobs.DefaultInterval, jobs.DefaultMaxAttempts, jobs.WithLogger(c.logger), jobs.WithHooks(c.hooks))
	}
	return c
}

// Session returns the underlying session.
func (c *Client) Session() *auth.Session { return c.session }

// Poller returns the job poller.
func (c *Client) Poller() *jobs.Poller { return c.poller }

// Login exchanges a Google id token for a session.
func (c *Client) Login(ctx context.Context, idToken string) (cred *auth.Credential, err error) {
	ctx, done := c.operation(ctx, "Authenticate", true)
	defer func() { done(err) }()
	return c.session.Login(ctx, idToken)
}

// LoginWithUserID exchanges a user id and a host-issued JWT for a session.
func (c *Client) LoginWithUserID(ctx context.Context, userID, jwtToken string) (cred *auth.Credential, err error) {
	ctx, done := c.operation(ctx, "AuthenticateWithUserId", true)
	defer func() { done(err) }()
	return c.session.LoginWithUserID(ctx, userID, jwtToken)
}

// Logout forgets the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// IsLoggedIn reports whether a complete credential is held.
func (c *Client) IsLoggedIn() bool {
	return c.session.IsLoggedIn()
}

// Theme returns the current theme.
func (c *Client) Theme() Theme {
	c.themeMu.RLock()
	defer c.themeMu.RUnlock()
	return c.theme
}

// SetTheme merges the non-empty fields of patch into the current theme.
func (c *Client) SetTheme(patch Theme) Theme {
	c.themeMu.Lock()
	defer c.themeMu.Unlock()
	c.theme = c.theme.Merge(patch)
	return c.theme
}

func (c *Client) operation(ctx context.Context, name string, mutation bool) (context.Context, func(error)) {
	op := sdk.OperationInfo{Service: "Okto", Operation: name, IsMutation: mutation}
	start := time.Now()
	ctx = c.hooks.OnOperationStart(ctx, op)
	return ctx, func(err error) {
		c.hooks.OnOperationEnd(ctx, op, err, time.Since(start))
	}
}
