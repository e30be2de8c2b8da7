package client

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jpalomar/CitasGo/pkg/httpclient"
)

// Config holds the SDK configuration.
type Config struct {
	// BaseURL is the API origin, e.g. "http://localhost:8000".
	BaseURL string

	// TokenStore persists the session token pair. Defaults to an
	// in-memory store.
	TokenStore TokenStore

	// Navigator receives routing side effects. Optional.
	Navigator Navigator

	// Confirmer gates lifecycle transitions. Defaults to auto-accept,
	// which only makes sense for non-interactive callers.
	Confirmer Confirmer

	// HTTPTimeout bounds each request. Defaults to 30s.
	HTTPTimeout time.Duration

	Logger *slog.Logger
}

// Client bundles the SDK components over one shared session and
// transport.
type Client struct {
	Session      *Session
	Availability *Availability
	Authoring    *Authoring
	Booking      *Booking
	Lifecycle    *Lifecycle

	api *api
}

// New creates a fully wired SDK client.
func New(cfg Config) *Client {
	if cfg.TokenStore == nil {
		cfg.TokenStore = NewMemoryTokenStore()
	}
	if cfg.Confirmer == nil {
		cfg.Confirmer = ConfirmerFunc(func(string) bool { return true })
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpCfg := httpclient.DefaultConfig()
	if cfg.HTTPTimeout > 0 {
		httpCfg.Timeout = cfg.HTTPTimeout
	}
	httpc := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("citas-api"),
		cfg.Logger,
	)

	session := NewSession(cfg.TokenStore, cfg.Navigator, cfg.Logger)
	a := newAPI(strings.TrimRight(cfg.BaseURL, "/"), httpc, session.AccessToken)

	nav := cfg.Navigator
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}

	return &Client{
		Session:      session,
		Availability: &Availability{api: a},
		Authoring:    &Authoring{api: a, session: session},
		Booking: &Booking{
			api:      a,
			nav:      nav,
			navDelay: successDisplayDelay,
			after:    time.AfterFunc,
		},
		Lifecycle: &Lifecycle{api: a, confirmer: cfg.Confirmer},
		api:       a,
	}
}

// Login authenticates against the API and establishes the session,
// including the role-keyed navigation side effect.
func (c *Client) Login(ctx context.Context, email, password string) error {
	pair, err := c.api.login(ctx, email, password)
	if err != nil {
		return err
	}
	return c.Session.Establish(ctx, pair.AccessToken, pair.RefreshToken)
}

// Register creates a new student account. The session is not established;
// the account must verify its email and log in.
func (c *Client) Register(ctx context.Context, in RegisterInput) error {
	return c.api.register(ctx, in)
}

// VerifyEmail redeems an email verification link and returns the API's
// confirmation message.
func (c *Client) VerifyEmail(ctx context.Context, uid, token string) (string, error) {
	return c.api.verifyEmail(ctx, uid, token)
}

// Logout clears the session and its persisted tokens.
func (c *Client) Logout() {
	c.Session.Clear()
}
