// Package app wires the client core together and owns the boot sequence:
// session bootstrap strictly precedes route-guard evaluation, and tenant
// resolution strictly precedes any tenant-scoped state being exposed.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"seva/internal/cause"
	"seva/internal/donation"
	"seva/internal/gateway"
	"seva/internal/platform/config"
	"seva/internal/platform/metrics"
	"seva/internal/session"
	"seva/internal/tenant"
	dErrors "seva/pkg/domain-errors"
)

// App is the assembled client core. Construct with New, then call Boot once
// before reading tenant- or session-scoped state.
type App struct {
	cfg       config.Client
	logger    *slog.Logger
	Gateway   *gateway.Client
	Sessions  *session.Service
	Resolver  *tenant.Resolver
	Causes    *cause.Catalog
	Donations *donation.Engine

	ready atomic.Bool
}

// Option configures the App assembly.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	m          *metrics.Metrics
	creds      session.CredentialStore
	httpClient *http.Client
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.m = m
	}
}

// WithCredentialStore overrides the file-backed token store, mainly for
// tests and ephemeral environments.
func WithCredentialStore(store session.CredentialStore) Option {
	return func(o *options) {
		o.creds = store
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(o *options) {
		o.httpClient = h
	}
}

// New assembles the client core against the given authorizer capability.
func New(cfg config.Client, authorizer donation.Authorizer, opts ...Option) *App {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.creds == nil {
		o.creds = session.NewFileStore(cfg.CredentialsPath)
	}

	gwOpts := []gateway.Option{gateway.WithLogger(o.logger)}
	if o.m != nil {
		gwOpts = append(gwOpts, gateway.WithMetrics(o.m))
	}
	if o.httpClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(o.httpClient))
	} else {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
	}
	gw := gateway.New(cfg.APIBaseURL, gwOpts...)

	sessionOpts := []session.Option{session.WithLogger(o.logger)}
	resolverOpts := []tenant.Option{tenant.WithLogger(o.logger)}
	engineOpts := []donation.Option{donation.WithLogger(o.logger)}
	if o.m != nil {
		sessionOpts = append(sessionOpts, session.WithMetrics(o.m))
		resolverOpts = append(resolverOpts, tenant.WithMetrics(o.m))
		engineOpts = append(engineOpts, donation.WithMetrics(o.m))
	}

	sessions := session.NewService(gw, o.creds, sessionOpts...)
	// the session's bearer token is the one piece of state shared across
	// all requests; the gateway reads it from the session store and the
	// 401 hook writes back through it
	gw.SetTokenSource(sessions)
	gw.SetUnauthorizedHandler(sessions.HandleUnauthorized)

	causes := cause.NewCatalog(gw, cause.WithLogger(o.logger))

	return &App{
		cfg:       cfg,
		logger:    o.logger,
		Gateway:   gw,
		Sessions:  sessions,
		Resolver:  tenant.NewResolver(gw, resolverOpts...),
		Causes:    causes,
		Donations: donation.NewEngine(gw, causes, sessions, authorizer, engineOpts...),
	}
}

// Boot runs the session bootstrap and then resolves the tenant for host.
// Both settle before Boot returns; the view layer renders a loading state
// until then. Boot never fails: bootstrap leaves the session signed out on
// trouble and resolution fails open to the marketplace.
func (a *App) Boot(ctx context.Context, host string) tenant.Resolution {
	if host == "" {
		host = a.cfg.Host
	}
	a.Sessions.Bootstrap(ctx)
	res := a.Resolver.Resolve(ctx, host)
	a.ready.Store(true)
	a.logger.InfoContext(ctx, "client ready",
		"mode", string(res.Mode),
		"authenticated", a.Sessions.IsAuthenticated(),
	)
	return res
}

// Ready reports whether Boot has settled.
func (a *App) Ready() bool {
	return a.ready.Load()
}

// RequireAuth is the route guard for authenticated views. It is only
// meaningful after Boot has settled.
func (a *App) RequireAuth() error {
	if !a.ready.Load() {
		return dErrors.New(dErrors.CodeInternal, "client still booting")
	}
	if !a.Sessions.IsAuthenticated() {
		return dErrors.New(dErrors.CodeSignInRequired, "sign in to continue")
	}
	return nil
}

// RequireRole is the route guard for role-gated views. The server-supplied
// role is authoritative.
func (a *App) RequireRole(role string) error {
	if err := a.RequireAuth(); err != nil {
		return err
	}
	if !a.Sessions.HasRole(role) {
		return dErrors.New(dErrors.CodeForbidden, "you do not have access to this area")
	}
	return nil
}
