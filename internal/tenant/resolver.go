package tenant

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"golang.org/x/sync/singleflight"

	"seva/internal/platform/metrics"
	"seva/internal/theme"
)

// Gateway is the slice of the API client the resolver needs.
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Resolver classifies the session's host into a mode and tenant, exactly
// once per session. Resolution failure is deliberately fail-open: the
// storefront's availability outranks strict tenant isolation, so any error
// silently falls back to the shared marketplace.
type Resolver struct {
	gw     Gateway
	logger *slog.Logger
	m      *metrics.Metrics

	group   singleflight.Group
	mu      sync.RWMutex
	settled bool
	current Resolution
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.m = m
	}
}

// NewResolver creates a host resolver backed by the given gateway.
func NewResolver(gw Gateway, opts ...Option) *Resolver {
	r := &Resolver{gw: gw}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// resolveResponse is the advisory payload from /public/tenants/by-host.
type resolveResponse struct {
	Mode   string            `json:"mode"`
	Tenant *Tenant           `json:"tenant"`
	Theme  *theme.BrandTheme `json:"theme"`
}

// Resolve classifies host and caches the result for the session lifetime.
// Concurrent callers collapse to a single upstream call; later callers get
// the settled result without revalidation. Resolve never fails: every
// error shape yields the marketplace fallback.
func (r *Resolver) Resolve(ctx context.Context, host string) Resolution {
	r.mu.RLock()
	if r.settled {
		defer r.mu.RUnlock()
		return r.current
	}
	r.mu.RUnlock()

	res, _, _ := r.group.Do("resolve", func() (any, error) {
		r.mu.RLock()
		if r.settled {
			defer r.mu.RUnlock()
			return r.current, nil
		}
		r.mu.RUnlock()

		resolution := r.lookup(ctx, host)
		r.settle(resolution)
		return resolution, nil
	})
	return res.(Resolution)
}

func (r *Resolver) lookup(ctx context.Context, host string) Resolution {
	var resp resolveResponse
	query := url.Values{"host": {host}}
	if err := r.gw.Get(ctx, "/public/tenants/by-host", query, &resp); err != nil {
		r.logger.WarnContext(ctx, "tenant resolution failed, falling back to marketplace",
			"host", host, "error", err)
		r.countFallback()
		return Marketplace()
	}

	if Mode(resp.Mode) != ModeMicrosite || resp.Tenant == nil {
		if Mode(resp.Mode) != ModeMarketplace {
			// malformed payload counts as a fallback, a plain marketplace
			// answer does not
			r.logger.WarnContext(ctx, "malformed tenant resolution payload, falling back to marketplace",
				"host", host, "mode", resp.Mode)
			r.countFallback()
		}
		return Marketplace()
	}

	brand := resp.Theme
	if brand == nil {
		brand = resp.Tenant.Brand
	}
	r.logger.InfoContext(ctx, "resolved microsite tenant",
		"host", host, "tenant", resp.Tenant.Slug)
	return Resolution{
		Mode:   ModeMicrosite,
		Tenant: resp.Tenant,
		Theme:  theme.Derive(brand),
	}
}

func (r *Resolver) settle(res Resolution) {
	r.mu.Lock()
	r.settled = true
	r.current = res
	r.mu.Unlock()
	if r.m != nil {
		r.m.TenantResolutions.WithLabelValues(string(res.Mode)).Inc()
	}
}

func (r *Resolver) countFallback() {
	if r.m != nil {
		r.m.TenantFallbacks.Inc()
	}
}

// Current returns the settled resolution. ok is false until Resolve (or
// SwitchToMarketplace) settles; the view layer must render a loading state
// until then and never mount tenant-scoped navigation early.
func (r *Resolver) Current() (Resolution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.settled
}

// SwitchToMarketplace synchronously clears tenant and theme and pins the
// session to marketplace mode. No network call; idempotent.
func (r *Resolver) SwitchToMarketplace() Resolution {
	res := Marketplace()
	r.mu.Lock()
	r.settled = true
	r.current = res
	r.mu.Unlock()
	return res
}
