package cause

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	dErrors "seva/pkg/domain-errors"
)

// Gateway is the slice of the API client the catalog needs.
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// causesEnvelope is the pagination envelope the catalog endpoint returns.
type causesEnvelope struct {
	Value []*Cause `json:"value"`
	Count int      `json:"Count"`
}

// Catalog resolves causes for the donation workflow, with a session-scoped
// cache. After a confirmed donation the engine invalidates the cause so the
// next read fetches the authoritative running total instead of reconciling
// it locally.
type Catalog struct {
	gw     Gateway
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[int64]*Cause
}

// Option configures a Catalog.
type Option func(*Catalog)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// NewCatalog creates a cause catalog backed by the given gateway.
func NewCatalog(gw Gateway, opts ...Option) *Catalog {
	c := &Catalog{gw: gw, cache: make(map[int64]*Cause)}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// List fetches causes matching the given filters and returns them with the
// server's total count.
func (c *Catalog) List(ctx context.Context, filters url.Values) ([]*Cause, int, error) {
	var envelope causesEnvelope
	if err := c.gw.Get(ctx, "/public/causes", filters, &envelope); err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list causes")
	}
	c.mu.Lock()
	for _, found := range envelope.Value {
		c.cache[found.ID] = found
	}
	c.mu.Unlock()
	return envelope.Value, envelope.Count, nil
}

// GetCause resolves one cause by id, serving from the session cache when
// possible.
func (c *Catalog) GetCause(ctx context.Context, id int64) (*Cause, error) {
	c.mu.RLock()
	if cached, ok := c.cache[id]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	filters := url.Values{"id": {strconv.FormatInt(id, 10)}}
	found, _, err := c.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	for _, candidate := range found {
		if candidate.ID == id {
			return candidate, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "cause not found")
}

// Invalidate drops a cause from the cache so its running total is refetched
// on the next read.
func (c *Catalog) Invalidate(id int64) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
}
