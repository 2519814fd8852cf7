package gold

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "spot"

var errRefreshPanic = errors.New("spot price refresh panicked")

// Source is the upstream the cache refreshes from. CheckCredentials must not
// perform I/O; it runs on every lookup.
type Source interface {
	CheckCredentials() error
	FetchSpot(ctx context.Context) (Price, error)
}

// Cache serves the spot price from a single slot and refreshes it from the
// Source once the entry is older than ttl. Concurrent refreshes are merged into
// one upstream call. A failed refresh is returned to every waiter and leaves
// the slot as it was; the stale value is never served.
type Cache struct {
	src          Source
	slot         Slot
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	log          *zap.Logger
	metrics      *CacheMetrics

	group singleflight.Group
}

type CacheOption func(*Cache)

func WithSlot(s Slot) CacheOption {
	return func(c *Cache) { c.slot = s }
}

func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func WithLogger(log *zap.Logger) CacheOption {
	return func(c *Cache) { c.log = log }
}

func WithMetrics(m *CacheMetrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// WithFetchTimeout bounds a shared refresh independently of any single caller's context.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *Cache) { c.fetchTimeout = d }
}

func NewCache(src Source, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		src:          src,
		slot:         NewMemorySlot(),
		ttl:          ttl,
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration { return c.ttl }

// Price returns the cached spot price, refreshing it first when the slot is
// empty or older than the TTL.
func (c *Cache) Price(ctx context.Context) (Price, error) {
	if err := c.src.CheckCredentials(); err != nil {
		return Price{}, err
	}

	if p, ok := c.fresh(ctx); ok {
		c.metrics.hit()
		return p, nil
	}

	// leader is only written by the closure singleflight runs for this
	// caller, before the result is sent on ch.
	leader := false
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		leader = true
		return c.refresh()
	})
	select {
	case res := <-ch:
		if !leader {
			c.metrics.coalesced()
		}
		if res.Err != nil {
			return Price{}, res.Err
		}
		return res.Val.(Price), nil
	case <-ctx.Done():
		return Price{}, ctx.Err()
	}
}

// refresh runs once per singleflight round. The slot is checked again first
// so a caller that missed the previous round does not trigger a second fetch.
// A panicking Source is reported as an error; singleflight would otherwise
// re-panic it on a goroutine no HTTP middleware can recover.
func (c *Cache) refresh() (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.metrics.refreshed(Price{}, errRefreshPanic)
			c.log.Error("spot price refresh panicked", zap.Any("panic", rec), zap.Stack("stack"))
			v, err = nil, fmt.Errorf("%w: %v", errRefreshPanic, rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	if p, ok := c.fresh(ctx); ok {
		return p, nil
	}

	start := c.now()
	fetched, err := c.src.FetchSpot(ctx)
	if err != nil {
		c.metrics.refreshed(Price{}, err)
		c.log.Warn("spot price refresh failed", zap.Error(err))
		return nil, err
	}

	p := Price{PerGram: fetched.PerGram, ObservedAt: c.now()}
	if err := c.slot.Store(ctx, p); err != nil {
		c.log.Warn("spot price slot store failed", zap.Error(err))
	}
	c.metrics.refreshed(p, nil)
	c.log.Debug("spot price refreshed",
		zap.Float64("per_gram", p.PerGram),
		zap.Duration("took", c.now().Sub(start)),
	)
	return p, nil
}

func (c *Cache) fresh(ctx context.Context) (Price, bool) {
	p, ok, err := c.slot.Load(ctx)
	if err != nil {
		c.log.Warn("spot price slot load failed", zap.Error(err))
		return Price{}, false
	}
	if !ok || p.Age(c.now()) > c.ttl {
		return Price{}, false
	}
	return p, true
}
