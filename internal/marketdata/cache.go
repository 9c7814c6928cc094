package marketdata

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fincrate/fincrate-backend/internal/model"
	"golang.org/x/sync/singleflight"
)

// Cached wraps a Service with a TTL cache.
//
// Entries are keyed by request kind, symbol, size and UTC day, so a cached
// history never outlives the day it was fetched on. Concurrent identical
// requests share one upstream call. Errors are never cached.
type Cached struct {
	next  Service
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

var _ Service = (*Cached)(nil)

// NewCached returns a caching Service around next.
func NewCached(next Service, ttl time.Duration) *Cached {
	return &Cached{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// GetQuote returns the cached quote for symbol or fetches it from the wrapped Service.
func (c *Cached) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = normalizeSymbol(symbol)
	return cachedCall(ctx, c, c.key("quote", symbol, ""), func(ctx context.Context) (model.Quote, error) {
		return c.next.GetQuote(ctx, symbol)
	})
}

// GetHistory returns a copy of the cached history for symbol and size, fetching
// it from the wrapped Service on a miss.
func (c *Cached) GetHistory(ctx context.Context, symbol string, size OutputSize) ([]model.PricePoint, error) {
	symbol = normalizeSymbol(symbol)
	points, err := cachedCall(ctx, c, c.key("history", symbol, string(size)), func(ctx context.Context) ([]model.PricePoint, error) {
		return c.next.GetHistory(ctx, symbol, size)
	})
	return slices.Clone(points), err
}

// GetCryptoQuote returns the cached quote for the CoinGecko id or fetches it
// from the wrapped Service.
func (c *Cached) GetCryptoQuote(ctx context.Context, id string) (model.Quote, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	return cachedCall(ctx, c, c.key("crypto", id, ""), func(ctx context.Context) (model.Quote, error) {
		return c.next.GetCryptoQuote(ctx, id)
	})
}

// Prune removes expired entries and returns how many were dropped.
func (c *Cached) Prune() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	pruned := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of cached entries, expired or not.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cached) key(kind, symbol, size string) string {
	return kind + "|" + symbol + "|" + size + "|" + c.now().UTC().Format(dateLayout)
}

func (c *Cached) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (c *Cached) store(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

// cachedCall serves key from the cache or joins the shared fetch for it.
//
// The shared fetch runs on a context detached from any single caller, so one
// caller giving up does not fail the others. Each caller still returns as soon
// as its own ctx is done. Upstream calls stay bounded by the client timeouts.
func cachedCall[T any](ctx context.Context, c *Cached, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if value, ok := c.lookup(key); ok {
		return value.(T), nil
	}

	shared := context.WithoutCancel(ctx)
	results := c.group.DoChan(key, func() (any, error) {
		v, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
