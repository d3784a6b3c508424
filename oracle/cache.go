package oracle

import (
	"context"
	"sync"

	"github.com/ureshvahalia/bridge-deals-ingest/engine"
)

// Cache wraps a Solver so each unique deal is solved at most once per batch.
// Failures are cached too: a deal the oracle could not solve is not retried
// within the same cache lifetime.
type Cache struct {
	inner Solver

	mu      sync.Mutex
	entries map[engine.DealKey]*cacheEntry
}

type cacheEntry struct {
	once  sync.Once
	table Table
	err   error
}

func NewCache(inner Solver) *Cache {
	return &Cache{inner: inner, entries: map[engine.DealKey]*cacheEntry{}}
}

func (c *Cache) Solve(ctx context.Context, deal *engine.Deal) (Table, error) {
	key := deal.Key()
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	// Concurrent workers asking for the same deal share one request.
	e.once.Do(func() {
		e.table, e.err = c.inner.Solve(ctx, deal)
	})
	return e.table, e.err
}

// Len reports how many distinct deals have been requested.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
