package storage

import (
	"chatrelay/internal/app/domain/chat"
	"github.com/maypok86/otter/v2"
	"slices"
	"sync"
	"time"
)

// historyCache keeps recent-history results keyed by limit so that a burst of
// connecting clients costs one backend query. Any Save invalidates everything.
type historyCache struct {
	outer *otter.Cache[int, []chat.Message]

	// mu orders put against invalidate: a result fetched before an
	// invalidation must not land in the cache after it.
	mu  sync.Mutex
	gen uint64
}

// newHistoryCache returns nil for a non-positive ttl; a nil cache is a valid no-op.
func newHistoryCache(ttl time.Duration) *historyCache {
	if ttl <= 0 {
		return nil
	}

	return &historyCache{
		outer: otter.Must(&otter.Options[int, []chat.Message]{
			MaximumSize:      32,
			ExpiryCalculator: otter.ExpiryWriting[int, []chat.Message](ttl),
		}),
	}
}

func (c *historyCache) get(limit int) ([]chat.Message, bool) {
	if c == nil {
		return nil, false
	}

	msgs, ok := c.outer.GetIfPresent(limit)
	if !ok {
		return nil, false
	}
	return slices.Clone(msgs), true
}

// generation must be read before the backend query whose result is later put.
func (c *historyCache) generation() uint64 {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *historyCache) put(gen uint64, limit int, msgs []chat.Message) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	c.outer.Set(limit, slices.Clone(msgs))
}

func (c *historyCache) invalidate() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.outer.InvalidateAll()
}
