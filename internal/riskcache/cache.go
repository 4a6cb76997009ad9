package riskcache

import (
	"sync"
	"time"

	"github.com/kestrelsec/pagewarden/internal/config"
	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/kestrelsec/pagewarden/internal/urlhandler"
	"github.com/rs/zerolog"
)

type entry struct {
	verdict    models.RiskVerdict
	insertedAt time.Time
}

// Cache is a bounded, time-expiring verdict store keyed by normalized
// URL. Expired entries become misses immediately but are only removed by
// Sweep (periodic, at TTL granularity) or lazily before an insert at
// capacity. All operations are mutex-serialized: Put-side eviction is a
// read-modify-write that would double-evict under interleaving.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewCache creates a verdict cache with the configured TTL and bound.
func NewCache(cfg config.CacheConfig, logger zerolog.Logger) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		ttl:        cfg.TTL(),
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
		logger:     logger.With().Str("component", "RiskCache").Logger(),
	}
}

// SetClock replaces the cache's time source. Test hook.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Cache) key(url string) string {
	if normalized, err := urlhandler.NormalizeURL(url); err == nil {
		return normalized
	}
	return url
}

// Get returns the cached verdict for the URL. An entry older than the
// TTL is a miss; it stays in the map until the next sweep.
func (c *Cache) Get(url string) (models.RiskVerdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[c.key(url)]
	if !ok {
		return models.RiskVerdict{}, false
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		return models.RiskVerdict{}, false
	}
	return e.verdict, true
}

// Put stores the verdict under the URL's normalized key. Re-putting an
// existing key replaces the verdict and resets its age without growing
// the entry count. When the cache is full, expired entries are swept
// first; if every entry is still live, the oldest one is evicted.
func (c *Cache) Put(url string, verdict models.RiskVerdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.key(url)
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.sweepLocked()
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry{verdict: verdict, insertedAt: c.now()}
}

// Sweep removes expired entries and returns how many were evicted.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := c.sweepLocked()
	if removed > 0 {
		c.logger.Debug().Int("removed", removed).Int("remaining", len(c.entries)).Msg("Swept expired verdicts")
	}
	return removed
}

// Len returns the current entry count, expired entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) sweepLocked() int {
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.insertedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.logger.Debug().Str("url", oldestKey).Msg("Evicted oldest live verdict at capacity")
	}
}
