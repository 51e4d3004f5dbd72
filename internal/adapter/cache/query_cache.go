package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"matsearch/internal/domain"
)

// QueryCache is a bounded LRU of query results with a TTL. Each entry
// remembers the vocabulary epoch it was computed at; an entry whose epoch no
// longer matches the collection's is stale (its scores were computed against
// an older basis) and is dropped on lookup.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	results   []domain.Result
	timestamp time.Time
	epoch     uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query string, k int) string {
	data := []byte(query)
	data = append(data, byte(k>>8), byte(k))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// Get returns cached results for (query, k) if present, fresh, and computed
// at the given vocabulary epoch.
func (c *QueryCache) Get(query string, k int, epoch uint64) ([]domain.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, k)
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.epoch != epoch {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return entry.results, true
}

// Put stores results for (query, k) computed at the given vocabulary epoch.
func (c *QueryCache) Put(query string, k int, epoch uint64, results []domain.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, k)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{
			results:   results,
			timestamp: time.Now(),
			epoch:     epoch,
		}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{
		results:   results,
		timestamp: time.Now(),
		epoch:     epoch,
	}
	c.order = append(c.order, key)
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
