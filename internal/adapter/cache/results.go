package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"scour/internal/domain"
)

// ResultCache holds composed search results keyed by the raw query and its
// options. Entries die three ways: TTL expiry, LRU eviction, and generation
// invalidation when a new index snapshot is swapped in.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	gen     uint64
}

// CachedSearch is the replayable part of a search response: the processed
// query, the composed results, and the match count before truncation.
type CachedSearch struct {
	Query   domain.ProcessedQuery
	Results []domain.SearchResult
	Total   int
}

type cacheEntry struct {
	value     CachedSearch
	timestamp time.Time
	gen       uint64
}

func NewResultCache(maxSize int, ttl time.Duration) *ResultCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResultCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// cacheKey folds every input that can change the response: the query text,
// the result count, and the processing toggles.
func cacheKey(query string, topK int, spell, expand bool) string {
	data := []byte(query)
	data = append(data, byte(topK>>8), byte(topK))
	var flags byte
	if spell {
		flags |= 1
	}
	if expand {
		flags |= 2
	}
	data = append(data, flags)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *ResultCache) Get(query string, topK int, spell, expand bool) (CachedSearch, bool) {
	c.mu.RLock()
	key := cacheKey(query, topK, spell, expand)
	entry, exists := c.entries[key]
	currentGen := c.gen
	c.mu.RUnlock()

	if !exists {
		return CachedSearch{}, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.gen != currentGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return CachedSearch{}, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.value, true
}

func (c *ResultCache) Put(query string, topK int, spell, expand bool, value CachedSearch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK, spell, expand)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{
			value:     value,
			timestamp: time.Now(),
			gen:       c.gen,
		}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{
		value:     value,
		timestamp: time.Now(),
		gen:       c.gen,
	}
	c.order = append(c.order, key)
}

// Invalidate drops everything and bumps the generation so in-flight Gets
// keyed to the old index cannot resurrect stale results.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.gen++
}

func (c *ResultCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResultCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *ResultCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *ResultCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
