// Package optcache caches optimized content keyed by a fingerprint of the
// original content and the token budget it was condensed for.
//
// Entries expire lazily: an entry older than the TTL is dropped on the
// lookup that finds it. The cache is bounded by entry count; when full,
// the oldest entry by creation time is evicted. All methods are safe for
// concurrent use, and concurrent Sets for the same key resolve as
// last-writer-wins.
package optcache

import (
	"container/list"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	// DefaultTTL is how long an optimization stays valid.
	DefaultTTL = time.Hour

	// DefaultMaxEntries bounds the number of cached optimizations.
	DefaultMaxEntries = 1000
)

// Entry is a cached optimization. Entries are never mutated after creation;
// an overwrite replaces the entry.
type Entry struct {
	OptimizedText   string
	CreatedAt       time.Time
	OriginalTokens  int
	OptimizedTokens int
}

// Stats is an aggregate view over the live entries.
type Stats struct {
	TotalEntries        int     `json:"total_entries"`
	AvgReductionPercent float64 `json:"avg_reduction_percent"`
	TotalTokensSaved    int     `json:"total_tokens_saved"`
	Hits                int64   `json:"hits"`
	Misses              int64   `json:"misses"`
	Evictions           int64   `json:"evictions"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry time-to-live. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries sets the entry cap. Non-positive values keep the default.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache is an in-memory TTL cache of optimized content.
type Cache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	// order holds keys oldest-created first.
	order   *list.List
	entries map[string]*list.Element

	hits      int64
	misses    int64
	evictions int64
}

type item struct {
	key   string
	entry Entry
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fingerprint returns the cache key for content condensed to maxTokens.
// The budget is hashed as a fixed-width prefix so that no two
// (content, budget) pairs share an encoding.
func Fingerprint(content string, maxTokens int) string {
	var budget [8]byte
	binary.BigEndian.PutUint64(budget[:], uint64(int64(maxTokens)))

	h := sha256.New()
	h.Write(budget[:])
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// MaxEntries returns the configured entry cap.
func (c *Cache) MaxEntries() int {
	return c.maxEntries
}

// Get returns the optimized text stored for (content, maxTokens), or None
// when there is no entry or it has expired. Expired entries are removed.
func (c *Cache) Get(content string, maxTokens int) fn.Option[string] {
	key := Fingerprint(content, maxTokens)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return fn.None[string]()
	}

	it := el.Value.(*item)
	if c.expired(it.entry) {
		c.removeElement(el)
		c.misses++
		return fn.None[string]()
	}

	c.hits++
	return fn.Some(it.entry.OptimizedText)
}

// Set stores optimizedText for (content, maxTokens), replacing any existing
// entry and stamping it with the current time.
func (c *Cache) Set(content string, maxTokens int, optimizedText string, originalTokens, optimizedTokens int) {
	key := Fingerprint(content, maxTokens)
	entry := Entry{
		OptimizedText:   optimizedText,
		CreatedAt:       c.now(),
		OriginalTokens:  originalTokens,
		OptimizedTokens: optimizedTokens,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// An overwrite is a new entry: it moves to the young end.
	if el, ok := c.entries[key]; ok {
		c.removeElement(el)
	}

	for c.order.Len() >= c.maxEntries {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		c.evictions++
	}

	c.entries[key] = c.order.PushBack(&item{key: key, entry: entry})
}

// Clear drops all entries. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// Len returns the number of stored entries, including expired entries not
// yet collected.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats aggregates over live entries. Expired entries are skipped but not
// removed.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}

	var totalOriginal int
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*item).entry
		if c.expired(e) {
			continue
		}
		stats.TotalEntries++
		stats.TotalTokensSaved += e.OriginalTokens - e.OptimizedTokens
		totalOriginal += e.OriginalTokens
	}

	if totalOriginal > 0 {
		stats.AvgReductionPercent = float64(stats.TotalTokensSaved) / float64(totalOriginal) * 100
	}
	return stats
}

func (c *Cache) expired(e Entry) bool {
	return c.now().Sub(e.CreatedAt) > c.ttl
}

// removeElement must be called with mu held.
func (c *Cache) removeElement(el *list.Element) {
	it := el.Value.(*item)
	delete(c.entries, it.key)
	c.order.Remove(el)
}
