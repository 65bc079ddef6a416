// Package cache provides a lock-free, TTL-bounded cache for Silver tier
// extraction results, keyed by the xxhash digest of a Bronze record's raw
// HTML bytes so identical captures re-extracted across runs
// skip the Tier 1/2/3 pipeline entirely.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultMaxEntries bounds the cache before eviction of the entry
	// with the oldest CachedAt (insertion time; reads do not refresh it)
	// kicks in.
	DefaultMaxEntries = 400

	// DefaultTTL is how long an extraction result stays valid; a page
	// captured under active development may be re-extracted sooner than
	// this, but the HTML content hash would differ anyway.
	DefaultTTL = 2 * time.Hour

	// DefaultCleanupInterval is the background sweep period.
	DefaultCleanupInterval = 10 * time.Minute

	// EstimatedBytesPerEntry feeds the rough memory estimate in Stats.
	EstimatedBytesPerEntry = 512.0
)

// CachedExtraction wraps a cached Silver extraction result.
type CachedExtraction struct {
	Data        interface{}
	CachedAt    int64 // Unix nano, read/written atomically
	AccessCount int64
	ContentHash uint64
}

// Config tunes an ExtractionCache.
type Config struct {
	MaxEntries      int
	TTL             time.Duration
	AutoCleanup     bool
	CleanupInterval time.Duration
}

// DefaultConfig returns the default extraction cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries:      DefaultMaxEntries,
		TTL:             DefaultTTL,
		AutoCleanup:     true,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// ExtractionCache is a lock-free, single-tier cache from content hash to
// extraction result, a sync.Map-backed registry with the content/symbol/
// parser tiers collapsed into one.
type ExtractionCache struct {
	entries sync.Map // map[uint64]*CachedExtraction

	maxEntries int
	ttlNanos   int64

	hits          int64
	misses        int64
	evictions     int64
	totalRequests int64
	entryCount    int64

	createdAt   time.Time
	lastCleanup int64
}

// New constructs an ExtractionCache and, if cfg.AutoCleanup is set,
// starts its background sweep goroutine.
func New(cfg Config) *ExtractionCache {
	c := &ExtractionCache{
		maxEntries:  cfg.MaxEntries,
		ttlNanos:    cfg.TTL.Nanoseconds(),
		createdAt:   time.Now(),
		lastCleanup: time.Now().UnixNano(),
	}
	if cfg.AutoCleanup {
		go c.startAutoCleanup(cfg.CleanupInterval)
	}
	return c
}

// HashContent digests raw HTML bytes into the cache key
// describes as "the xxhash of the raw bytes".
func HashContent(content []byte) uint64 {
	return xxhash.Sum64(content)
}

// Get retrieves the cached extraction result for a content hash, if any
// and not expired.
func (c *ExtractionCache) Get(contentHash uint64) (interface{}, bool) {
	atomic.AddInt64(&c.totalRequests, 1)
	now := time.Now().UnixNano()

	val, ok := c.entries.Load(contentHash)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	cached := val.(*CachedExtraction)
	if now-atomic.LoadInt64(&cached.CachedAt) > c.ttlNanos {
		c.entries.Delete(contentHash)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&cached.AccessCount, 1)
	atomic.AddInt64(&c.hits, 1)
	return cached.Data, true
}

// Put stores an extraction result under its content hash, evicting the
// oldest entry first if the cache is at capacity.
func (c *ExtractionCache) Put(contentHash uint64, result interface{}) {
	cached := &CachedExtraction{
		Data:        result,
		CachedAt:    time.Now().UnixNano(),
		AccessCount: 1,
		ContentHash: contentHash,
	}
	if _, loaded := c.entries.LoadOrStore(contentHash, cached); !loaded {
		if count := atomic.AddInt64(&c.entryCount, 1); count > int64(c.maxEntries) {
			c.evictOldest()
		}
	}
}

func (c *ExtractionCache) evictOldest() {
	var oldestKey interface{}
	oldestTime := time.Now().UnixNano()

	c.entries.Range(func(key, value interface{}) bool {
		cached := value.(*CachedExtraction)
		if at := atomic.LoadInt64(&cached.CachedAt); at < oldestTime {
			oldestTime = at
			oldestKey = key
		}
		return true
	})

	if oldestKey != nil {
		c.entries.Delete(oldestKey)
		atomic.AddInt64(&c.entryCount, -1)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// CleanExpired sweeps every entry past its TTL and returns the count removed.
func (c *ExtractionCache) CleanExpired() int {
	now := time.Now().UnixNano()
	var cleaned, remaining int64

	c.entries.Range(func(key, value interface{}) bool {
		cached := value.(*CachedExtraction)
		if now-atomic.LoadInt64(&cached.CachedAt) > c.ttlNanos {
			c.entries.Delete(key)
			cleaned++
		} else {
			remaining++
		}
		return true
	})

	atomic.StoreInt64(&c.entryCount, remaining)
	atomic.AddInt64(&c.evictions, cleaned)
	atomic.StoreInt64(&c.lastCleanup, now)
	return int(cleaned)
}

func (c *ExtractionCache) startAutoCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		c.CleanExpired()
	}
}

// Stats is a point-in-time snapshot of cache performance.
type Stats struct {
	Hits              int64
	Misses            int64
	Evictions         int64
	TotalRequests     int64
	HitRate           float64
	Entries           int
	CreatedAt         time.Time
	LastCleanup       time.Time
	Uptime            time.Duration
	EstimatedMemoryKB float64
}

// Stats computes a Stats snapshot.
func (c *ExtractionCache) Stats() Stats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := atomic.LoadInt64(&c.totalRequests)

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	entries := int(atomic.LoadInt64(&c.entryCount))

	return Stats{
		Hits:              hits,
		Misses:            misses,
		Evictions:         atomic.LoadInt64(&c.evictions),
		TotalRequests:     total,
		HitRate:           hitRate,
		Entries:           entries,
		CreatedAt:         c.createdAt,
		LastCleanup:       time.Unix(0, atomic.LoadInt64(&c.lastCleanup)),
		Uptime:            time.Since(c.createdAt),
		EstimatedMemoryKB: float64(entries) * EstimatedBytesPerEntry / 1024,
	}
}

// Clear removes every entry and resets counters.
func (c *ExtractionCache) Clear() {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.evictions, 0)
	atomic.StoreInt64(&c.totalRequests, 0)
	atomic.StoreInt64(&c.entryCount, 0)
	atomic.StoreInt64(&c.lastCleanup, time.Now().UnixNano())
}
