package cache

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chartforge/chartforge/pkg/config"
	"github.com/chartforge/chartforge/pkg/telemetry"
)

// Config bounds the cache. Zero fields take the package defaults.
type Config struct {
	DefaultTTL            time.Duration
	CleanupInterval       time.Duration
	MaxEntries            int
	CompressionThreshold  int
	MaxCompressedInput    int
	MaxDecompressedOutput int

	// Telemetry receives cache events; nil means no-op.
	Telemetry *telemetry.Emitter
}

func (c Config) withDefaults() Config {
	if c.DefaultTTL == 0 {
		c.DefaultTTL = config.DefaultTTL
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = config.DefaultCleanupInterval
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = config.DefaultMaxEntries
	}
	if c.CompressionThreshold == 0 {
		c.CompressionThreshold = config.DefaultCompressionThreshold
	}
	if c.MaxCompressedInput == 0 {
		c.MaxCompressedInput = config.DefaultMaxCompressedInput
	}
	if c.MaxDecompressedOutput == 0 {
		c.MaxDecompressedOutput = config.DefaultMaxDecompressedOutput
	}
	if c.Telemetry == nil {
		c.Telemetry = telemetry.Nop()
	}
	return c
}

// entry is the single stored shape. Compression is nil for raw payloads;
// lastAccess is nanoseconds, updated atomically on every hit so reads stay
// on the RLock path. A zero lastAccess sorts oldest during eviction.
type entry struct {
	payload     []byte
	expiresAt   time.Time
	compression *CompressionMeta
	lastAccess  atomic.Int64
}

func (e *entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Cache is a bounded, concurrent key→artifact store with per-entry TTL,
// optional gzip compression, and LRU eviction. One background goroutine
// sweeps expired entries until Close is called.
type Cache struct {
	cfg Config

	mu      sync.RWMutex
	entries map[string]*entry

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a cache and starts its cleanup sweep. Callers own the
// lifecycle: Close stops the sweep.
func New(cfg Config) *Cache {
	c := &Cache{
		cfg:     cfg.withDefaults(),
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}

	c.wg.Add(1)
	go c.runCleanup()
	return c
}

// Close stops the background sweep. Safe to call more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

// DefaultTTL exposes the configured default so callers composing cache
// population can pass it to Put.
func (c *Cache) DefaultTTL() time.Duration {
	return c.cfg.DefaultTTL
}

// Put stores payload uncompressed under key. The deadline is absolute,
// computed from ttl at insertion; a zero or negative ttl inserts an entry
// that is already expired.
func (c *Cache) Put(key string, payload []byte, ttl time.Duration) {
	c.insert(key, payload, nil, ttl)
}

// PutCompressed stores payload, gzip-compressing it when it meets the
// configured threshold. A codec failure falls back to storing the payload
// uncompressed.
func (c *Cache) PutCompressed(key string, payload []byte, ttl time.Duration) error {
	if len(payload) < c.cfg.CompressionThreshold {
		c.insert(key, payload, nil, ttl)
		return nil
	}

	compressed, meta, err := compress(payload)
	if err != nil {
		c.insert(key, payload, nil, ttl)
		return err
	}
	c.insert(key, compressed, meta, ttl)
	return nil
}

func (c *Cache) insert(key string, payload []byte, meta *CompressionMeta, ttl time.Duration) {
	e := &entry{
		payload:     payload,
		expiresAt:   time.Now().Add(ttl),
		compression: meta,
	}
	e.lastAccess.Store(time.Now().UnixNano())

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxEntries {
		c.evictLocked()
	}
	c.entries[key] = e
	c.mu.Unlock()

	c.cfg.Telemetry.CacheStore(key, len(payload), meta != nil, ttl)
}

// Get returns the stored payload as-is (still compressed for compressed
// entries). Reading an expired entry deletes it and counts as a miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	e, ok := c.lookup(key)
	if !ok {
		return nil, false
	}
	return e.payload, true
}

// GetDecompressed returns the original payload bytes, inflating compressed
// entries under the configured size ceilings.
func (c *Cache) GetDecompressed(key string) ([]byte, error) {
	e, ok := c.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	if e.compression == nil {
		return e.payload, nil
	}
	return decompress(e.payload, c.cfg.MaxCompressedInput, c.cfg.MaxDecompressedOutput)
}

// ErrNotFound reports a miss from GetDecompressed.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "cache: entry not found" }

// lookup is the shared hot read path: RLock only, access time updated
// atomically. Expired entries are removed under the write lock.
func (c *Cache) lookup(key string) (*entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		c.cfg.Telemetry.CacheMiss(key)
		return nil, false
	}

	if e.expired(time.Now()) {
		c.mu.Lock()
		// Re-check: a concurrent Put may have replaced the entry.
		if cur, still := c.entries[key]; still && cur == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		c.cfg.Telemetry.CacheMiss(key)
		return nil, false
	}

	e.lastAccess.Store(time.Now().UnixNano())
	c.hits.Add(1)
	c.cfg.Telemetry.CacheHit(key, len(e.payload))
	return e, true
}

// Clear removes every entry. Statistics are not reset.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked removes the least-recently-accessed fraction of entries
// (minimum one). Entries without a recorded access time sort oldest and go
// first. Caller holds the write lock.
func (c *Cache) evictLocked() {
	n := int(float64(len(c.entries)) * config.EvictionFraction)
	if n < 1 {
		n = 1
	}

	type aged struct {
		key    string
		access int64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, access: e.lastAccess.Load()})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].access < all[j].access })

	if n > len(all) {
		n = len(all)
	}
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}
	c.evictions.Add(uint64(n))
	c.cfg.Telemetry.CacheEviction(n, len(c.entries))
}

// runCleanup periodically purges expired entries independent of reads.
func (c *Cache) runCleanup() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			removed := c.purgeExpired()
			if removed > 0 {
				c.cfg.Telemetry.CacheCleanup(removed, time.Since(start))
			}
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) purgeExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits              uint64
	Misses            uint64
	Evictions         uint64
	Entries           int
	CompressedEntries int
	ExpiredEntries    int     // expired but not yet purged, at inspection time
	HitRate           float64 // hits / (hits + misses)
	CompressionRatio  float64 // mean compressed/original across compressed entries
}

// Stats inspects the cache. Counters are monotonic between ResetStats
// calls.
func (c *Cache) Stats() Stats {
	now := time.Now()

	c.mu.RLock()
	s := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   len(c.entries),
	}
	var ratioSum float64
	for _, e := range c.entries {
		if e.compression != nil {
			s.CompressedEntries++
			ratioSum += e.compression.Ratio
		}
		if e.expired(now) {
			s.ExpiredEntries++
		}
	}
	c.mu.RUnlock()

	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	if s.CompressedEntries > 0 {
		s.CompressionRatio = ratioSum / float64(s.CompressedEntries)
	}
	return s
}

// ResetStats zeroes the hit/miss/eviction counters.
func (c *Cache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
