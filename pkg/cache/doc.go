/*
Package cache stores rendered chart artifacts in a bounded, concurrent,
TTL-expiring map with optional gzip compression and LRU eviction.

# Lifecycle

The cache is an explicit service object, never a hidden singleton:

	c := cache.New(cache.Config{})
	defer c.Close()

New starts one background goroutine that sweeps expired entries on the
configured interval; Close stops it. All configuration is
constructor-injected with sane defaults (5-minute TTL, 60-second sweep,
1000-entry capacity, 10 KB compression threshold, 10 MB / 50 MB
decompression ceilings).

# Expiry and Eviction

Every entry carries an absolute deadline computed at insertion. Reading an
expired entry deletes it and counts as a miss; the sweep purges expired
entries independently of reads. When an insert finds the cache at
capacity, the least-recently-accessed 10% of entries (minimum one) are
evicted; entries without a recorded access time sort oldest.

# Compression

PutCompressed gzips payloads at or above the threshold and records the
achieved ratio. GetDecompressed enforces two independent ceilings - on the
compressed input and on the inflated output - so an oversized entry or a
decompression bomb yields a typed *SizeError instead of an unbounded
allocation. An unexpected codec failure on Put falls back to storing the
payload uncompressed.

# Keys

Key derives a content-addressed identifier from (chart kind, input
records, configuration) via canonical JSON and xxhash, so logically
identical requests always collide to the same entry regardless of map
ordering.

# Concurrency

Reads take only the read lock; access times and counters are atomic. Many
readers and writers can proceed concurrently, and the sweep never blocks
Get or Put beyond ordinary map locking.
*/
package cache
