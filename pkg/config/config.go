package config

import "time"

// Cache defaults
const (
	DefaultTTL             = 5 * time.Minute
	DefaultCleanupInterval = 60 * time.Second
	DefaultMaxEntries      = 1000

	// EvictionFraction of entries removed per LRU pass, minimum one.
	EvictionFraction = 0.10
)

// Compression limits
const (
	DefaultCompressionThreshold  = 10 * 1024        // 10 KB
	DefaultMaxCompressedInput    = 10 * 1024 * 1024 // 10 MB
	DefaultMaxDecompressedOutput = 50 * 1024 * 1024 // 50 MB
)

// Calendar defaults
const (
	DefaultWeekStart = time.Monday
)
