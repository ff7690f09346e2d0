package cache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chartforge/chartforge/pkg/config"
)

// testConfig disables the sweep's influence on timing-sensitive tests by
// using a long interval.
func testConfig() Config {
	return Config{CleanupInterval: time.Hour}
}

func TestPutGet_RoundTrip(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	payload := []byte("artifact")
	c.Put("k", payload, time.Minute)

	got, ok := c.Get("k")
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("Get = %q,%v", got, ok)
	}
}

func TestGet_MissingKey(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	if _, ok := c.Get("absent"); ok {
		t.Fatal("Expected miss for absent key")
	}
	if s := c.Stats(); s.Misses != 1 {
		t.Errorf("Misses = %d, want 1", s.Misses)
	}
}

func TestTTL_ZeroExpiresImmediately(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	c.Put("k", []byte("x"), 0)

	if _, ok := c.Get("k"); ok {
		t.Fatal("Expected zero-TTL entry to be expired")
	}
	s := c.Stats()
	if s.Misses != 1 {
		t.Errorf("Misses = %d, want 1", s.Misses)
	}
	// Expiry-on-read also removed the entry.
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestTTL_ElapsedDeadline(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	c.Put("k", []byte("x"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("Expected entry to expire")
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	// A compressible payload above the 10 KB threshold, like a large SVG.
	payload := bytes.Repeat([]byte("<rect x='1' y='2' width='3' height='4'/>"), 400)
	if len(payload) < config.DefaultCompressionThreshold {
		t.Fatalf("test payload too small: %d", len(payload))
	}

	if err := c.PutCompressed("svg", payload, time.Minute); err != nil {
		t.Fatalf("PutCompressed failed: %v", err)
	}

	got, err := c.GetDecompressed("svg")
	if err != nil {
		t.Fatalf("GetDecompressed failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("Round-trip payload differs from original")
	}

	s := c.Stats()
	if s.CompressedEntries != 1 {
		t.Errorf("CompressedEntries = %d, want 1", s.CompressedEntries)
	}
	if s.CompressionRatio <= 0 || s.CompressionRatio >= 1 {
		t.Errorf("CompressionRatio = %v, expected (0,1) for repetitive input", s.CompressionRatio)
	}
}

func TestPutCompressed_BelowThresholdStoredRaw(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	small := []byte("tiny")
	if err := c.PutCompressed("k", small, time.Minute); err != nil {
		t.Fatalf("PutCompressed failed: %v", err)
	}

	got, ok := c.Get("k")
	if !ok || !bytes.Equal(got, small) {
		t.Fatalf("Expected raw storage below threshold, got %q,%v", got, ok)
	}
	if s := c.Stats(); s.CompressedEntries != 0 {
		t.Errorf("CompressedEntries = %d, want 0", s.CompressedEntries)
	}
}

func TestGetDecompressed_RawEntryPassesThrough(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	c.Put("k", []byte("raw"), time.Minute)
	got, err := c.GetDecompressed("k")
	if err != nil || string(got) != "raw" {
		t.Fatalf("GetDecompressed = %q,%v", got, err)
	}
}

func TestGetDecompressed_Miss(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	if _, err := c.GetDecompressed("absent"); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDecompress_OutputCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDecompressedOutput = 1024
	cfg.CompressionThreshold = 1 // force compression
	c := New(cfg)
	defer c.Close()

	// 1 MB of zeros compresses tiny but inflates past the 1 KB ceiling.
	bomb := make([]byte, 1<<20)
	if err := c.PutCompressed("bomb", bomb, time.Minute); err != nil {
		t.Fatalf("PutCompressed failed: %v", err)
	}

	_, err := c.GetDecompressed("bomb")
	serr, ok := err.(*SizeError)
	if !ok {
		t.Fatalf("Expected *SizeError, got %v", err)
	}
	if serr.What != "decompressed output" || serr.Limit != 1024 {
		t.Errorf("SizeError = %+v", serr)
	}
}

func TestDecompress_InputCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCompressedInput = 16
	cfg.CompressionThreshold = 1
	c := New(cfg)
	defer c.Close()

	payload := bytes.Repeat([]byte("abcdefgh"), 64)
	if err := c.PutCompressed("k", payload, time.Minute); err != nil {
		t.Fatalf("PutCompressed failed: %v", err)
	}

	_, err := c.GetDecompressed("k")
	serr, ok := err.(*SizeError)
	if !ok || serr.What != "compressed input" {
		t.Fatalf("Expected compressed-input SizeError, got %v", err)
	}
}

func TestEviction_Boundary(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEntries = 10
	c := New(cfg)
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprintf("key-%d", i), []byte("v"), time.Minute)
	}

	// Refresh key-0 so key-1 becomes the LRU candidate.
	if _, ok := c.Get("key-0"); !ok {
		t.Fatal("key-0 should be present")
	}

	c.Put("key-10", []byte("v"), time.Minute)

	if c.Len() > 10 {
		t.Errorf("Len = %d, want <= 10", c.Len())
	}
	if _, ok := c.Get("key-1"); ok {
		t.Error("Expected least-recently-accessed key-1 to be evicted")
	}
	if _, ok := c.Get("key-0"); !ok {
		t.Error("Recently accessed key-0 should survive eviction")
	}
	if s := c.Stats(); s.Evictions == 0 {
		t.Error("Expected eviction counter to advance")
	}
}

func TestEviction_TenPercentMinimumOne(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEntries = 30
	c := New(cfg)
	defer c.Close()

	for i := 0; i < 31; i++ {
		c.Put(fmt.Sprintf("key-%d", i), []byte("v"), time.Minute)
	}

	// 10% of 30 = 3 evicted on the overflowing insert.
	if s := c.Stats(); s.Evictions != 3 {
		t.Errorf("Evictions = %d, want 3", s.Evictions)
	}
	if c.Len() != 28 {
		t.Errorf("Len = %d, want 28", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	c.Put("a", []byte("1"), time.Minute)
	c.Put("b", []byte("2"), time.Minute)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear", c.Len())
	}
}

func TestStats_HitRateAndReset(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	c.Put("k", []byte("v"), time.Minute)
	c.Get("k")
	c.Get("k")
	c.Get("absent")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("Hits/Misses = %d/%d", s.Hits, s.Misses)
	}
	if want := 2.0 / 3.0; s.HitRate != want {
		t.Errorf("HitRate = %v, want %v", s.HitRate, want)
	}

	c.ResetStats()
	s = c.Stats()
	if s.Hits != 0 || s.Misses != 0 || s.Evictions != 0 {
		t.Errorf("Counters not reset: %+v", s)
	}
}

func TestStats_ExpiredAtInspection(t *testing.T) {
	c := New(testConfig())
	defer c.Close()

	c.Put("gone", []byte("v"), -time.Second)
	c.Put("live", []byte("v"), time.Minute)

	if s := c.Stats(); s.ExpiredEntries != 1 {
		t.Errorf("ExpiredEntries = %d, want 1", s.ExpiredEntries)
	}
}

func TestCleanupSweep_PurgesExpired(t *testing.T) {
	cfg := testConfig()
	cfg.CleanupInterval = 10 * time.Millisecond
	c := New(cfg)
	defer c.Close()

	c.Put("gone", []byte("v"), time.Millisecond)
	c.Put("live", []byte("v"), time.Minute)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Len() == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 1 {
		t.Errorf("Sweep did not purge expired entry, Len = %d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEntries = 100
	c := New(cfg)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("key-%d", j%50)
				if j%3 == 0 {
					c.Put(key, []byte("v"), time.Minute)
				} else {
					c.Get(key)
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}
