package cache

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// CompressionMeta records what compression achieved for one entry.
type CompressionMeta struct {
	OriginalSize   int
	CompressedSize int
	Ratio          float64 // compressed / original, lower is better
	Duration       time.Duration
}

// SizeError is returned when a payload breaches one of the configured byte
// ceilings. The offending entry is never stored and nothing is allocated
// beyond the ceiling.
type SizeError struct {
	What  string // "compressed input" or "decompressed output"
	Limit int
	Size  int // 0 when the true size is unknown (bomb aborted mid-stream)
}

func (e *SizeError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("cache: %s is %d bytes, limit %d", e.What, e.Size, e.Limit)
	}
	return fmt.Sprintf("cache: %s exceeds limit of %d bytes", e.What, e.Limit)
}

// CompressionError wraps an unexpected codec failure. Put falls back to
// storing the payload uncompressed when it sees one.
type CompressionError struct {
	Op    string
	Cause error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("cache: %s failed: %v", e.Op, e.Cause)
}

func (e *CompressionError) Unwrap() error {
	return e.Cause
}

// compress gzips payload and reports what it achieved.
func compress(payload []byte) ([]byte, *CompressionMeta, error) {
	start := time.Now()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, nil, &CompressionError{Op: "compress", Cause: err}
	}
	if err := w.Close(); err != nil {
		return nil, nil, &CompressionError{Op: "compress", Cause: err}
	}

	out := buf.Bytes()
	meta := &CompressionMeta{
		OriginalSize:   len(payload),
		CompressedSize: len(out),
		Ratio:          float64(len(out)) / float64(max(len(payload), 1)),
		Duration:       time.Since(start),
	}
	return out, meta, nil
}

// decompress inflates a gzip payload under two independent ceilings: the
// compressed input may not exceed maxInput, and the inflated stream is
// aborted as soon as it would exceed maxOutput. The output ceiling is the
// decompression-bomb guard; it bounds allocation regardless of what the
// stream header claims.
func decompress(payload []byte, maxInput, maxOutput int) ([]byte, error) {
	if len(payload) > maxInput {
		return nil, &SizeError{What: "compressed input", Limit: maxInput, Size: len(payload)}
	}

	r, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, &CompressionError{Op: "decompress", Cause: err}
	}
	defer r.Close()

	// Read one byte past the ceiling so a bomb is detected, not truncated.
	limited := io.LimitReader(r, int64(maxOutput)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, &CompressionError{Op: "decompress", Cause: err}
	}
	if len(out) > maxOutput {
		return nil, &SizeError{What: "decompressed output", Limit: maxOutput}
	}
	return out, nil
}
