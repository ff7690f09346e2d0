// Package telemetry emits structured events for the transform-and-cache
// core: cache hit/miss/eviction/cleanup and transform start/stop/failure.
// Events carry a correlation key (cache key or chart kind), durations, and
// record/byte counts. Every component works identically with the no-op
// emitter, so telemetry is strictly optional.
package telemetry

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Emitter writes structured events through a slog handler.
type Emitter struct {
	log *slog.Logger
}

// New wraps an existing logger. A nil logger yields the no-op emitter.
func New(log *slog.Logger) *Emitter {
	if log == nil {
		return Nop()
	}
	return &Emitter{log: log}
}

// Nop returns an emitter that discards every event.
func Nop() *Emitter {
	return &Emitter{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// CorrelationID returns a fresh identifier for tying the events of one
// chart-generation run together.
func CorrelationID() string {
	return uuid.NewString()
}

func (e *Emitter) CacheHit(key string, bytes int) {
	e.log.Debug("cache.hit", "key", key, "bytes", bytes)
}

func (e *Emitter) CacheMiss(key string) {
	e.log.Debug("cache.miss", "key", key)
}

func (e *Emitter) CacheEviction(evicted int, size int) {
	e.log.Info("cache.eviction", "evicted", evicted, "size", size)
}

func (e *Emitter) CacheCleanup(removed int, duration time.Duration) {
	e.log.Debug("cache.cleanup", "removed", removed, "duration", duration)
}

func (e *Emitter) CacheStore(key string, bytes int, compressed bool, ttl time.Duration) {
	e.log.Debug("cache.store", "key", key, "bytes", bytes, "compressed", compressed, "ttl", ttl)
}

func (e *Emitter) TransformStart(correlation string, records int) {
	e.log.Debug("transform.start", "correlation", correlation, "records", records)
}

func (e *Emitter) TransformStop(correlation string, records int, duration time.Duration) {
	e.log.Debug("transform.stop", "correlation", correlation, "records", records, "duration", duration)
}

func (e *Emitter) TransformFailure(correlation string, duration time.Duration, err error) {
	e.log.Error("transform.failure", "correlation", correlation, "duration", duration, "error", err)
}

func (e *Emitter) RenderComplete(correlation string, kind string, bytes int, duration time.Duration) {
	e.log.Debug("render.complete", "correlation", correlation, "kind", kind, "bytes", bytes, "duration", duration)
}
