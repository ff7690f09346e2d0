// Package chart composes the transform pipeline, an external rendering
// backend, and the artifact cache into one chart-generation entry point.
// Rendering itself is out of scope here: the backend is an injected
// interface that turns configuration and records into opaque bytes.
package chart

import (
	"context"
	"fmt"
	"time"

	"github.com/chartforge/chartforge/pkg/cache"
	"github.com/chartforge/chartforge/pkg/record"
	"github.com/chartforge/chartforge/pkg/telemetry"
	"github.com/chartforge/chartforge/pkg/transform"
)

// Renderer is the chart-drawing boundary: configuration × records →
// artifact bytes.
type Renderer interface {
	Render(ctx context.Context, kind string, records []record.Record, cfg map[string]any) ([]byte, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, kind string, records []record.Record, cfg map[string]any) ([]byte, error)

func (f RendererFunc) Render(ctx context.Context, kind string, records []record.Record, cfg map[string]any) ([]byte, error) {
	return f(ctx, kind, records, cfg)
}

// Generator produces cached chart artifacts. Cache population is
// synchronous with the caller that produced the artifact.
type Generator struct {
	renderer  Renderer
	cache     *cache.Cache
	telemetry *telemetry.Emitter
}

// NewGenerator wires a renderer and cache together. A nil emitter disables
// telemetry.
func NewGenerator(r Renderer, c *cache.Cache, emitter *telemetry.Emitter) *Generator {
	if emitter == nil {
		emitter = telemetry.Nop()
	}
	return &Generator{renderer: r, cache: c, telemetry: emitter}
}

// Generate returns the artifact for (kind, records, cfg), transforming and
// rendering on a cache miss. The transform may be nil for pre-shaped
// records.
func (g *Generator) Generate(ctx context.Context, kind string, t *transform.Transform, records []record.Record, cfg map[string]any) ([]byte, error) {
	key := cache.Key(kind, records, cfg)

	if artifact, err := g.cache.GetDecompressed(key); err == nil {
		return artifact, nil
	} else if err != cache.ErrNotFound {
		// Size-ceiling or codec failure on a cached entry: regenerate.
		g.telemetry.TransformFailure(key, 0, err)
	}

	shaped := records
	if t != nil {
		correlation := telemetry.CorrelationID()
		g.telemetry.TransformStart(correlation, len(records))
		start := time.Now()

		out, err := t.Apply(records)
		if err != nil {
			g.telemetry.TransformFailure(correlation, time.Since(start), err)
			return nil, err
		}
		g.telemetry.TransformStop(correlation, len(out), time.Since(start))
		shaped = out
	}

	renderStart := time.Now()
	artifact, err := g.renderer.Render(ctx, kind, shaped, cfg)
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", kind, err)
	}
	g.telemetry.RenderComplete(key, kind, len(artifact), time.Since(renderStart))

	if err := g.cache.PutCompressed(key, artifact, g.cache.DefaultTTL()); err != nil {
		// Compression fell back to raw storage; the artifact is still
		// cached and still valid for this caller.
		g.telemetry.TransformFailure(key, 0, err)
	}
	return artifact, nil
}
