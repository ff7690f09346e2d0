// Demo: transform a small sales dataset into chart-ready series, render
// them through a stub backend, and show the cache doing its job.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/chartforge/chartforge/pkg/aggregate"
	"github.com/chartforge/chartforge/pkg/cache"
	"github.com/chartforge/chartforge/pkg/chart"
	"github.com/chartforge/chartforge/pkg/record"
	"github.com/chartforge/chartforge/pkg/stats"
	"github.com/chartforge/chartforge/pkg/telemetry"
	"github.com/chartforge/chartforge/pkg/timebucket"
	"github.com/chartforge/chartforge/pkg/transform"
)

func main() {
	sales := []record.Record{
		{"region": "east", "amount": 120.0, "sold_at": "2024-01-08"},
		{"region": "east", "amount": 80.0, "sold_at": "2024-01-21"},
		{"region": "west", "amount": 200.0, "sold_at": "2024-02-03"},
		{"region": "west", "amount": 45.0, "sold_at": "2024-02-14"},
		{"region": "north", "amount": 900.0, "sold_at": "2024-03-01"},
	}

	// Group by region, sum amounts, shape for a bar chart.
	spec := &transform.Transform{
		GroupBy:    transform.GroupBy{"region"},
		Aggregates: []aggregate.Spec{{Kind: aggregate.Sum, Field: "amount", Output: "total"}},
		Mappings: map[string]transform.Mapping{
			"category": {Source: transform.GroupKeyAlias},
			"value":    {Source: "total"},
		},
		SortBy: &transform.SortSpec{Field: "value", Descending: true},
	}

	rows, err := spec.Apply(sales)
	if err != nil {
		log.Fatalf("transform failed: %v", err)
	}
	fmt.Println("Bar chart input:")
	for _, row := range rows {
		fmt.Printf("  %-8v %v\n", row["category"], row["value"])
	}

	// Monthly series with gap filling.
	series := timebucket.GroupAndAggregate(sales, "sold_at", timebucket.Month,
		aggregate.Sum, "amount", timebucket.DefaultOptions())
	fmt.Println("\nMonthly totals:")
	for _, row := range series {
		fmt.Printf("  %-10s %v\n", row.Label, row.Value)
	}

	// Distribution summary of the amounts.
	summary := stats.Summarize(sales, "amount")
	fmt.Printf("\nAmounts: n=%d mean=%.1f median=%.1f\n", summary.Count, *summary.Mean, *summary.Median)
	if outliers := stats.Outliers(sales, "amount", stats.DefaultOutlierMultiplier); len(outliers) > 0 {
		fmt.Printf("Outliers: %v\n", outliers)
	}

	// Render through the cache twice; the second call is a hit.
	emitter := telemetry.New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	store := cache.New(cache.Config{Telemetry: emitter})
	defer store.Close()

	renderer := chart.RendererFunc(func(ctx context.Context, kind string, records []record.Record, cfg map[string]any) ([]byte, error) {
		time.Sleep(50 * time.Millisecond) // stand-in for real drawing work
		return []byte(fmt.Sprintf("<svg><!-- %s, %d rows --></svg>", kind, len(records))), nil
	})
	gen := chart.NewGenerator(renderer, store, emitter)

	for i := 0; i < 2; i++ {
		start := time.Now()
		artifact, err := gen.Generate(context.Background(), "bar", spec, sales, map[string]any{"width": 800})
		if err != nil {
			log.Fatalf("generate failed: %v", err)
		}
		fmt.Printf("\nGenerate #%d: %d bytes in %v\n", i+1, len(artifact), time.Since(start).Round(time.Millisecond))
	}

	s := store.Stats()
	fmt.Printf("Cache: %d hits, %d misses, hit rate %.0f%%\n", s.Hits, s.Misses, s.HitRate*100)
}
