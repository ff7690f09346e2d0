// Package aggregate provides the numeric fold functions used by the
// transform pipeline: sum, count, avg, min, max over a record field.
//
// Null handling is uniform: a record whose target field is absent or
// non-numeric is skipped, never an error. Decimal values (shopspring) are
// folded alongside native floats via record.Numeric.
package aggregate

import (
	"fmt"

	"github.com/chartforge/chartforge/pkg/record"
)

// Kind identifies an aggregation function.
type Kind string

const (
	Count Kind = "count"
	Sum   Kind = "sum"
	Avg   Kind = "avg"
	Min   Kind = "min"
	Max   Kind = "max"
)

// ParseKind validates a kind tag coming from an external specification.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Count, Sum, Avg, Min, Max:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown aggregate kind %q", s)
	}
}

// Spec describes one aggregation to run per group.
type Spec struct {
	Kind   Kind   `json:"kind"`
	Field  string `json:"field,omitempty"` // not required for count
	Output string `json:"output"`
}

// Validate checks the invariants a spec must hold before any records flow.
func (s Spec) Validate() error {
	if s.Output == "" {
		return fmt.Errorf("aggregate spec: output name is required")
	}
	if _, err := ParseKind(string(s.Kind)); err != nil {
		return fmt.Errorf("aggregate spec %q: %w", s.Output, err)
	}
	if s.Kind != Count && s.Field == "" {
		return fmt.Errorf("aggregate spec %q: kind %s requires a field", s.Output, s.Kind)
	}
	return nil
}

// SumField folds from 0, skipping absent and non-numeric values.
func SumField(recs []record.Record, field string) float64 {
	total := 0.0
	for _, rec := range recs {
		if v, ok := record.NumericField(rec, field); ok {
			total += v
		}
	}
	return total
}

// CountField counts records whose field is non-null.
func CountField(recs []record.Record, field string) int {
	n := 0
	for _, rec := range recs {
		if record.Field(rec, field) != nil {
			n++
		}
	}
	return n
}

// AvgField returns sum/count over numeric values, 0.0 on an empty fold.
func AvgField(recs []record.Record, field string) float64 {
	total := 0.0
	n := 0
	for _, rec := range recs {
		if v, ok := record.NumericField(rec, field); ok {
			total += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// MinField returns the smallest numeric value. ok=false when no numeric
// values exist.
func MinField(recs []record.Record, field string) (float64, bool) {
	min, found := 0.0, false
	for _, rec := range recs {
		if v, ok := record.NumericField(rec, field); ok {
			if !found || v < min {
				min = v
			}
			found = true
		}
	}
	return min, found
}

// MaxField returns the largest numeric value. ok=false when no numeric
// values exist.
func MaxField(recs []record.Record, field string) (float64, bool) {
	max, found := 0.0, false
	for _, rec := range recs {
		if v, ok := record.NumericField(rec, field); ok {
			if !found || v > max {
				max = v
			}
			found = true
		}
	}
	return max, found
}

// Apply dispatches on kind. Count returns int, sum/avg float64, min/max
// float64 or nil when no values exist.
func Apply(kind Kind, recs []record.Record, field string) any {
	switch kind {
	case Count:
		if field == "" {
			return len(recs)
		}
		return CountField(recs, field)
	case Sum:
		return SumField(recs, field)
	case Avg:
		return AvgField(recs, field)
	case Min:
		if v, ok := MinField(recs, field); ok {
			return v
		}
		return nil
	case Max:
		if v, ok := MaxField(recs, field); ok {
			return v
		}
		return nil
	default:
		// ParseKind gates every externally supplied tag, so this is a
		// programmer error.
		panic(fmt.Sprintf("aggregate: unhandled kind %q", kind))
	}
}

// Values extracts the sorted-input-order numeric values of a field. Shared
// by the stats package.
func Values(recs []record.Record, field string) []float64 {
	out := make([]float64, 0, len(recs))
	for _, rec := range recs {
		if v, ok := record.NumericField(rec, field); ok {
			out = append(out, v)
		}
	}
	return out
}
