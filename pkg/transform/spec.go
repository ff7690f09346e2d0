package transform

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/chartforge/chartforge/pkg/aggregate"
	"github.com/chartforge/chartforge/pkg/record"
	"github.com/chartforge/chartforge/pkg/timebucket"
)

// GroupKeyAlias is the mapping source that resolves to the group's key.
const GroupKeyAlias = "$group"

// FilterSpec keeps records whose field equals a scalar value or is a member
// of a list value.
type FilterSpec struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Validate enforces the filter invariants eagerly, before any records flow.
func (f FilterSpec) Validate() error {
	if f.Field == "" {
		return fmt.Errorf("filter: field is required")
	}
	if f.Value == nil {
		return fmt.Errorf("filter on %q: value is required", f.Field)
	}
	return nil
}

// Matches reports whether rec passes the filter.
func (f FilterSpec) Matches(rec map[string]any) bool {
	got := rec[f.Field]

	rv := reflect.ValueOf(f.Value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if equalValue(got, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return equalValue(got, f.Value)
}

// equalValue compares loosely enough that 2 matches 2.0, since record
// batches routinely mix JSON-decoded floats with native ints.
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	af, aok := record.Numeric(a)
	bf, bok := record.Numeric(b)
	return aok && bok && af == bf
}

// GroupBy is the partition key: a single field, a tuple of nested path
// segments, or a (field, period) calendar pair. Calendar grouping takes
// precedence when the second segment names a bucket kind.
type GroupBy []string

// IsCalendar reports whether the key is a (field, period) pair.
func (g GroupBy) IsCalendar() bool {
	return len(g) == 2 && timebucket.IsKind(g[1])
}

// CalendarKind returns the period of a calendar key.
func (g GroupBy) CalendarKind() timebucket.Kind {
	k, _ := timebucket.ParseKind(g[1])
	return k
}

// Path renders the key as a dotted lookup path.
func (g GroupBy) Path() string {
	return strings.Join(g, ".")
}

// Mapping resolves one output field. Source is tried in order as the group
// key alias, an aggregate output name, a source-record field, and a nested
// path. A non-zero AddDays derives a new date by shifting the source date
// field by that many days.
type Mapping struct {
	Source  string `json:"source"`
	AddDays int    `json:"addDays,omitempty"`
}

// SortSpec orders output by one field.
type SortSpec struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

// Transform is the declarative specification for one chart's dataset. It is
// constructed once, validated, then applied to any number of record
// batches; Apply never mutates it.
type Transform struct {
	Filters    []FilterSpec       `json:"filters,omitempty"`
	GroupBy    GroupBy            `json:"groupBy,omitempty"`
	Aggregates []aggregate.Spec   `json:"aggregates,omitempty"`
	Mappings   map[string]Mapping `json:"mappings,omitempty"`
	SortBy     *SortSpec          `json:"sortBy,omitempty"`
	Limit      int                `json:"limit,omitempty"` // 0 means no limit
}

// Validate detects specification errors eagerly so they never surface
// mid-pipeline.
func (t *Transform) Validate() error {
	for _, f := range t.Filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(t.Aggregates))
	for _, a := range t.Aggregates {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.Output] {
			return fmt.Errorf("aggregate output %q is duplicated", a.Output)
		}
		seen[a.Output] = true
	}

	if len(t.GroupBy) > 0 && t.GroupBy[0] == "" {
		return fmt.Errorf("group by: field is required")
	}
	if t.SortBy != nil && t.SortBy.Field == "" {
		return fmt.Errorf("sort by: field is required")
	}
	if t.Limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", t.Limit)
	}
	return nil
}
