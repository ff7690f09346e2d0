package transform

import (
	"fmt"
	"sort"
	"time"

	"github.com/chartforge/chartforge/pkg/aggregate"
	"github.com/chartforge/chartforge/pkg/record"
	"github.com/chartforge/chartforge/pkg/timebucket"
)

// PipelineError is the single tagged failure a Transform application can
// produce. It names the stage that failed and wraps the cause; no partial
// record collection ever escapes alongside it.
type PipelineError struct {
	Stage string
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("transform failed at %s stage: %v", e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// group is one partition of the record collection mid-pipeline.
type group struct {
	key        any
	first      record.Record  // retained for mappings that reference source fields
	records    []record.Record
	aggregates map[string]any
}

// Apply runs the fixed stage order: filter, group, aggregate, map, sort,
// limit. The input collection is never mutated; any internal panic is
// recovered at this boundary and surfaced as a *PipelineError.
func (t *Transform) Apply(recs []record.Record) (out []record.Record, err error) {
	if verr := t.Validate(); verr != nil {
		return nil, &PipelineError{Stage: "validate", Cause: verr}
	}

	stage := "filter"
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &PipelineError{Stage: stage, Cause: fmt.Errorf("%v", r)}
		}
	}()

	filtered := t.applyFilters(recs)

	stage = "group"
	groups := t.applyGroup(filtered)

	stage = "aggregate"
	t.applyAggregates(groups)

	stage = "map"
	out = t.applyMappings(groups)

	stage = "sort"
	if t.SortBy != nil {
		sortRecords(out, *t.SortBy)
	}

	stage = "limit"
	if t.Limit > 0 && len(out) > t.Limit {
		out = out[:t.Limit]
	}
	return out, nil
}

// applyFilters keeps records matching every filter spec.
func (t *Transform) applyFilters(recs []record.Record) []record.Record {
	if len(t.Filters) == 0 {
		return recs
	}
	out := make([]record.Record, 0, len(recs))
	for _, rec := range recs {
		pass := true
		for _, f := range t.Filters {
			if !f.Matches(rec) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, rec)
		}
	}
	return out
}

// applyGroup partitions records by the group key. Calendar keys delegate to
// the timebucket engine; relationship paths resolve via nested lookup and
// treat a broken link as a nil key rather than an error.
func (t *Transform) applyGroup(recs []record.Record) []*group {
	switch {
	case len(t.GroupBy) == 0 && len(t.Aggregates) == 0:
		// Pass-through: each source record maps directly.
		groups := make([]*group, len(recs))
		for i, rec := range recs {
			groups[i] = &group{first: rec, records: []record.Record{rec}}
		}
		return groups

	case len(t.GroupBy) == 0:
		// Aggregate over the whole collection as one group.
		g := &group{records: recs}
		if len(recs) > 0 {
			g.first = recs[0]
		}
		return []*group{g}

	case t.GroupBy.IsCalendar():
		buckets := timebucket.Group(recs, t.GroupBy[0], t.GroupBy.CalendarKind(), timebucket.DefaultOptions())
		groups := make([]*group, len(buckets))
		for i, b := range buckets {
			g := &group{key: b.Label, records: b.Records}
			if len(b.Records) > 0 {
				g.first = b.Records[0]
			}
			groups[i] = g
		}
		return groups

	default:
		path := t.GroupBy.Path()
		byKey := make(map[any]*group)
		var groups []*group
		for _, rec := range recs {
			key := record.Path(rec, path)
			g, seen := byKey[keyFor(key)]
			if !seen {
				g = &group{key: key, first: rec}
				byKey[keyFor(key)] = g
				groups = append(groups, g)
			}
			g.records = append(g.records, rec)
		}
		return groups
	}
}

// keyFor makes group keys usable as map keys even for non-comparable values.
func keyFor(v any) any {
	switch v.(type) {
	case nil, string, bool, int, int64, float64, time.Time:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// applyAggregates evaluates every aggregate spec per group.
func (t *Transform) applyAggregates(groups []*group) {
	if len(t.Aggregates) == 0 {
		return
	}
	for _, g := range groups {
		g.aggregates = make(map[string]any, len(t.Aggregates))
		for _, spec := range t.Aggregates {
			g.aggregates[spec.Output] = aggregate.Apply(spec.Kind, g.records, spec.Field)
		}
	}
}

// applyMappings produces the final chart-ready shape. Without mappings the
// output is the group key plus every aggregate, or a clone of the source
// record for pass-through groups.
func (t *Transform) applyMappings(groups []*group) []record.Record {
	out := make([]record.Record, 0, len(groups))

	for _, g := range groups {
		if len(t.Mappings) == 0 {
			if g.aggregates == nil {
				out = append(out, record.Clone(g.first))
				continue
			}
			rec := make(record.Record, len(g.aggregates)+1)
			if len(t.GroupBy) > 0 {
				rec[GroupKeyAlias] = g.key
			}
			for name, v := range g.aggregates {
				rec[name] = v
			}
			out = append(out, rec)
			continue
		}

		rec := make(record.Record, len(t.Mappings))
		for field, m := range t.Mappings {
			rec[field] = resolveSource(g, m)
		}
		out = append(out, rec)
	}
	return out
}

// resolveSource tries the mapping source as, in order: the group key alias,
// an aggregate output, a source-record field, a nested path, then applies
// the derived date shift when requested.
func resolveSource(g *group, m Mapping) any {
	var v any
	switch {
	case m.Source == GroupKeyAlias:
		v = g.key
	default:
		if agg, ok := g.aggregates[m.Source]; ok {
			v = agg
		} else if direct, ok := g.first[m.Source]; ok {
			v = direct
		} else {
			v = record.Path(g.first, m.Source)
		}
	}

	if m.AddDays != 0 {
		if ts, ok := timebucket.ParseTime(v); ok {
			return ts.AddDate(0, 0, m.AddDays)
		}
		return nil
	}
	return v
}

// sortRecords orders output records stably by one field, comparing
// numerically when both values are numeric, chronologically when both parse
// as dates, and as strings otherwise. Nils sort last.
func sortRecords(recs []record.Record, spec SortSpec) {
	sort.SliceStable(recs, func(i, j int) bool {
		less := lessValue(recs[i][spec.Field], recs[j][spec.Field])
		if spec.Descending {
			return lessValue(recs[j][spec.Field], recs[i][spec.Field])
		}
		return less
	})
}

func lessValue(a, b any) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if af, aok := record.Numeric(a); aok {
		if bf, bok := record.Numeric(b); bok {
			return af < bf
		}
	}
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Before(bt)
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
