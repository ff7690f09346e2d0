package timebucket

import (
	"fmt"
	"time"

	"github.com/chartforge/chartforge/pkg/record"
)

// FillOptions controls range and synthetic-record generation for FillGaps.
type FillOptions struct {
	// Start and End bound the generated bucket range inclusively. When nil
	// the range is inferred from the earliest and latest parseable dates in
	// the input.
	Start *time.Time
	End   *time.Time

	// ValueField names the field that synthetic records carry FillValue on.
	ValueField string
	FillValue  any

	Calendar Options
}

// FillGaps generates every bucket boundary in [start, end] and inserts a
// synthetic record for each period the input does not cover. Synthetic
// records have the date field set to the bucket start and ValueField set to
// FillValue.
//
// Precedence rule: at most one input record is retained per period; when
// several records land in the same bucket the first encountered wins. This
// is a documented policy, not an aggregation. Records with unparseable
// dates are dropped since they have no period.
func FillGaps(recs []record.Record, dateField string, kind Kind, opts FillOptions) ([]record.Record, error) {
	firstPerPeriod := make(map[time.Time]record.Record)
	var earliest, latest time.Time

	for _, rec := range recs {
		t, ok := ParseTime(record.Field(rec, dateField))
		if !ok {
			continue
		}
		start := Start(t, kind, opts.Calendar)
		if _, seen := firstPerPeriod[start]; !seen {
			firstPerPeriod[start] = rec
		}
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
		if latest.IsZero() || start.After(latest) {
			latest = start
		}
	}

	rangeStart, rangeEnd := earliest, latest
	if opts.Start != nil {
		rangeStart = Start(*opts.Start, kind, opts.Calendar)
	}
	if opts.End != nil {
		rangeEnd = Start(*opts.End, kind, opts.Calendar)
	}
	if rangeStart.IsZero() || rangeEnd.IsZero() {
		// No explicit range and nothing to infer from.
		return nil, nil
	}
	if rangeEnd.Before(rangeStart) {
		return nil, fmt.Errorf("fill gaps: range end %s before start %s", rangeEnd, rangeStart)
	}

	var out []record.Record
	for cur := rangeStart; !cur.After(rangeEnd); cur = Step(cur, kind) {
		if rec, ok := firstPerPeriod[cur]; ok {
			out = append(out, rec)
			continue
		}
		synthetic := record.Record{dateField: cur}
		if opts.ValueField != "" {
			synthetic[opts.ValueField] = opts.FillValue
		}
		out = append(out, synthetic)
	}
	return out, nil
}
