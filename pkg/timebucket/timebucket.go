package timebucket

import (
	"fmt"
	"sort"
	"time"

	"github.com/chartforge/chartforge/pkg/aggregate"
	"github.com/chartforge/chartforge/pkg/record"
)

// Kind is the calendar granularity of a bucket.
type Kind string

const (
	Hour    Kind = "hour"
	Day     Kind = "day"
	Week    Kind = "week"
	Month   Kind = "month"
	Quarter Kind = "quarter"
	Year    Kind = "year"
)

// ParseKind validates a bucket kind tag.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Hour, Day, Week, Month, Quarter, Year:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown bucket kind %q", s)
	}
}

// IsKind reports whether s names a bucket kind. The transform pipeline uses
// this to distinguish calendar group keys from relationship paths.
func IsKind(s string) bool {
	_, err := ParseKind(s)
	return err == nil
}

// Options configures calendar behavior.
type Options struct {
	// WeekStart is the weekday a week bucket begins on. Zero value means
	// Sunday in time.Weekday, so DefaultOptions sets Monday explicitly.
	WeekStart time.Weekday
}

// DefaultOptions returns the standard calendar: weeks start on Monday.
func DefaultOptions() Options {
	return Options{WeekStart: time.Monday}
}

// Start returns the canonical start instant of the bucket containing t.
func Start(t time.Time, kind Kind, opts Options) time.Time {
	y, m, d := t.Date()
	loc := t.Location()

	switch kind {
	case Hour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case Week:
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		back := (int(day.Weekday()) - int(opts.WeekStart) + 7) % 7
		return day.AddDate(0, 0, -back)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case Quarter:
		qm := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, qm, 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		panic(fmt.Sprintf("timebucket: unhandled kind %q", kind))
	}
}

// Step returns the start of the bucket after start. Month, quarter and year
// stepping is calendar-correct: variable month lengths are respected via
// AddDate rather than a fixed duration.
func Step(start time.Time, kind Kind) time.Time {
	switch kind {
	case Hour:
		return start.Add(time.Hour)
	case Day:
		return start.AddDate(0, 0, 1)
	case Week:
		return start.AddDate(0, 0, 7)
	case Month:
		return start.AddDate(0, 1, 0)
	case Quarter:
		return start.AddDate(0, 3, 0)
	case Year:
		return start.AddDate(1, 0, 0)
	default:
		panic(fmt.Sprintf("timebucket: unhandled kind %q", kind))
	}
}

// Label renders a bucket start as a human-readable axis label:
// "2024-01-15 13:00", "2024-01-15", "Week 3, 2024", "Jan 2024",
// "Q1 2024", "2024".
func Label(start time.Time, kind Kind) string {
	switch kind {
	case Hour:
		return start.Format("2006-01-02 15:04")
	case Day:
		return start.Format("2006-01-02")
	case Week:
		year, week := start.ISOWeek()
		return fmt.Sprintf("Week %d, %d", week, year)
	case Month:
		return start.Format("Jan 2006")
	case Quarter:
		q := (int(start.Month())-1)/3 + 1
		return fmt.Sprintf("Q%d %d", q, start.Year())
	case Year:
		return start.Format("2006")
	default:
		panic(fmt.Sprintf("timebucket: unhandled kind %q", kind))
	}
}

// UnknownLabel marks the bucket collecting records whose date field is
// absent or unparseable. It sorts after every real bucket.
const UnknownLabel = "Unknown"

// ParseTime coerces the date representations that appear in raw records:
// time.Time, RFC3339 strings, bare ISO dates, and epoch seconds or
// milliseconds. ok=false routes the record to the unknown bucket.
func ParseTime(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case int64:
		return fromEpoch(d), true
	case int:
		return fromEpoch(int64(d)), true
	case float64:
		return fromEpoch(int64(d)), true
	default:
		return time.Time{}, false
	}
}

// fromEpoch treats values past the year ~33658 in seconds as milliseconds.
func fromEpoch(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}

// Bucket is one calendar slice of a record collection. Unknown is set for
// the bucket of unparseable dates; its Period is the zero time.
type Bucket struct {
	Period  time.Time
	Label   string
	Records []record.Record
	Unknown bool
}

// Group partitions records into calendar buckets by dateField, sorted
// ascending by period with the unknown bucket last.
func Group(recs []record.Record, dateField string, kind Kind, opts Options) []Bucket {
	byStart := make(map[time.Time][]record.Record)
	var unknown []record.Record

	for _, rec := range recs {
		t, ok := ParseTime(record.Field(rec, dateField))
		if !ok {
			unknown = append(unknown, rec)
			continue
		}
		start := Start(t, kind, opts)
		byStart[start] = append(byStart[start], rec)
	}

	buckets := make([]Bucket, 0, len(byStart)+1)
	for start, members := range byStart {
		buckets = append(buckets, Bucket{
			Period:  start,
			Label:   Label(start, kind),
			Records: members,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Period.Before(buckets[j].Period)
	})

	if len(unknown) > 0 {
		buckets = append(buckets, Bucket{
			Label:   UnknownLabel,
			Records: unknown,
			Unknown: true,
		})
	}
	return buckets
}

// Row is a chart-ready time series point.
type Row struct {
	Period time.Time `json:"period"`
	Label  string    `json:"label"`
	Value  any       `json:"value"`
}

// GroupAndAggregate composes bucketing with one aggregation, yielding rows
// directly consumable as a chart series.
func GroupAndAggregate(recs []record.Record, dateField string, kind Kind, aggKind aggregate.Kind, valueField string, opts Options) []Row {
	buckets := Group(recs, dateField, kind, opts)
	rows := make([]Row, len(buckets))
	for i, b := range buckets {
		rows[i] = Row{
			Period: b.Period,
			Label:  b.Label,
			Value:  aggregate.Apply(aggKind, b.Records, valueField),
		}
	}
	return rows
}
