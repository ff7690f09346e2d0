// Package stats computes descriptive statistics over record fields:
// interpolated percentiles, quartiles, variance, standard deviation, and
// IQR-based outlier detection.
//
// Every function tolerates absent and non-numeric values by excluding them
// from the sample, matching the aggregate package's null handling. "No
// result" is reported through an ok flag, never NaN or an error.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/chartforge/chartforge/pkg/aggregate"
	"github.com/chartforge/chartforge/pkg/record"
)

// DefaultOutlierMultiplier is the conventional IQR fence factor.
const DefaultOutlierMultiplier = 1.5

// Quartiles holds the 25th/50th/75th percentile values.
type Quartiles struct {
	Q1 float64
	Q2 float64
	Q3 float64
}

// IQR is the interquartile range.
func (q Quartiles) IQR() float64 {
	return q.Q3 - q.Q1
}

// Percentile returns the p-th percentile (p in [0,100]) of a field's
// numeric values using linear interpolation between closest ranks.
// ok=false when no numeric values exist. An out-of-range p is a
// specification error.
func Percentile(recs []record.Record, field string, p float64) (float64, bool, error) {
	if p < 0 || p > 100 {
		return 0, false, fmt.Errorf("percentile %v out of range [0,100]", p)
	}

	values := aggregate.Values(recs, field)
	if len(values) == 0 {
		return 0, false, nil
	}
	sort.Float64s(values)

	rank := p / 100 * float64(len(values)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return values[lo], true, nil
	}

	frac := rank - float64(lo)
	return values[lo] + (values[hi]-values[lo])*frac, true, nil
}

// QuartilesOf computes Q1/Q2/Q3. ok=false on an empty sample.
func QuartilesOf(recs []record.Record, field string) (Quartiles, bool) {
	q1, ok, _ := Percentile(recs, field, 25)
	if !ok {
		return Quartiles{}, false
	}
	q2, _, _ := Percentile(recs, field, 50)
	q3, _, _ := Percentile(recs, field, 75)
	return Quartiles{Q1: q1, Q2: q2, Q3: q3}, true
}

// Variance returns the mean-centered sum of squares divided by n
// (population) or n-1 (sample). Requires at least 2 values.
func Variance(recs []record.Record, field string, population bool) (float64, bool) {
	values := aggregate.Values(recs, field)
	if len(values) < 2 {
		return 0, false
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}

	if population {
		return ss / float64(len(values)), true
	}
	return ss / float64(len(values)-1), true
}

// StdDev is the square root of Variance with the same sample/population
// semantics.
func StdDev(recs []record.Record, field string, population bool) (float64, bool) {
	v, ok := Variance(recs, field, population)
	if !ok {
		return 0, false
	}
	return math.Sqrt(v), true
}

// Outliers returns the values lying strictly outside the IQR fence
// [q1 - multiplier*IQR, q3 + multiplier*IQR]. When quartiles cannot be
// computed the result is empty, not an error.
func Outliers(recs []record.Record, field string, multiplier float64) []float64 {
	q, ok := QuartilesOf(recs, field)
	if !ok {
		return nil
	}

	iqr := q.IQR()
	lower := q.Q1 - multiplier*iqr
	upper := q.Q3 + multiplier*iqr

	var out []float64
	for _, v := range aggregate.Values(recs, field) {
		if v < lower || v > upper {
			out = append(out, v)
		}
	}
	return out
}

// Summary describes one field's distribution. Count is always set; the
// pointer fields are nil when the dataset has no numeric values.
type Summary struct {
	Count  int
	Min    *float64
	Max    *float64
	Mean   *float64
	Median *float64
	Q1     *float64
	Q3     *float64
	StdDev *float64
}

// Summarize computes a full distribution summary for a field.
func Summarize(recs []record.Record, field string) Summary {
	s := Summary{Count: aggregate.CountField(recs, field)}

	if min, ok := aggregate.MinField(recs, field); ok {
		s.Min = &min
		max, _ := aggregate.MaxField(recs, field)
		s.Max = &max
		mean := aggregate.AvgField(recs, field)
		s.Mean = &mean
	}
	if q, ok := QuartilesOf(recs, field); ok {
		s.Median = &q.Q2
		s.Q1 = &q.Q1
		s.Q3 = &q.Q3
	}
	if sd, ok := StdDev(recs, field, false); ok {
		s.StdDev = &sd
	}
	return s
}
