package stats

import (
	"math"
	"testing"

	"github.com/chartforge/chartforge/pkg/record"
)

func recsOf(values ...float64) []record.Record {
	out := make([]record.Record, len(values))
	for i, v := range values {
		out[i] = record.Record{"value": v}
	}
	return out
}

func TestPercentile_Interpolation(t *testing.T) {
	data := recsOf(10, 20, 30, 40, 50)

	if v, ok, err := Percentile(data, "value", 50); err != nil || !ok || v != 30 {
		t.Errorf("p50 = %v,%v,%v, want 30", v, ok, err)
	}
	if v, _, _ := Percentile(data, "value", 25); v != 20 {
		t.Errorf("p25 = %v, want 20", v)
	}
	if v, _, _ := Percentile(data, "value", 0); v != 10 {
		t.Errorf("p0 = %v, want 10", v)
	}
	if v, _, _ := Percentile(data, "value", 100); v != 50 {
		t.Errorf("p100 = %v, want 50", v)
	}

	// Fractional rank: p10 of 5 values is rank 0.4 -> 10 + 0.4*10
	if v, _, _ := Percentile(data, "value", 10); v != 14 {
		t.Errorf("p10 = %v, want 14", v)
	}
}

func TestPercentile_Empty(t *testing.T) {
	if _, ok, err := Percentile(nil, "value", 50); ok || err != nil {
		t.Errorf("Expected absent result on empty data, got ok=%v err=%v", ok, err)
	}
}

func TestPercentile_OutOfRange(t *testing.T) {
	if _, _, err := Percentile(recsOf(1), "value", 101); err == nil {
		t.Error("Expected error for p > 100")
	}
	if _, _, err := Percentile(recsOf(1), "value", -1); err == nil {
		t.Error("Expected error for p < 0")
	}
}

func TestQuartiles(t *testing.T) {
	q, ok := QuartilesOf(recsOf(10, 20, 30, 40, 50), "value")
	if !ok {
		t.Fatal("Expected quartiles to be present")
	}
	if q.Q1 != 20 || q.Q2 != 30 || q.Q3 != 40 {
		t.Errorf("Quartiles = %+v, want 20/30/40", q)
	}
	if q.IQR() != 20 {
		t.Errorf("IQR = %v, want 20", q.IQR())
	}
}

func TestVariance_SampleAndPopulation(t *testing.T) {
	data := recsOf(2, 4, 4, 4, 5, 5, 7, 9)

	if v, ok := Variance(data, "value", true); !ok || v != 4 {
		t.Errorf("population variance = %v,%v, want 4", v, ok)
	}
	if v, ok := Variance(data, "value", false); !ok || math.Abs(v-4.571428571428571) > 1e-12 {
		t.Errorf("sample variance = %v,%v", v, ok)
	}
	if sd, ok := StdDev(data, "value", true); !ok || sd != 2 {
		t.Errorf("population stddev = %v,%v, want 2", sd, ok)
	}
}

func TestVariance_NeedsTwoValues(t *testing.T) {
	if _, ok := Variance(recsOf(5), "value", false); ok {
		t.Error("Expected variance to be absent for a single value")
	}
	if _, ok := StdDev(nil, "value", false); ok {
		t.Error("Expected stddev to be absent on empty data")
	}
}

func TestOutliers_DetectsExtreme(t *testing.T) {
	data := recsOf(10, 12, 12, 13, 12, 11, 14, 13, 15, 100)

	out := Outliers(data, "value", DefaultOutlierMultiplier)
	if len(out) != 1 || out[0] != 100 {
		t.Errorf("Outliers = %v, want [100]", out)
	}
}

func TestOutliers_EmptyDataset(t *testing.T) {
	if out := Outliers(nil, "value", DefaultOutlierMultiplier); len(out) != 0 {
		t.Errorf("Expected no outliers on empty data, got %v", out)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(recsOf(10, 20, 30, 40, 50), "value")

	if s.Count != 5 {
		t.Errorf("Count = %d, want 5", s.Count)
	}
	if s.Min == nil || *s.Min != 10 || s.Max == nil || *s.Max != 50 {
		t.Errorf("Min/Max = %v/%v", s.Min, s.Max)
	}
	if s.Mean == nil || *s.Mean != 30 || s.Median == nil || *s.Median != 30 {
		t.Errorf("Mean/Median = %v/%v", s.Mean, s.Median)
	}
	if s.Q1 == nil || *s.Q1 != 20 || s.Q3 == nil || *s.Q3 != 40 {
		t.Errorf("Q1/Q3 = %v/%v", s.Q1, s.Q3)
	}
	if s.StdDev == nil {
		t.Error("Expected stddev to be present")
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, "value")

	if s.Count != 0 {
		t.Errorf("Count = %d, want 0", s.Count)
	}
	if s.Min != nil || s.Max != nil || s.Mean != nil || s.Median != nil || s.Q1 != nil || s.Q3 != nil || s.StdDev != nil {
		t.Errorf("Expected every field except Count to be absent: %+v", s)
	}
}
