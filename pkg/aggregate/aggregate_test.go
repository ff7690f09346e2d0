package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/chartforge/chartforge/pkg/record"
)

func recs(values ...any) []record.Record {
	out := make([]record.Record, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = record.Record{}
		} else {
			out[i] = record.Record{"x": v}
		}
	}
	return out
}

func TestSumField_SkipsNullsAndNonNumerics(t *testing.T) {
	data := recs(1, nil, 3.5, "ten", 2)

	if got := SumField(data, "x"); got != 6.5 {
		t.Errorf("Expected 6.5, got %v", got)
	}
}

func TestSumField_MixedDecimalAndFloat(t *testing.T) {
	data := recs(decimal.NewFromFloat(1.25), 2.75, decimal.NewFromInt(4))

	if got := SumField(data, "x"); got != 8 {
		t.Errorf("Expected 8, got %v", got)
	}
}

func TestCountField_NullSafety(t *testing.T) {
	data := []record.Record{{"x": 1}, {"x": nil}, {"x": 3}}

	if got := CountField(data, "x"); got != 2 {
		t.Errorf("Expected 2, got %d", got)
	}
}

func TestAvgField_EmptyIsZero(t *testing.T) {
	if got := AvgField(nil, "x"); got != 0 {
		t.Errorf("Expected 0 on empty input, got %v", got)
	}
	if got := AvgField(recs(nil, "n/a"), "x"); got != 0 {
		t.Errorf("Expected 0 when no numeric values, got %v", got)
	}
}

func TestAvgField_Basic(t *testing.T) {
	if got := AvgField(recs(2, 4, nil, 6), "x"); got != 4 {
		t.Errorf("Expected 4, got %v", got)
	}
}

func TestMinMax_AbsentWhenNoValues(t *testing.T) {
	if _, ok := MinField(recs(nil, "a"), "x"); ok {
		t.Error("Expected min to be absent")
	}
	if _, ok := MaxField(nil, "x"); ok {
		t.Error("Expected max to be absent")
	}

	if v, ok := MinField(recs(3, -1, 2), "x"); !ok || v != -1 {
		t.Errorf("Expected min -1, got %v,%v", v, ok)
	}
	if v, ok := MaxField(recs(3, -1, 2), "x"); !ok || v != 3 {
		t.Errorf("Expected max 3, got %v,%v", v, ok)
	}
}

func TestApply_Dispatch(t *testing.T) {
	data := recs(1, 2, 3)

	if got := Apply(Count, data, "x"); got != 3 {
		t.Errorf("count = %v", got)
	}
	if got := Apply(Count, data, ""); got != 3 {
		t.Errorf("bare count = %v", got)
	}
	if got := Apply(Sum, data, "x"); got != 6.0 {
		t.Errorf("sum = %v", got)
	}
	if got := Apply(Min, recs(nil), "x"); got != nil {
		t.Errorf("min over nulls = %v, want nil", got)
	}
}

func TestSpec_Validate(t *testing.T) {
	cases := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"valid sum", Spec{Kind: Sum, Field: "amount", Output: "total"}, false},
		{"count without field", Spec{Kind: Count, Output: "n"}, false},
		{"missing output", Spec{Kind: Sum, Field: "amount"}, true},
		{"sum without field", Spec{Kind: Sum, Output: "total"}, true},
		{"unknown kind", Spec{Kind: "median", Field: "x", Output: "m"}, true},
	}

	for _, c := range cases {
		err := c.spec.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", c.name, err, c.wantErr)
		}
	}
}
