package record

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is a single row of chart input data. A nil value and a missing key
// both mean the field is absent; aggregations skip absent fields.
type Record = map[string]any

// Field returns the value stored under name, or nil when absent.
func Field(rec Record, name string) any {
	if rec == nil {
		return nil
	}
	return rec[name]
}

// Path resolves a dotted path like "product.category.name" across nested
// records. Any missing or non-record intermediate link yields nil rather
// than an error, so callers can treat broken relationship links as absent
// data.
func Path(rec Record, path string) any {
	if rec == nil || path == "" {
		return nil
	}
	if !strings.Contains(path, ".") {
		return rec[path]
	}

	var cur any = rec
	for _, seg := range strings.Split(path, ".") {
		m, ok := asRecord(cur)
		if !ok {
			return nil
		}
		cur = m[seg]
		if cur == nil {
			return nil
		}
	}
	return cur
}

// asRecord normalizes the map shapes that show up after JSON decoding.
func asRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]string:
		out := make(Record, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Numeric coerces a field value to float64. It accepts native Go numerics,
// decimal.Decimal (converted to its float representation so decimals and
// floats can share one fold), and json.Number. Everything else reports
// ok=false and is skipped by aggregations.
func Numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	case *decimal.Decimal:
		if n == nil {
			return 0, false
		}
		f, _ := n.Float64()
		return f, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// NumericField is Numeric applied to a named field.
func NumericField(rec Record, field string) (float64, bool) {
	return Numeric(Field(rec, field))
}

// Clone returns a shallow copy of rec. Pipeline stages copy before mutating
// so the caller's input collection is never changed.
func Clone(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// CloneAll shallow-copies a record collection.
func CloneAll(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, rec := range recs {
		out[i] = Clone(rec)
	}
	return out
}
