// Package pivot reshapes long-format grouped data into wide pivot tables
// and back: pivoting, multi-key grouping, transposition, heatmap
// flattening, and nested-group flattening.
package pivot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chartforge/chartforge/pkg/aggregate"
	"github.com/chartforge/chartforge/pkg/record"
)

// Table is a wide pivot table. Columns holds the distinct column values in
// sorted order; every row carries a cell for every column.
type Table struct {
	RowField    string
	ColumnField string
	Columns     []string
	Rows        []Row
}

// Row is one pivot row keyed by its row-field value.
type Row struct {
	Key   string
	Cells map[string]any
}

// Pivot reshapes records into a row×column table. Each cell aggregates the
// records matching both the row and column value; cells with no matching
// records hold fillValue.
func Pivot(recs []record.Record, rowField, columnField, valueField string, kind aggregate.Kind, fillValue any) (*Table, error) {
	if rowField == "" || columnField == "" {
		return nil, fmt.Errorf("pivot: row and column fields are required")
	}
	if _, err := aggregate.ParseKind(string(kind)); err != nil {
		return nil, fmt.Errorf("pivot: %w", err)
	}

	columns := distinctSorted(recs, columnField)

	// Group by row value, preserving first-seen order before sorting keys.
	byRow := make(map[string][]record.Record)
	var rowKeys []string
	for _, rec := range recs {
		v := record.Field(rec, rowField)
		if v == nil {
			continue
		}
		key := stringify(v)
		if _, seen := byRow[key]; !seen {
			rowKeys = append(rowKeys, key)
		}
		byRow[key] = append(byRow[key], rec)
	}
	sort.Strings(rowKeys)

	rows := make([]Row, 0, len(rowKeys))
	for _, key := range rowKeys {
		cells := make(map[string]any, len(columns))
		for _, col := range columns {
			var matching []record.Record
			for _, rec := range byRow[key] {
				if v := record.Field(rec, columnField); v != nil && stringify(v) == col {
					matching = append(matching, rec)
				}
			}
			if len(matching) == 0 {
				cells[col] = fillValue
			} else {
				cells[col] = aggregate.Apply(kind, matching, valueField)
			}
		}
		rows = append(rows, Row{Key: key, Cells: cells})
	}

	return &Table{
		RowField:    rowField,
		ColumnField: columnField,
		Columns:     columns,
		Rows:        rows,
	}, nil
}

// GroupByMultiple groups records by a tuple of fields and aggregates
// valueField per tuple, producing one flat record per key tuple sorted by
// the tuple.
func GroupByMultiple(recs []record.Record, fields []string, valueField string, kind aggregate.Kind) ([]record.Record, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("group by multiple: at least one field is required")
	}
	if _, err := aggregate.ParseKind(string(kind)); err != nil {
		return nil, fmt.Errorf("group by multiple: %w", err)
	}

	type group struct {
		values  []any
		members []record.Record
	}
	groups := make(map[string]*group)
	var keys []string

	for _, rec := range recs {
		values := make([]any, len(fields))
		parts := make([]string, len(fields))
		for i, f := range fields {
			values[i] = record.Field(rec, f)
			parts[i] = stringify(values[i])
		}
		key := strings.Join(parts, "\x00")
		g, seen := groups[key]
		if !seen {
			g = &group{values: values}
			groups[key] = g
			keys = append(keys, key)
		}
		g.members = append(g.members, rec)
	}
	sort.Strings(keys)

	out := make([]record.Record, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		rec := make(record.Record, len(fields)+1)
		for i, f := range fields {
			rec[f] = g.values[i]
		}
		rec["value"] = aggregate.Apply(kind, g.members, valueField)
		out = append(out, rec)
	}
	return out, nil
}

// Transpose swaps the row identifiers and the column set. The table must be
// non-empty and rectangular.
func Transpose(t *Table) (*Table, error) {
	if t == nil || len(t.Rows) == 0 || len(t.Columns) == 0 {
		return nil, fmt.Errorf("transpose: table must be non-empty")
	}
	for _, row := range t.Rows {
		if len(row.Cells) != len(t.Columns) {
			return nil, fmt.Errorf("transpose: row %q has %d cells, expected %d", row.Key, len(row.Cells), len(t.Columns))
		}
	}

	newColumns := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		newColumns[i] = row.Key
	}

	rows := make([]Row, len(t.Columns))
	for i, col := range t.Columns {
		cells := make(map[string]any, len(t.Rows))
		for _, row := range t.Rows {
			cells[row.Key] = row.Cells[col]
		}
		rows[i] = Row{Key: col, Cells: cells}
	}

	return &Table{
		RowField:    t.ColumnField,
		ColumnField: t.RowField,
		Columns:     newColumns,
		Rows:        rows,
	}, nil
}

// Cell is one heatmap point: column value on x, row value on y.
type Cell struct {
	X     string  `json:"x"`
	Y     string  `json:"y"`
	Value float64 `json:"value"`
}

// ToHeatmap flattens a pivot table into (x, y, value) triples. Cells whose
// value is absent or non-numeric become 0.
func ToHeatmap(t *Table) []Cell {
	if t == nil {
		return nil
	}
	cells := make([]Cell, 0, len(t.Rows)*len(t.Columns))
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			v := 0.0
			if n, ok := record.Numeric(row.Cells[col]); ok {
				v = n
			}
			cells = append(cells, Cell{X: col, Y: row.Key, Value: v})
		}
	}
	return cells
}

// Flatten walks a nested group tree and emits one flat record per leaf.
// keyFields names the field for each nesting level and bounds the
// recursion depth; leaves deeper than len(keyFields) are ignored. Leaf
// values land on the "value" field.
func Flatten(nested map[string]any, keyFields []string) []record.Record {
	var out []record.Record
	flattenInto(nested, keyFields, record.Record{}, &out)

	sort.Slice(out, func(i, j int) bool {
		for _, f := range keyFields {
			a, b := stringify(out[i][f]), stringify(out[j][f])
			if a != b {
				return a < b
			}
		}
		return false
	})
	return out
}

func flattenInto(node map[string]any, keyFields []string, prefix record.Record, out *[]record.Record) {
	if len(keyFields) == 0 {
		return
	}
	field, rest := keyFields[0], keyFields[1:]

	for key, child := range node {
		rec := record.Clone(prefix)
		rec[field] = key

		if sub, ok := child.(map[string]any); ok && len(rest) > 0 {
			flattenInto(sub, rest, rec, out)
			continue
		}
		rec["value"] = child
		*out = append(*out, rec)
	}
}

func distinctSorted(recs []record.Record, field string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range recs {
		v := record.Field(rec, field)
		if v == nil {
			continue
		}
		s := stringify(v)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
