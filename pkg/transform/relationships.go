package transform

import (
	"sort"
	"strings"
)

// DetectRelationships statically analyzes a Transform and returns the
// minimal ordered set of relationship paths the upstream query layer must
// eagerly load. A dotted path a.b.c contributes the prefixes "a" and "a.b";
// the final segment addresses a field, not a link. Calendar (field, period)
// group keys are excluded entirely.
//
// No records are touched: this runs once per transform, before execution.
func DetectRelationships(t *Transform) []string {
	var paths []string
	seen := make(map[string]bool)

	add := func(dotted string) {
		segs := strings.Split(dotted, ".")
		for i := 1; i < len(segs); i++ {
			prefix := strings.Join(segs[:i], ".")
			if !seen[prefix] {
				seen[prefix] = true
				paths = append(paths, prefix)
			}
		}
	}

	if len(t.GroupBy) > 0 && !t.GroupBy.IsCalendar() {
		add(t.GroupBy.Path())
	}
	for _, a := range t.Aggregates {
		if a.Field != "" {
			add(a.Field)
		}
	}
	// Mapping iteration is sorted so the preload hint list is stable.
	outputs := make([]string, 0, len(t.Mappings))
	for field := range t.Mappings {
		outputs = append(outputs, field)
	}
	sort.Strings(outputs)
	for _, field := range outputs {
		if src := t.Mappings[field].Source; src != GroupKeyAlias {
			add(src)
		}
	}

	return paths
}
