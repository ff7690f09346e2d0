/*
Package transform turns raw tabular records into chart-ready datasets via a
declarative, multi-stage pipeline.

# Stage Order

A Transform applies its stages in a fixed order, each a pure function of
the previous stage's output:

 1. Filter: keep records matching every FilterSpec (scalar equality or
    list membership)
 2. Group: partition by the group key - a plain field, a dotted
    relationship path, or a (field, period) calendar pair
 3. Aggregate: evaluate every aggregate spec per group; the group's first
    record is retained for mappings that reference source fields
 4. Map: resolve each output field from the group key, an aggregate
    output, a source field, a nested path, or a derived value
 5. Sort: optional, stable, by one output field
 6. Limit: optional truncation after sorting

# Failure Semantics

Specification errors (missing filter field, duplicate aggregate outputs,
negative limit) are caught by Validate before any records flow. Data
problems - null fields, broken relationship links, unparseable dates - are
never fatal: they resolve to nil keys or the unknown bucket. Anything
unexpected inside a stage is recovered at the Apply boundary and returned
as a single *PipelineError naming the stage; a partial record collection
never escapes.

# Relationship Detection

DetectRelationships statically lists the relationship paths a transform
touches, so the upstream query layer can eager-load them instead of paying
a lookup per record:

	t := &transform.Transform{GroupBy: transform.GroupBy{"product", "category", "name"}}
	transform.DetectRelationships(t) // ["product", "product.category"]

# Example

	t := &transform.Transform{
	    GroupBy:    transform.GroupBy{"status"},
	    Aggregates: []aggregate.Spec{{Kind: aggregate.Count, Output: "total"}},
	    Mappings: map[string]transform.Mapping{
	        "category": {Source: transform.GroupKeyAlias},
	        "value":    {Source: "total"},
	    },
	}
	rows, err := t.Apply(records)

A Transform is immutable during execution: Apply never writes to the
Transform or to the input records, so one Transform can serve many batches
concurrently.
*/
package transform
