package cache

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/chartforge/chartforge/pkg/record"
)

// Key derives the content-addressed cache key for one chart request. The
// triple is serialized to canonical JSON (encoding/json writes map keys in
// sorted order) and hashed, so logically identical requests collide to the
// same key regardless of map ordering, and any difference in kind, records,
// or configuration yields a different key.
func Key(kind string, records []record.Record, cfg map[string]any) string {
	payload := struct {
		Kind    string          `json:"kind"`
		Records []record.Record `json:"records"`
		Config  map[string]any  `json:"config"`
	}{kind, records, cfg}

	data, err := json.Marshal(payload)
	if err != nil {
		// Records carried an unmarshalable value; fall back to the
		// formatted representation rather than failing chart generation.
		data = []byte(fmt.Sprintf("%s|%v|%v", kind, records, cfg))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
