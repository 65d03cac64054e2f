package retrieval

import (
	"encoding/json"
	"math/rand/v2"

	"school-assistant/internal/domain/model"
)

// SchemaEntry describes one source to the planner: its headers and, when
// requested, a few random rows. Full data is never included.
type SchemaEntry struct {
	Headers    []string            `json:"headers"`
	SampleRows []map[string]string `json:"sampleRows,omitempty"`
}

// BuildSchema returns the schema context for every parseable source in snap.
// rng may be nil when samples is zero.
func BuildSchema(snap *model.DataSnapshot, samples int, rng *rand.Rand) map[string]SchemaEntry {
	out := make(map[string]SchemaEntry, len(snap.Names))
	for _, name := range snap.Names {
		t, err := ParseTable(snap.Data[name])
		if err != nil || len(t.Headers) == 0 {
			continue
		}
		entry := SchemaEntry{Headers: t.Headers}
		if samples > 0 && rng != nil && len(t.Rows) > 0 {
			n := min(samples, len(t.Rows))
			for _, idx := range rng.Perm(len(t.Rows))[:n] {
				entry.SampleRows = append(entry.SampleRows, rowMap(t.Headers, t.Rows[idx]))
			}
		}
		out[name] = entry
	}
	return out
}

// SchemaJSON renders the schema context for a prompt.
func SchemaJSON(schema map[string]SchemaEntry) string {
	b, err := json.Marshal(schema)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func rowMap(headers, row []string) map[string]string {
	m := make(map[string]string, len(headers))
	for i, h := range headers {
		if v, ok := Cell(row, i); ok {
			m[h] = v
		}
	}
	return m
}
