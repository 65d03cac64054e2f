package retrieval

import (
	"strings"

	"github.com/rs/zerolog"

	"school-assistant/internal/domain/model"
)

// Executor applies a retrieval plan to a data snapshot.
type Executor struct {
	relations []RelationGroup
	log       *zerolog.Logger
}

func NewExecutor(relations []RelationGroup, logger *zerolog.Logger) *Executor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Executor{relations: relations, log: logger}
}

// Execute returns the subset selected by plan. Unknown sources are ignored.
// A search without usable filters yields the source text unmodified; otherwise
// rows must satisfy every filter and a search that keeps no rows is omitted.
func (e *Executor) Execute(plan model.RetrievalPlan, snap *model.DataSnapshot) *Subset {
	out := NewSubset()
	parsed := make(map[string]*Table)
	tables := func(name string) (*Table, bool) {
		if t, ok := parsed[name]; ok {
			return t, t != nil
		}
		raw, ok := snap.Data[name]
		if !ok {
			return nil, false
		}
		t, err := ParseTable(raw)
		if err != nil {
			e.log.Warn().Err(err).Str("source", name).Msg("source is not valid csv; skipping")
			parsed[name] = nil
			return nil, false
		}
		parsed[name] = t
		return t, true
	}

	type hit struct {
		name  string
		table *Table
		kept  [][]string
	}
	planned := make(map[string]bool)
	var hits []hit
	for _, search := range plan.Searches {
		name := strings.ToUpper(strings.TrimSpace(search.SourceName))
		raw, ok := snap.Data[name]
		if !ok {
			e.log.Debug().Str("source", search.SourceName).Msg("plan names an unknown source; ignoring")
			continue
		}
		if planned[name] {
			continue
		}
		planned[name] = true

		filters := usableFilters(search.Filters)
		if len(filters) == 0 {
			out.Add(name, raw)
			continue
		}

		table, ok := tables(name)
		if !ok {
			continue
		}
		kept := applyFilters(table, filters)
		if len(kept) == 0 {
			continue
		}
		out.Add(name, table.Encode(kept))
		hits = append(hits, hit{name: name, table: table, kept: kept})
	}

	// Expansion runs only after every explicit search so that it never
	// stands in for a source the plan asked for.
	skip := func(name string) bool { return planned[name] || out.Has(name) }
	for _, h := range hits {
		expandRelations(h.name, h.table, h.kept, e.relations, tables, skip, out)
	}
	return out
}

func usableFilters(in []model.Filter) []model.Filter {
	out := make([]model.Filter, 0, len(in))
	for _, f := range in {
		if strings.TrimSpace(f.Column) == "" || strings.TrimSpace(f.Value) == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func applyFilters(t *Table, filters []model.Filter) [][]string {
	cols := make([]int, len(filters))
	for i, f := range filters {
		cols[i] = t.Column(f.Column)
		if cols[i] < 0 {
			return nil
		}
	}
	var kept [][]string
rows:
	for _, row := range t.Rows {
		for i, f := range filters {
			cell, ok := Cell(row, cols[i])
			if !ok || !matches(t.Headers[cols[i]], cell, f.Value) {
				continue rows
			}
		}
		kept = append(kept, row)
	}
	return kept
}
