package model

import "time"

// Filter is interpreted as a case-insensitive substring match of Value
// against the row's Column field.
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Search names one source and the filters to apply to it. An empty filter
// list means the whole source.
type Search struct {
	SourceName string   `json:"sheetName"`
	Filters    []Filter `json:"filters"`
}

// RetrievalPlan is produced by the planner and consumed at once by the filter
// executor. It is never persisted.
type RetrievalPlan struct {
	Searches []Search `json:"searches"`
}

func (p RetrievalPlan) Empty() bool { return len(p.Searches) == 0 }

// DataSource is one configured external table.
type DataSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DataSnapshot is one all-or-nothing load of every configured source: raw
// delimited text by upper-case source name, the names in configured order and
// the single timestamp of the load.
type DataSnapshot struct {
	Data      map[string]string
	Names     []string
	FetchedAt time.Time
}
