package adapter

import (
	"context"

	"school-assistant/internal/domain/model"
)

// SourceFetcher retrieves the raw delimited text behind one data source URL.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// DataProvider returns the current data snapshot, refreshing it when stale.
type DataProvider interface {
	Get(ctx context.Context) (*model.DataSnapshot, error)
}
