package repository

import (
	"context"

	"school-assistant/internal/domain/model"
)

// JobRepository is the Session Store holding job records under "job:<id>".
// Records carry a fixed expiry set at creation; updates never extend it.
type JobRepository interface {
	// Create stores a new record. It fails if the ID already exists.
	Create(ctx context.Context, job *model.Job) error
	// Get returns domain.ErrNotFound for unknown or expired jobs.
	Get(ctx context.Context, id string) (*model.Job, error)
	// Update loads the current record, applies fn to it and writes the result
	// back atomically. fn always sees a freshly loaded copy; if it returns an
	// error nothing is written.
	Update(ctx context.Context, id string, fn func(job *model.Job) error) (*model.Job, error)
}
