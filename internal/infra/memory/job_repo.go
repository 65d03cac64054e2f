// Package memory holds process-local stand-ins for the Redis stores, used in
// dev mode and in tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"school-assistant/internal/domain"
	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// JobRepo keeps serialized jobs in a map with the same create-once TTL rules
// as the Redis store. Jobs are stored as JSON so callers never share pointers.
type JobRepo struct {
	mu    sync.Mutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func NewJobRepo(ttl time.Duration, now func() time.Time) *JobRepo {
	if now == nil {
		now = time.Now
	}
	return &JobRepo{items: make(map[string]entry), ttl: ttl, now: now}
}

func (r *JobRepo) Create(_ context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live(job.ID); ok {
		return fmt.Errorf("%w: job %s already exists", domain.ErrInvalidArgument, job.ID)
	}
	r.items[job.ID] = entry{data: data, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *JobRepo) Get(_ context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	e, ok := r.live(id)
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return decode(e.data)
}

func (r *JobRepo) Update(_ context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	job, err := decode(e.data)
	if err != nil {
		return nil, err
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	r.items[id] = entry{data: data, expiresAt: e.expiresAt}
	return job, nil
}

// live returns the entry for id, dropping it if expired. Caller holds mu.
func (r *JobRepo) live(id string) (entry, bool) {
	e, ok := r.items[id]
	if !ok {
		return entry{}, false
	}
	if !r.now().Before(e.expiresAt) {
		delete(r.items, id)
		return entry{}, false
	}
	return e, true
}

func decode(data []byte) (*model.Job, error) {
	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
