package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"school-assistant/internal/domain"
	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

const maxUpdateAttempts = 8

// JobRepo stores jobs as JSON under job:<id>. The TTL is set once on create;
// updates keep the remaining TTL and never extend it.
type JobRepo struct {
	client *Client
	ttl    time.Duration
}

func NewJobRepo(client *Client, ttl time.Duration) *JobRepo {
	return &JobRepo{client: client, ttl: ttl}
}

func jobKey(id string) string { return "job:" + id }

func (r *JobRepo) Create(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	ok, err := r.client.cli.SetNX(ctx, jobKey(job.ID), data, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: job %s already exists", domain.ErrInvalidArgument, job.ID)
	}
	return nil
}

func (r *JobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := r.client.cli.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeJob(data)
}

// Update loads the current job, applies fn and writes it back under WATCH.
// A concurrent writer aborts the transaction and the whole cycle reruns with
// fresh state, so fn always sees the latest stored job.
func (r *JobRepo) Update(ctx context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	key := jobKey(id)
	var out *model.Job

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		job, err := decodeJob(data)
		if err != nil {
			return err
		}
		if err := fn(job); err != nil {
			return err
		}
		next, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal job: %w", err)
		}
		var set *redis.BoolCmd
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			set = p.SetXX(ctx, key, next, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		if !set.Val() {
			return domain.ErrNotFound
		}
		out = job
		return nil
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.client.cli.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update job %s: too much contention", id)
}

func decodeJob(data []byte) (*model.Job, error) {
	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
