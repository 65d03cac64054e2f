package dispatch

import (
	"context"
	"fmt"

	"school-assistant/internal/infra/metrics"
)

// LocalQueue runs jobs on the in-process worker pool.
type LocalQueue struct {
	pool Submitter
	proc Processor
}

func NewLocalQueue(pool Submitter, proc Processor) *LocalQueue {
	return &LocalQueue{pool: pool, proc: proc}
}

func (q *LocalQueue) Enqueue(ctx context.Context, jobID string) error {
	err := q.pool.Submit(func(wctx context.Context) error {
		return q.proc.Process(carry(ctx, wctx), jobID)
	})
	if err != nil {
		metrics.IncDispatchFailure("local")
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	return nil
}
