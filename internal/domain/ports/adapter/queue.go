package adapter

import "context"

// TaskQueue hands a job to the processor. Enqueue returns as soon as the
// transport accepted the task; the caller never observes processing.
type TaskQueue interface {
	Enqueue(ctx context.Context, jobID string) error
}

// DispatchFailureHandler is told when a queued task could not reach a processor.
type DispatchFailureHandler func(ctx context.Context, jobID string, cause error)
