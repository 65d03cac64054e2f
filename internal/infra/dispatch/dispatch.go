// Package dispatch hands submitted job IDs to the Job Processor. Every
// transport returns from Enqueue once the ID is accepted; none of them report
// processing outcomes back to the caller.
package dispatch

import (
	"context"

	"school-assistant/internal/infra/logging"
	"school-assistant/internal/infra/worker"
)

// Processor runs one job to a terminal state.
type Processor interface {
	Process(ctx context.Context, jobID string) error
}

// Submitter accepts background tasks without blocking. *worker.Pool satisfies it.
type Submitter interface {
	Submit(task worker.Task) error
}

// carry copies request-scoped log fields onto the worker context.
func carry(from, to context.Context) context.Context {
	if id := logging.TraceID(from); id != "" {
		to = logging.WithTraceID(to, id)
	}
	return to
}
