// File: internal/usecase/job_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"school-assistant/internal/domain"
	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/domain/ports/repository"
	"school-assistant/internal/infra/logging"
	"school-assistant/internal/infra/metrics"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// DispatchFailedMessage is stored on jobs whose trigger never reached a processor.
const DispatchFailedMessage = "Gagal memulai pemrosesan."

// JobUseCase is the Job Orchestrator plus the read side pollers use.
type JobUseCase interface {
	// Submit stores a PENDING job, hands its ID to the queue and returns the
	// ID without waiting for processing.
	Submit(ctx context.Context, user model.UserProfile, in model.JobInput) (string, error)
	Status(ctx context.Context, jobID string) (model.JobSnapshot, error)
	// MarkDispatchFailed is best-effort; it only logs when the store refuses.
	MarkDispatchFailed(ctx context.Context, jobID string, cause error)
}

type JobSettings struct {
	ModelAllowed func(name string) bool
	SubmitLimit  int
	SubmitWindow time.Duration
}

type jobUC struct {
	jobs     repository.JobRepository
	queue    adapter.TaskQueue
	limiter  repository.RateLimiter
	settings JobSettings
	now      func() time.Time
	newID    func() string
	log      *zerolog.Logger
}

func NewJobUseCase(jobs repository.JobRepository, limiter repository.RateLimiter, settings JobSettings, logger *zerolog.Logger) *jobUC {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &jobUC{
		jobs:     jobs,
		limiter:  limiter,
		settings: settings,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      logger,
	}
}

// SetQueue wires the dispatcher. The http transport reports failures back
// through MarkDispatchFailed, so the queue is built after the use case.
func (u *jobUC) SetQueue(q adapter.TaskQueue) { u.queue = q }

func submitKey(userID string) string { return "rate_limit:chat_start:" + userID }

func (u *jobUC) Submit(ctx context.Context, user model.UserProfile, in model.JobInput) (string, error) {
	if strings.TrimSpace(user.ID) == "" {
		return "", domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return "", err
	}
	in.Model = strings.TrimSpace(in.Model)
	if in.Model != "" && u.settings.ModelAllowed != nil && !u.settings.ModelAllowed(in.Model) {
		return "", fmt.Errorf("%w: model %q is not allowed", domain.ErrInvalidArgument, in.Model)
	}

	log := logging.With(ctx, u.log)
	if u.limiter != nil && u.settings.SubmitLimit > 0 {
		ok, err := u.limiter.Allow(ctx, submitKey(user.ID), u.settings.SubmitLimit, u.settings.SubmitWindow)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("rate limiter unavailable; allowing submit")
		case !ok:
			metrics.IncSubmitRateLimited()
			return "", domain.ErrRateLimited
		}
	}

	job := model.NewJob(u.newID(), user, in, u.now())
	if err := u.jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	metrics.IncChatJob("submitted")
	ctx = logging.WithJobID(ctx, job.ID)
	log = logging.With(ctx, u.log)
	log.Info().Int("messages", len(in.Messages)).Str("model", in.Model).Msg("job submitted")

	if u.queue == nil {
		u.MarkDispatchFailed(ctx, job.ID, errors.New("no dispatcher configured"))
		return job.ID, nil
	}
	if err := u.queue.Enqueue(ctx, job.ID); err != nil {
		u.MarkDispatchFailed(ctx, job.ID, err)
	}
	return job.ID, nil
}

func (u *jobUC) Status(ctx context.Context, jobID string) (model.JobSnapshot, error) {
	if strings.TrimSpace(jobID) == "" {
		return model.JobSnapshot{}, fmt.Errorf("%w: jobId is required", domain.ErrInvalidArgument)
	}
	job, err := u.jobs.Get(ctx, jobID)
	if err != nil {
		return model.JobSnapshot{}, err
	}
	return job.Snapshot(), nil
}

func (u *jobUC) MarkDispatchFailed(ctx context.Context, jobID string, cause error) {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, u.log)
	log.Error().Err(cause).Msg("job dispatch failed")

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_, err := u.jobs.Update(wctx, jobID, func(j *model.Job) error {
		if j.Status != model.JobStatusPending {
			return fmt.Errorf("%w: job already %s", domain.ErrInvalidTransition, j.Status)
		}
		return j.Fail(DispatchFailedMessage, u.now())
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not mark job as failed after dispatch error")
		return
	}
	metrics.IncChatJob("failed")
}
