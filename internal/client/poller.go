package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"school-assistant/internal/domain/model"
)

// ErrAbandoned means the job stayed non-terminal for MaxPolls observations.
// A processor that died mid-job leaves the record PROCESSING until expiry.
var ErrAbandoned = errors.New("job did not finish in time")

// FailedFallback is shown when a FAILED job carries no error text.
const FailedFallback = "Maaf, terjadi kesalahan yang tidak diketahui."

type StatusGetter interface {
	Status(ctx context.Context, jobID string) (model.JobSnapshot, error)
}

type PollerConfig struct {
	Interval time.Duration
	MaxPolls int
	// OnProgress is called with every non-terminal snapshot.
	OnProgress func(model.JobSnapshot)
}

type Poller struct {
	src     StatusGetter
	limiter *rate.Limiter
	cfg     PollerConfig
}

func NewPoller(src StatusGetter, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 90
	}
	return &Poller{src: src, limiter: rate.NewLimiter(rate.Every(cfg.Interval), 1), cfg: cfg}
}

// Wait polls until the job is terminal. Not-found and session expiry stop
// polling at once; transient errors count as a non-terminal observation.
func (p *Poller) Wait(ctx context.Context, jobID string) (model.JobSnapshot, error) {
	var lastErr error
	for i := 0; i < p.cfg.MaxPolls; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return model.JobSnapshot{}, err
		}
		snap, err := p.src.Status(ctx, jobID)
		switch {
		case errors.Is(err, ErrJobNotFound), errors.Is(err, ErrSessionExpired):
			return model.JobSnapshot{}, err
		case err != nil:
			if ctx.Err() != nil {
				return model.JobSnapshot{}, ctx.Err()
			}
			lastErr = err
			continue
		}
		if snap.Status.Terminal() {
			return snap, nil
		}
		if p.cfg.OnProgress != nil {
			p.cfg.OnProgress(snap)
		}
	}
	if lastErr != nil {
		return model.JobSnapshot{}, fmt.Errorf("%w (last error: %v)", ErrAbandoned, lastErr)
	}
	return model.JobSnapshot{}, ErrAbandoned
}

// Reply turns a terminal snapshot into the text shown as the assistant turn.
func Reply(snap model.JobSnapshot) string {
	if snap.Status == model.JobStatusCompleted {
		return snap.Result
	}
	if snap.Error != "" {
		return snap.Error
	}
	return FailedFallback
}
