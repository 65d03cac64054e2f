package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is the unit of work the scheduler repeats. A returned error is logged
// and the next tick runs as usual.
type Task func(ctx context.Context) error

// Scheduler periodically runs a task until stopped.
type Scheduler struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	task     Task
	log      *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler runs task every interval, each run bounded by timeout.
// interval <= 0 defaults to one minute; timeout <= 0 to the interval.
func NewScheduler(name string, interval, timeout time.Duration, task Task, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = interval
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "scheduler").Str("task", name).Logger()
	return &Scheduler{name: name, interval: interval, timeout: timeout, task: task, log: &l}
}

// Start begins the loop in a background goroutine. When runNow is set the
// task runs once immediately. Calling Start again has no effect.
func (s *Scheduler) Start(parent context.Context, runNow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, runNow)
}

func (s *Scheduler) loop(ctx context.Context, runNow bool) {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Debug().Dur("interval", s.interval).Msg("started")
	if runNow {
		s.runOnce(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()
	start := time.Now()
	if err := s.task(ctx); err != nil {
		if parent.Err() != nil {
			return
		}
		s.log.Warn().Err(err).Msg("run failed")
		return
	}
	s.log.Debug().Dur("took", time.Since(start)).Msg("run ok")
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
