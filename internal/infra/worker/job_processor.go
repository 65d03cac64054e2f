package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"school-assistant/internal/domain"
	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/domain/ports/repository"
	"school-assistant/internal/infra/logging"
	"school-assistant/internal/infra/metrics"
	"school-assistant/internal/retrieval"
)

type ProcessorConfig struct {
	DefaultModel    string
	SchoolName      string
	SampleRows      int
	FetchTimeout    time.Duration
	PlanTimeout     time.Duration
	GenerateTimeout time.Duration
	JobTimeout      time.Duration
}

// JobProcessor runs one chat job: claim it, plan retrieval, filter the cached
// data, generate the answer and record the outcome. Every write goes through
// JobRepository.Update so it always acts on freshly loaded state.
type JobProcessor struct {
	jobs     repository.JobRepository
	data     adapter.DataProvider
	planner  *retrieval.Planner
	executor *retrieval.Executor
	ai       adapter.AIServiceAdapter
	cfg      ProcessorConfig
	now      func() time.Time
	log      *zerolog.Logger
}

func NewJobProcessor(
	jobs repository.JobRepository,
	data adapter.DataProvider,
	planner *retrieval.Planner,
	executor *retrieval.Executor,
	ai adapter.AIServiceAdapter,
	cfg ProcessorConfig,
	log *zerolog.Logger,
) *JobProcessor {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	return &JobProcessor{
		jobs:     jobs,
		data:     data,
		planner:  planner,
		executor: executor,
		ai:       ai,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// WithClock replaces the processor clock; used by tests.
func (p *JobProcessor) WithClock(now func() time.Time) *JobProcessor {
	p.now = now
	return p
}

var errNotPending = errors.New("job is not pending")

// stageError tags a pipeline failure with the stage that produced it.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// Process claims jobID and runs it to a terminal state. A job that is not
// PENDING is left alone, which makes repeated triggers harmless. Pipeline
// failures never escape as errors: they become a FAILED job.
func (p *JobProcessor) Process(ctx context.Context, jobID string) (err error) {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, p.log)

	job, err := p.jobs.Update(ctx, jobID, func(j *model.Job) error {
		if j.Status != model.JobStatusPending {
			return errNotPending
		}
		if err := j.Transition(model.JobStatusProcessing, p.now()); err != nil {
			return err
		}
		return j.Touch(model.StatusMessageAnalyzing, p.now())
	})
	switch {
	case errors.Is(err, errNotPending):
		metrics.IncChatJob("skipped")
		log.Info().Msg("job already claimed; ignoring trigger")
		return nil
	case errors.Is(err, domain.ErrNotFound):
		log.Warn().Msg("job not found or expired")
		return nil
	case err != nil:
		p.fail(jobID, "Gagal memulai pemrosesan.", log)
		return fmt.Errorf("claim job %s: %w", jobID, err)
	}
	log.Info().Str("status", string(job.Status)).Msg("job claimed")

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("job processing panicked")
			p.fail(jobID, "Terjadi kesalahan internal saat memproses permintaan.", log)
			err = nil
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()

	start := p.now()
	result, runErr := p.run(jobCtx, job, log)
	if runErr != nil {
		log.Error().Err(runErr).Msg("job failed")
		p.fail(jobID, failureMessage(runErr), log)
		return nil
	}

	if _, err := p.jobs.Update(context.WithoutCancel(ctx), jobID, func(j *model.Job) error {
		return j.Complete(result, p.now())
	}); err != nil {
		log.Error().Err(err).Msg("could not record completed job")
		if !errors.Is(err, domain.ErrInvalidTransition) {
			p.fail(jobID, "Gagal menyimpan hasil.", log)
		}
		return nil
	}
	metrics.IncChatJob("completed")
	log.Info().Dur("duration", p.now().Sub(start)).Int("result_len", len(result)).Msg("job completed")
	return nil
}

func (p *JobProcessor) run(ctx context.Context, job *model.Job, log *zerolog.Logger) (string, error) {
	modelName := job.Input.Model
	if modelName == "" {
		modelName = p.cfg.DefaultModel
	}
	question := job.Input.Latest().Text

	var snap *model.DataSnapshot
	if err := p.stage(ctx, "fetch", p.cfg.FetchTimeout, func(sctx context.Context) (err error) {
		snap, err = p.data.Get(sctx)
		return err
	}); err != nil {
		return "", err
	}

	var rng *rand.Rand
	if p.cfg.SampleRows > 0 {
		seed := uint64(p.now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	schemaJSON := retrieval.SchemaJSON(retrieval.BuildSchema(snap, p.cfg.SampleRows, rng))

	var plan model.RetrievalPlan
	if err := p.stage(ctx, "plan", p.cfg.PlanTimeout, func(sctx context.Context) (err error) {
		plan, err = p.planner.Plan(sctx, modelName, question, schemaJSON)
		return err
	}); err != nil {
		return "", err
	}

	filterStart := time.Now()
	subset := p.executor.Execute(plan, snap)
	metrics.ObserveStage("filter", time.Since(filterStart).Seconds())
	outcome := retrieval.Classify(plan, subset)
	log.Info().
		Int("searches", len(plan.Searches)).
		Strs("sources", subset.Names()).
		Str("outcome", outcome.String()).
		Msg("retrieval finished")

	if _, err := p.jobs.Update(ctx, job.ID, func(j *model.Job) error {
		return j.Touch(model.StatusMessageGenerating, p.now())
	}); err != nil {
		return "", fmt.Errorf("update status: %w", err)
	}

	req := adapter.ChatRequest{
		Model:             modelName,
		SystemInstruction: retrieval.AnswerInstruction(outcome, question, p.cfg.SchoolName, subset),
		History:           toMessages(job.Input.History()),
		Prompt:            question,
	}
	var answer string
	if err := p.stage(ctx, "generate", p.cfg.GenerateTimeout, func(sctx context.Context) (err error) {
		answer, err = p.ai.Chat(sctx, req)
		return err
	}); err != nil {
		return "", err
	}
	return answer, nil
}

func (p *JobProcessor) stage(ctx context.Context, name string, timeout time.Duration, fn func(context.Context) error) error {
	sctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		sctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	start := time.Now()
	err := fn(sctx)
	metrics.ObserveStage(name, time.Since(start).Seconds())
	if err != nil {
		return &stageError{stage: name, err: err}
	}
	return nil
}

// fail records FAILED on a freshly loaded job. If the store cannot be
// written the job is left to expire.
func (p *JobProcessor) fail(jobID, reason string, log *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := p.jobs.Update(ctx, jobID, func(j *model.Job) error {
		return j.Fail(reason, p.now())
	})
	switch {
	case err == nil:
		metrics.IncChatJob("failed")
	case errors.Is(err, domain.ErrInvalidTransition):
		log.Warn().Msg("job already terminal; failure not recorded")
	default:
		log.Error().Err(err).Msg("could not record job failure; job stays until expiry")
	}
}

var stageNames = map[string]string{
	"fetch":    "pengambilan data",
	"plan":     "analisis pertanyaan",
	"generate": "pembuatan jawaban",
}

func failureMessage(err error) string {
	var se *stageError
	if errors.As(err, &se) && errors.Is(se.err, context.DeadlineExceeded) {
		return fmt.Sprintf("Waktu pemrosesan habis pada tahap %s. Silakan coba lagi.", stageNames[se.stage])
	}
	if errors.Is(err, domain.ErrAllCredentialsBusy) {
		return domain.ErrAllCredentialsBusy.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An unknown error occurred during processing."
}

func toMessages(in []model.ChatMessage) []adapter.Message {
	out := make([]adapter.Message, 0, len(in))
	for _, m := range in {
		out = append(out, adapter.Message{Role: string(m.Role), Content: m.Text})
	}
	return out
}
