package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"school-assistant/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.AIServiceAdapter for local/dev testing.
// It logs requests instead of calling a model. Plans are always empty, so
// every question is answered as out of scope.
type NoopAIAdapter struct {
	log   *zerolog.Logger
	delay time.Duration
}

func NewNoopAIAdapter(logger *zerolog.Logger) *NoopAIAdapter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NoopAIAdapter{log: logger, delay: 100 * time.Millisecond}
}

func (a *NoopAIAdapter) wait(ctx context.Context) error {
	select {
	case <-time.After(a.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *NoopAIAdapter) GenerateJSON(ctx context.Context, req adapter.JSONRequest) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	a.log.Debug().Str("shape", string(req.Shape)).Msg("[noop-ai] json request")
	if req.Shape == adapter.ShapeQuestions {
		return `{"questions":["Berapa jumlah siswa di kelas X 1?","Siapa saja siswa yang melakukan pelanggaran bulan ini?","Tampilkan grafik jumlah siswa per kelas","Siapa wali kelas XI 2?"]}`, nil
	}
	return `{"searches":[]}`, nil
}

func (a *NoopAIAdapter) Chat(ctx context.Context, req adapter.ChatRequest) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	a.log.Debug().Int("history", len(req.History)).Msg("[noop-ai] chat request")
	return "Ini adalah respons noop untuk: " + req.Prompt, nil
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, _ string, text string) (int, error) {
	return len(text) / 4, nil
}
