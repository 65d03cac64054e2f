package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/retrieval"
)

// StartersUseCase suggests example questions answerable from the loaded data.
type StartersUseCase struct {
	data       adapter.DataProvider
	ai         adapter.AIServiceAdapter
	model      string
	sampleRows int
}

func NewStartersUseCase(data adapter.DataProvider, ai adapter.AIServiceAdapter, defaultModel string, sampleRows int) *StartersUseCase {
	return &StartersUseCase{data: data, ai: ai, model: defaultModel, sampleRows: sampleRows}
}

func (u *StartersUseCase) Questions(ctx context.Context) ([]string, error) {
	snap, err := u.data.Get(ctx)
	if err != nil {
		return nil, err
	}
	seed := uint64(time.Now().UnixNano())
	schema := retrieval.BuildSchema(snap, u.sampleRows, rand.New(rand.NewPCG(seed, seed>>1|1)))

	raw, err := u.ai.GenerateJSON(ctx, adapter.JSONRequest{
		Model:  u.model,
		Prompt: retrieval.StartersPrompt(retrieval.SchemaJSON(schema)),
		Shape:  adapter.ShapeQuestions,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(retrieval.StripCodeFence(raw)), &out); err != nil {
		return nil, fmt.Errorf("parse prompt starters: %w", err)
	}
	questions := make([]string, 0, len(out.Questions))
	for _, q := range out.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	return questions, nil
}
