package retrieval

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/infra/metrics"
)

// Planner asks the model which sources and filters a question needs.
type Planner struct {
	ai  adapter.AIServiceAdapter
	log *zerolog.Logger
}

func NewPlanner(ai adapter.AIServiceAdapter, logger *zerolog.Logger) *Planner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Planner{ai: ai, log: logger}
}

// Plan returns an error only when the model call fails. Output that cannot be
// parsed degrades to an empty plan.
func (p *Planner) Plan(ctx context.Context, modelName, question, schemaJSON string) (model.RetrievalPlan, error) {
	raw, err := p.ai.GenerateJSON(ctx, adapter.JSONRequest{
		Model:  modelName,
		Prompt: PlannerPrompt(question, schemaJSON),
		Shape:  adapter.ShapeRetrievalPlan,
	})
	if err != nil {
		return model.RetrievalPlan{}, err
	}

	plan, ok := ParsePlan(raw)
	if !ok {
		metrics.IncPlanParseFailure()
		p.log.Warn().Str("raw", truncate(raw, 300)).Msg("planner output unparseable; using empty plan")
		return model.RetrievalPlan{}, nil
	}
	p.log.Debug().Int("searches", len(plan.Searches)).Msg("retrieval plan parsed")
	return plan, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
