// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter talks to the Gemini API with a single API key. Rotation over
// several keys is done by KeyPool.
type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string) (*GeminiAdapter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel}, nil
}

func (g *GeminiAdapter) GenerateJSON(ctx context.Context, req adapter.JSONRequest) (string, error) {
	model := modelOrDefault(req.Model, g.defaultModel)
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schemaFor(req.Shape),
	})
	metrics.ObserveAICall(string(req.Shape), model, time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

func (g *GeminiAdapter) Chat(ctx context.Context, req adapter.ChatRequest) (string, error) {
	model := modelOrDefault(req.Model, g.defaultModel)
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	start := time.Now()
	chat, err := g.client.Chats.Create(ctx, model, cfg, toGenAIHistory(req.History))
	if err != nil {
		metrics.ObserveAICall("chat", model, time.Since(start).Milliseconds(), false)
		return "", err
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: req.Prompt})
	metrics.ObserveAICall("chat", model, time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		return "", err
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model, text string) (int, error) {
	model = modelOrDefault(model, g.defaultModel)
	start := time.Now()
	// CountTokens takes []*genai.Content, not parts.
	resp, err := g.client.Models.CountTokens(ctx, model, genai.Text(text), nil)
	metrics.ObserveAICall("count", model, time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

// --- internal ---

func schemaFor(shape adapter.JSONShape) *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	switch shape {
	case adapter.ShapeQuestions:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"questions": {Type: genai.TypeArray, Items: str},
			},
		}
	default:
		filter := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{"column": str, "value": str},
		}
		search := &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"sheetName": str,
				"filters":   {Type: genai.TypeArray, Items: filter},
			},
		}
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"searches": {Type: genai.TypeArray, Items: search},
			},
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func toGenAIHistory(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		switch strings.ToLower(m.Role) {
		case "assistant", "model":
			role = genai.RoleModel
		case "system":
			// no system role in history; system text goes through SystemInstruction
			continue
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
