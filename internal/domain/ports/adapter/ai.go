package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "model"
	Content string `json:"content"`
}

// JSONShape names the structured response a JSON call expects.
type JSONShape string

const (
	ShapeRetrievalPlan JSONShape = "retrieval_plan"
	ShapeQuestions     JSONShape = "questions"
)

// JSONRequest asks for a structured response matching Shape.
type JSONRequest struct {
	Model  string
	Prompt string
	Shape  JSONShape
}

// ChatRequest asks for a free-form answer to Prompt given a system
// instruction and the prior conversation.
type ChatRequest struct {
	Model             string
	SystemInstruction string
	History           []Message
	Prompt            string
}

// AIServiceAdapter is the port for LLM calls.
type AIServiceAdapter interface {
	// GenerateJSON returns the raw response text. Callers must treat it as
	// untrusted: it may be wrapped in prose or code fences.
	GenerateJSON(ctx context.Context, req JSONRequest) (string, error)

	// Chat returns only the assistant text.
	Chat(ctx context.Context, req ChatRequest) (string, error)

	// CountTokens is a cheap call used for connectivity checks.
	CountTokens(ctx context.Context, model, text string) (int, error)
}
