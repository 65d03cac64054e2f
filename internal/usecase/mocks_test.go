// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/adapter"
)

type mockQueue struct {
	mu          sync.Mutex
	enqueued    []string
	EnqueueFunc func(ctx context.Context, jobID string) error
}

func (m *mockQueue) Enqueue(ctx context.Context, jobID string) error {
	m.mu.Lock()
	m.enqueued = append(m.enqueued, jobID)
	m.mu.Unlock()
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, jobID)
	}
	return nil
}

type mockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.AllowFunc(ctx, key, limit, window)
}

type mockAI struct {
	GenerateJSONFunc func(ctx context.Context, req adapter.JSONRequest) (string, error)
	CountTokensFunc  func(ctx context.Context, model, text string) (int, error)
}

func (m *mockAI) GenerateJSON(ctx context.Context, req adapter.JSONRequest) (string, error) {
	return m.GenerateJSONFunc(ctx, req)
}
func (m *mockAI) Chat(context.Context, adapter.ChatRequest) (string, error) { return "", nil }
func (m *mockAI) CountTokens(ctx context.Context, model, text string) (int, error) {
	return m.CountTokensFunc(ctx, model, text)
}

type mockData struct {
	GetFunc func(ctx context.Context) (*model.DataSnapshot, error)
}

func (m *mockData) Get(ctx context.Context) (*model.DataSnapshot, error) { return m.GetFunc(ctx) }

type mockFetcher struct {
	FetchFunc func(ctx context.Context, url string) (string, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return m.FetchFunc(ctx, url)
}
