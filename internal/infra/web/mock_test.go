package web

import (
	"context"

	"school-assistant/internal/domain/model"
	"school-assistant/internal/usecase"
)

type mockJobUC struct {
	SubmitFunc func(ctx context.Context, user model.UserProfile, in model.JobInput) (string, error)
	StatusFunc func(ctx context.Context, jobID string) (model.JobSnapshot, error)
}

func (m *mockJobUC) Submit(ctx context.Context, user model.UserProfile, in model.JobInput) (string, error) {
	return m.SubmitFunc(ctx, user, in)
}

func (m *mockJobUC) Status(ctx context.Context, jobID string) (model.JobSnapshot, error) {
	return m.StatusFunc(ctx, jobID)
}

func (m *mockJobUC) MarkDispatchFailed(context.Context, string, error) {}

type mockQueue struct {
	EnqueueFunc func(ctx context.Context, jobID string) error
}

func (m *mockQueue) Enqueue(ctx context.Context, jobID string) error {
	return m.EnqueueFunc(ctx, jobID)
}

type mockStarters struct {
	QuestionsFunc func(ctx context.Context) ([]string, error)
}

func (m *mockStarters) Questions(ctx context.Context) ([]string, error) { return m.QuestionsFunc(ctx) }

type mockStatus struct {
	result usecase.ConnectivityStatus
}

func (m *mockStatus) Check(context.Context) usecase.ConnectivityStatus { return m.result }
