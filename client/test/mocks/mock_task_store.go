package mocks

import (
	"context"
	"time"

	"scanpipe/internal/state"
	"scanpipe/types"
)

// MockTaskStore is a mock implementation of store.TaskStore for testing.
type MockTaskStore struct {
	CreateTaskFunc                func(ctx context.Context, id, originalFilename, fileHash string) error
	MarkRunningFunc               func(ctx context.Context, id string, startedAt time.Time) error
	MarkCompleteFunc              func(ctx context.Context, id string, finishedAt time.Time) error
	MarkFailureFunc               func(ctx context.Context, id string, finishedAt time.Time, detail string) error
	GetTaskFunc                   func(ctx context.Context, id string) (*types.Task, error)
	CountTasksGroupedByStatusFunc func(ctx context.Context) (map[state.TaskStatus]int, error)
	CloseFunc                     func() error
}

func (m *MockTaskStore) CreateTask(ctx context.Context, id, originalFilename, fileHash string) error {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, id, originalFilename, fileHash)
	}
	return nil
}

func (m *MockTaskStore) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	if m.MarkRunningFunc != nil {
		return m.MarkRunningFunc(ctx, id, startedAt)
	}
	return nil
}

func (m *MockTaskStore) MarkComplete(ctx context.Context, id string, finishedAt time.Time) error {
	if m.MarkCompleteFunc != nil {
		return m.MarkCompleteFunc(ctx, id, finishedAt)
	}
	return nil
}

func (m *MockTaskStore) MarkFailure(ctx context.Context, id string, finishedAt time.Time, detail string) error {
	if m.MarkFailureFunc != nil {
		return m.MarkFailureFunc(ctx, id, finishedAt, detail)
	}
	return nil
}

func (m *MockTaskStore) GetTask(ctx context.Context, id string) (*types.Task, error) {
	if m.GetTaskFunc != nil {
		return m.GetTaskFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTaskStore) CountTasksGroupedByStatus(ctx context.Context) (map[state.TaskStatus]int, error) {
	if m.CountTasksGroupedByStatusFunc != nil {
		return m.CountTasksGroupedByStatusFunc(ctx)
	}
	return make(map[state.TaskStatus]int), nil
}

func (m *MockTaskStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
