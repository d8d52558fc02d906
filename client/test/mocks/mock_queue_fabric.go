package mocks

import (
	"context"

	"scanpipe/types"
)

// MockQueueFabric is a mock implementation of queue.Fabric for testing.
type MockQueueFabric struct {
	EnqueueFunc func(ctx context.Context, lane types.Lane, subPriority int, body []byte) error
	DequeueFunc func(ctx context.Context) ([]byte, error)
	CloseFunc   func() error
}

func (m *MockQueueFabric) Enqueue(ctx context.Context, lane types.Lane, subPriority int, body []byte) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, lane, subPriority, body)
	}
	return nil
}

func (m *MockQueueFabric) Dequeue(ctx context.Context) ([]byte, error) {
	if m.DequeueFunc != nil {
		return m.DequeueFunc(ctx)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (m *MockQueueFabric) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
