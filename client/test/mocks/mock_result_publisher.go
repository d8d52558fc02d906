package mocks

import (
	"context"

	"scanpipe/types"
)

// MockResultPublisher is a mock implementation of client.ResultPublisher for testing.
type MockResultPublisher struct {
	StoreFunc func(ctx context.Context, env *types.ScanResultEnvelope, wait bool) []string
}

func (m *MockResultPublisher) Store(ctx context.Context, env *types.ScanResultEnvelope, wait bool) []string {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, env, wait)
	}
	return []string{"postgres"}
}
