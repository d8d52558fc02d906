package mocks

import (
	"context"

	"scanpipe/types"
)

// MockScanEngine is a mock implementation of scan.Engine for testing.
type MockScanEngine struct {
	ScanFunc func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error)
}

func (m *MockScanEngine) Scan(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
	if m.ScanFunc != nil {
		return m.ScanFunc(ctx, fileRefs, modules, subset)
	}
	return make(map[string]types.Findings), nil
}
