package mocks

import "context"

// MockCorrelator is a mock implementation of maintenance.Correlator for testing.
type MockCorrelator struct {
	CompareFunc func(ctx context.Context) error
}

func (m *MockCorrelator) Compare(ctx context.Context) error {
	if m.CompareFunc != nil {
		return m.CompareFunc(ctx)
	}
	return nil
}

// MockIndexJanitor is a mock implementation of maintenance.IndexJanitor for testing.
type MockIndexJanitor struct {
	DeleteOldIndicesFunc func(ctx context.Context, prefix string, days int) (int, error)
}

func (m *MockIndexJanitor) DeleteOldIndices(ctx context.Context, prefix string, days int) (int, error) {
	if m.DeleteOldIndicesFunc != nil {
		return m.DeleteOldIndicesFunc(ctx, prefix, days)
	}
	return 0, nil
}
