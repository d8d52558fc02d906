package maintenance

import "context"

// Correlator runs the fuzzy-hash correlation pass over recently stored
// reports. The comparison algorithm lives behind this interface; the
// orchestration layer only schedules and invokes it.
type Correlator interface {
	Compare(ctx context.Context) error
}

// CorrelatorFunc adapts a plain function to the Correlator interface.
type CorrelatorFunc func(ctx context.Context) error

func (f CorrelatorFunc) Compare(ctx context.Context) error {
	return f(ctx)
}

// IndexJanitor deletes daily report indices older than the retention window.
// Re-running over the same window is a no-op, so duplicate firings are safe.
type IndexJanitor interface {
	DeleteOldIndices(ctx context.Context, prefix string, days int) (deleted int, err error)
}
