package store

import (
	"context"
	"time"

	"scanpipe/internal/state"
	"scanpipe/types"
)

// TaskStore is the single source of truth for job status. Updates are causally
// ordered per task id: the running transition only applies to a queued row and
// terminal transitions only to a non-terminal row, so concurrent or repeated
// writers cannot reorder a lifecycle or resurrect a finished task.
type TaskStore interface {
	// CreateTask records a new task as Queued. CreatedAt is set by the store.
	CreateTask(ctx context.Context, id, originalFilename, fileHash string) error

	// MarkRunning transitions Queued -> Running and sets startedAt. It fails
	// when the task is missing or not in Queued, so the caller can abort the
	// job instead of running it untracked.
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error

	// MarkComplete transitions Running -> Complete. A repeat terminal write
	// for the same id is a no-op, not an error.
	MarkComplete(ctx context.Context, id string, finishedAt time.Time) error

	// MarkFailure transitions Queued/Running -> Failed with a diagnostic.
	// Idempotent like MarkComplete.
	MarkFailure(ctx context.Context, id string, finishedAt time.Time, detail string) error

	GetTask(ctx context.Context, id string) (*types.Task, error)

	CountTasksGroupedByStatus(ctx context.Context) (map[state.TaskStatus]int, error)

	// Close closes the database
	Close() error
}
