package types

import (
	"time"

	"scanpipe/internal/state"
)

// JobResult is the single terminal outcome emitted for a job by the lifecycle
// tracker. Exactly one is produced per execution, on every exit path.
type JobResult struct {
	JobID      string
	Status     state.TaskStatus
	Err        error
	Detail     string
	FinishedAt time.Time
}
