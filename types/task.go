package types

import (
	"time"

	"scanpipe/internal/state"
)

// Task is the durable status record for one scan job.
type Task struct {
	ID               string
	Status           state.TaskStatus
	OriginalFilename string
	FileHash         string
	Detail           string
	CreatedAt        time.Time
	StartedAt        *time.Time
	FinishedAt       *time.Time
}
