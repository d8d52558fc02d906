package custom_errors

import (
	"errors"
	"fmt"
)

// ErrQueueFull is the backpressure signal returned when a lane has reached its
// configured capacity. The submission is rejected, never silently dropped.
var ErrQueueFull = errors.New("queue is full")

// ErrEmptyResult is returned when the scan engine produced no findings for a
// submitted file. An empty report is a logic error, not a successful scan.
var ErrEmptyResult = errors.New("scan engine returned no results")

// ConfigurationError marks a missing or unusable configuration value. It is
// fatal to the specific action that needed the value, not to the process.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Option, e.Reason)
}

// EngineError wraps a failure reported by the scan engine.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// PublishError means no storage backend accepted the report. An unpersisted
// result is equivalent to no result, so the job fails even though the scan
// itself succeeded.
type PublishError struct {
	TaskID string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish error: no storage backend accepted the report for task %s", e.TaskID)
}
