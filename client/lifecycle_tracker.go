package client

import (
	"context"
	"fmt"
	"log"
	"time"

	"scanpipe/internal/state"
	"scanpipe/types"
)

// LifecycleTracker is the guard around every job execution: no matter where a
// job dies, exactly one terminal result is emitted for it and written to the
// status store. A worker crash that skips the guard entirely leaves the task
// Running in the store; sweeping those is an external reconciler's job.
type LifecycleTracker struct {
	store   TaskStatusStore
	results chan types.JobResult
}

// TaskStatusStore is the slice of the status store the tracker drives.
type TaskStatusStore interface {
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error
	MarkComplete(ctx context.Context, id string, finishedAt time.Time) error
	MarkFailure(ctx context.Context, id string, finishedAt time.Time, detail string) error
}

func NewLifecycleTracker(store TaskStatusStore) *LifecycleTracker {
	return &LifecycleTracker{
		store:   store,
		results: make(chan types.JobResult, 1000),
	}
}

// Track executes one job under the guard. exec returns the completed envelope
// on success; any error or panic converts to a Failed outcome. The Complete
// timestamp is the scan time carried in the envelope, not the wall clock at
// bookkeeping time.
func (t *LifecycleTracker) Track(jobID string, exec func() (*types.ScanResultEnvelope, error)) {
	emitted := false
	emit := func(res types.JobResult) {
		if emitted {
			return
		}
		emitted = true
		t.results <- res
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in job %s: %v", jobID, r)
			emit(types.JobResult{
				JobID:      jobID,
				Status:     state.StatusFailed,
				Detail:     fmt.Sprintf("panic: %v", r),
				FinishedAt: time.Now(),
			})
		}
	}()

	env, err := exec()
	if err != nil {
		log.Printf("task %s failed: %v", jobID, err)
		emit(types.JobResult{
			JobID:      jobID,
			Status:     state.StatusFailed,
			Err:        err,
			Detail:     err.Error(),
			FinishedAt: time.Now(),
		})
		return
	}

	log.Printf("completed task %s", jobID)
	emit(types.JobResult{
		JobID:      jobID,
		Status:     state.StatusComplete,
		FinishedAt: env.ScanTime,
	})
}

// startResultProcessor drains terminal results into the status store until the
// context is done. Store-level guards make repeat terminal writes no-ops, so
// at-least-once delivery here cannot corrupt a lifecycle.
func (t *LifecycleTracker) startResultProcessor(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case res := <-t.results:
				switch res.Status {
				case state.StatusComplete:
					if state.IsValidTransition(state.StatusRunning, state.StatusComplete) {
						if err := t.store.MarkComplete(ctx, res.JobID, res.FinishedAt); err != nil {
							log.Printf("MarkComplete error: %s", err.Error())
						}
					}
				case state.StatusFailed:
					if err := t.store.MarkFailure(ctx, res.JobID, res.FinishedAt, res.Detail); err != nil {
						log.Printf("MarkFailure error: %s", err.Error())
					}
				default:
					log.Printf("unknown terminal status: %s", res.Status)
				}
			}
		}
	}()
}
