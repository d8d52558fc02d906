package client

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"scanpipe/custom_errors"
	"scanpipe/internal/constants"
	"scanpipe/internal/queue"
	"scanpipe/internal/schedule"
	"scanpipe/types"
)

// Periodic maintenance travels through the same fabric as scan work, on the
// low lane just above baseline sub-priority, so a busy pipeline finishes its
// backlog of user scans before housekeeping runs.

// NewCorrelationTrigger builds the daily fuzzy-hash correlation trigger. The
// job id embeds the occurrence so duplicate firings across replicas are easy
// to spot in logs.
func NewCorrelationTrigger(fabric queue.Fabric, hour int) schedule.Trigger {
	return schedule.Trigger{
		Name: "correlation",
		Hour: hour,
		Fire: func(ctx context.Context, occurrence time.Time) error {
			job := types.Job{
				ID:          "correlation-" + occurrence.UTC().Format(time.RFC3339),
				Kind:        types.KindCorrelation,
				Lane:        types.LaneLow,
				SubPriority: constants.MaintenanceSubPriority,
				EnqueuedAt:  time.Now(),
			}
			return enqueueMaintenance(ctx, fabric, job)
		},
	}
}

// NewRolloverTrigger builds the daily index-rollover trigger. The feature flag
// and retention window are re-read from options at every fire, so an operator
// toggle takes effect without re-arming anything.
func NewRolloverTrigger(fabric queue.Fabric, hour int, options func() PeriodicView) schedule.Trigger {
	return schedule.Trigger{
		Name: "rollover",
		Hour: hour,
		Fire: func(ctx context.Context, occurrence time.Time) error {
			opts := options()
			if !opts.RolloverEnabled {
				log.Printf("index rollover disabled, skipping occurrence %s", occurrence.Format(time.RFC3339))
				return nil
			}

			days := opts.RolloverDays
			if days < 1 {
				days = opts.RolloverFallbackDays
			}
			if days < 1 {
				return &custom_errors.ConfigurationError{
					Option: "rollover_days",
					Reason: "unset and no fallback retention configured",
				}
			}

			job := types.Job{
				ID:            "rollover-" + occurrence.UTC().Format(time.RFC3339),
				Kind:          types.KindRollover,
				RetentionDays: days,
				Lane:          types.LaneLow,
				SubPriority:   constants.MaintenanceSubPriority,
				EnqueuedAt:    time.Now(),
			}
			return enqueueMaintenance(ctx, fabric, job)
		},
	}
}

// PeriodicView is the slice of periodic configuration a trigger re-reads at
// fire time.
type PeriodicView struct {
	RolloverEnabled      bool
	RolloverDays         int
	RolloverFallbackDays int
}

func enqueueMaintenance(ctx context.Context, fabric queue.Fabric, job types.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return fabric.Enqueue(ctx, job.Lane, job.SubPriority, body)
}
