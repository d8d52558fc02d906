package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"scanpipe/custom_errors"
	"scanpipe/internal/queue"
	"scanpipe/internal/schedule"
	"scanpipe/internal/store"
	"scanpipe/types"
	"scanpipe/types/config"
)

// JobManager is the public face of the pipeline: callers submit scan requests
// through it, and Run drives the dispatcher and the periodic scheduler until
// shutdown.
type JobManager struct {
	cfg       *config.Config
	fabric    queue.Fabric
	taskStore store.TaskStore
	manager   *ScanJobManager
	scheduler *schedule.Scheduler
}

func NewJobManager(
	cfg *config.Config,
	fabric queue.Fabric,
	taskStore store.TaskStore,
	manager *ScanJobManager,
	scheduler *schedule.Scheduler,
) *JobManager {
	return &JobManager{
		cfg:       cfg,
		fabric:    fabric,
		taskStore: taskStore,
		manager:   manager,
		scheduler: scheduler,
	}
}

// Submit registers a scan task and routes it onto its lane. The task row is
// created before the enqueue so a submitted job is always trackable; when the
// lane rejects for capacity, the task is failed in the store and the caller
// gets custom_errors.ErrQueueFull to surface as backpressure.
func (jm *JobManager) Submit(ctx context.Context, req types.SubmitRequest) error {
	if err := validateSubmit(req); err != nil {
		return err
	}

	lane := req.Lane
	if lane == "" {
		lane = types.LaneMedium
	}

	job := types.Job{
		ID:               req.TaskID,
		Kind:             types.KindScan,
		FileRef:          req.FileRef,
		OriginalFilename: req.OriginalFilename,
		FileHash:         req.FileHash,
		Metadata:         req.Metadata,
		ModuleSubset:     req.ModuleSubset,
		Lane:             lane,
		SubPriority:      req.SubPriority,
		EnqueuedAt:       time.Now(),
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	if err := jm.taskStore.CreateTask(ctx, job.ID, job.OriginalFilename, job.FileHash); err != nil {
		return fmt.Errorf("register task %s: %w", job.ID, err)
	}

	if err := jm.fabric.Enqueue(ctx, lane, job.SubPriority, body); err != nil {
		if errors.Is(err, custom_errors.ErrQueueFull) {
			if mErr := jm.taskStore.MarkFailure(ctx, job.ID, time.Now(), "submission rejected: queue full"); mErr != nil {
				log.Printf("MarkFailure error for rejected task %s: %v", job.ID, mErr)
			}
		}
		return err
	}

	log.Printf("task %s enqueued on %s lane (sub-priority %d)", job.ID, lane, job.SubPriority)
	return nil
}

func validateSubmit(req types.SubmitRequest) error {
	validationErrs := &custom_errors.ValidationError{}
	if req.TaskID == "" {
		validationErrs.Add(errors.New("task id is required"))
	}
	if req.FileRef == "" {
		validationErrs.Add(errors.New("file ref is required"))
	}
	if req.OriginalFilename == "" {
		validationErrs.Add(errors.New("original filename is required"))
	}
	if req.Lane != "" && !req.Lane.Valid() {
		validationErrs.Add(fmt.Errorf("unknown lane %q", req.Lane))
	}
	if validationErrs.HasError() {
		return validationErrs
	}
	return nil
}

// Run starts the periodic scheduler and the dispatcher and blocks until the
// context is done.
func (jm *JobManager) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		jm.scheduler.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return jm.manager.Start(gctx, jm.cfg.WorkerCount)
	})

	return g.Wait()
}

// TaskStatus reports the stored lifecycle for one task.
func (jm *JobManager) TaskStatus(ctx context.Context, id string) (*types.Task, error) {
	return jm.taskStore.GetTask(ctx, id)
}

func (jm *JobManager) Close() error {
	var errs []error
	if err := jm.fabric.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := jm.taskStore.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
