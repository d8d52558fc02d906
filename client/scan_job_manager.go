package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"scanpipe/custom_errors"
	"scanpipe/internal/maintenance"
	"scanpipe/internal/queue"
	"scanpipe/internal/scan"
	"scanpipe/internal/storage"
	"scanpipe/types"
)

// ResultPublisher is the report fan-out the dispatcher hands completed
// envelopes to. The returned slice names the backends that persisted the
// report; empty means none did.
type ResultPublisher interface {
	Store(ctx context.Context, env *types.ScanResultEnvelope, wait bool) []string
}

// ScanJobManager pulls jobs off the queue fabric and executes them on a
// bounded worker pool. Scan jobs run under the lifecycle tracker; maintenance
// jobs share the pool but have no status-store lifecycle.
type ScanJobManager struct {
	fabric     queue.Fabric
	engine     scan.Engine
	modules    types.ModuleConfig
	publisher  ResultPublisher
	correlator maintenance.Correlator
	janitor    maintenance.IndexJanitor
	tracker    *LifecycleTracker
	workerNode string
}

func NewScanJobManager(
	fabric queue.Fabric,
	engine scan.Engine,
	modules types.ModuleConfig,
	publisher ResultPublisher,
	correlator maintenance.Correlator,
	janitor maintenance.IndexJanitor,
	tracker *LifecycleTracker,
	workerNode string,
) *ScanJobManager {
	return &ScanJobManager{
		fabric:     fabric,
		engine:     engine,
		modules:    modules,
		publisher:  publisher,
		correlator: correlator,
		janitor:    janitor,
		tracker:    tracker,
		workerNode: workerNode,
	}
}

// Start runs the pull loop until the context is done or the fabric closes.
// At most workerCount jobs execute concurrently; the loop itself never blocks
// on job execution, only on slot acquisition.
func (m *ScanJobManager) Start(ctx context.Context, workerCount int) error {
	m.tracker.startResultProcessor(ctx)

	sem := semaphore.NewWeighted(int64(workerCount))
	var wg sync.WaitGroup

	for {
		body, err := m.fabric.Dequeue(ctx)
		if err != nil {
			wg.Wait()
			if errors.Is(err, queue.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil
		}

		wg.Add(1)
		go func(body []byte) {
			defer wg.Done()
			defer sem.Release(1)
			m.dispatch(ctx, body)
		}(body)
	}
}

func (m *ScanJobManager) dispatch(ctx context.Context, body []byte) {
	var job types.Job
	if err := json.Unmarshal(body, &job); err != nil {
		// No decodable job id, so there is no lifecycle to fail.
		log.Printf("dropping undecodable job body: %v", err)
		return
	}

	switch job.Kind {
	case types.KindCorrelation:
		m.runCorrelation(ctx, job)
	case types.KindRollover:
		m.runRollover(ctx, job)
	default:
		m.tracker.Track(job.ID, func() (*types.ScanResultEnvelope, error) {
			return m.executeScan(ctx, job)
		})
	}
}

// executeScan is the full scan pipeline for one job. Any error aborts the job
// to Failed via the tracker; a successful return carries the envelope whose
// scan time becomes the task's terminal timestamp.
func (m *ScanJobManager) executeScan(ctx context.Context, job types.Job) (*types.ScanResultEnvelope, error) {
	log.Printf("got file %s, original filename %s", job.FileHash, job.OriginalFilename)

	if err := m.tracker.store.MarkRunning(ctx, job.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("persist running transition for task %s: %w", job.ID, err)
	}

	findings, err := m.engine.Scan(ctx, []string{job.FileRef}, m.modules, job.ModuleSubset)
	if err != nil {
		return nil, &custom_errors.EngineError{Err: err}
	}
	fileFindings, ok := findings[job.FileRef]
	if !ok || len(fileFindings) == 0 {
		return nil, custom_errors.ErrEmptyResult
	}

	env := m.buildEnvelope(job, fileFindings, time.Now())

	ids := m.publisher.Store(ctx, env, false)
	if len(ids) == 0 {
		return nil, &custom_errors.PublishError{TaskID: job.ID}
	}
	log.Printf("task %s report written to backends %v", job.ID, ids)

	return env, nil
}

// buildEnvelope re-keys the findings from the temp file ref to the original
// filename and injects the run metadata alongside whatever the submitter
// attached.
func (m *ScanJobManager) buildEnvelope(job types.Job, findings types.Findings, scanTime time.Time) *types.ScanResultEnvelope {
	enabled, total := m.modules.EnabledRatio(job.ModuleSubset)

	metadata := make(map[string]any, len(job.Metadata)+5)
	for k, v := range job.Metadata {
		metadata[k] = v
	}
	metadata["Task ID"] = job.ID
	metadata["Worker Node"] = m.workerNode
	metadata["Scan Time"] = scanTime.UTC().Format(time.RFC3339Nano)
	metadata["Modules Enabled"] = fmt.Sprintf("%d / %d", enabled, total)
	if len(job.ModuleSubset) == 0 {
		metadata["Scan Config"] = m.modules.EnabledSnapshot()
	} else {
		// An explicit subset ran, so the full-config snapshot would mislead.
		metadata["Scan Config"] = map[string]bool{}
	}

	return &types.ScanResultEnvelope{
		TaskID:   job.ID,
		Filename: job.OriginalFilename,
		Findings: findings,
		Metadata: metadata,
		ScanTime: scanTime,
	}
}

// runCorrelation executes one fuzzy-hash correlation pass. Maintenance jobs
// have no row in the status store; failures are logged and the next firing
// tries again.
func (m *ScanJobManager) runCorrelation(ctx context.Context, job types.Job) {
	defer recoverMaintenance(job)

	if m.correlator == nil {
		log.Printf("maintenance job %s skipped: no correlator configured", job.ID)
		return
	}
	if err := m.correlator.Compare(ctx); err != nil {
		log.Printf("maintenance job %s failed: %v", job.ID, err)
		return
	}
	log.Printf("maintenance job %s complete", job.ID)
}

func (m *ScanJobManager) runRollover(ctx context.Context, job types.Job) {
	defer recoverMaintenance(job)

	if m.janitor == nil {
		log.Printf("maintenance job %s skipped: no index janitor configured", job.ID)
		return
	}
	deleted, err := m.janitor.DeleteOldIndices(ctx, storage.ReportIndexPrefix, job.RetentionDays)
	if err != nil {
		log.Printf("maintenance job %s failed: %v", job.ID, err)
		return
	}
	log.Printf("maintenance job %s complete, rolled over %d indices", job.ID, deleted)
}

func recoverMaintenance(job types.Job) {
	if r := recover(); r != nil {
		log.Printf("panic in maintenance job %s: %v", job.ID, r)
	}
}
