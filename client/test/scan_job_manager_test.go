package test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanpipe/client"
	"scanpipe/client/test/mocks"
	"scanpipe/internal/queue"
	"scanpipe/types"
)

var testModules = types.ModuleConfig{
	{Name: types.ReservedMainEntry, Enabled: true},
	{Name: "hasher", Enabled: true},
	{Name: "yara", Enabled: true},
	{Name: "pefile", Enabled: false},
}

// statusRecorder captures status-store writes across worker goroutines.
type statusRecorder struct {
	mu       sync.Mutex
	running  []string
	complete map[string]time.Time
	failed   map[string]string
}

func newRecordedStore() (*mocks.MockTaskStore, *statusRecorder) {
	rec := &statusRecorder{
		complete: make(map[string]time.Time),
		failed:   make(map[string]string),
	}
	store := &mocks.MockTaskStore{
		MarkRunningFunc: func(ctx context.Context, id string, startedAt time.Time) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.running = append(rec.running, id)
			return nil
		},
		MarkCompleteFunc: func(ctx context.Context, id string, finishedAt time.Time) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.complete[id] = finishedAt
			return nil
		},
		MarkFailureFunc: func(ctx context.Context, id string, finishedAt time.Time, detail string) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.failed[id] = detail
			return nil
		},
	}
	return store, rec
}

func (r *statusRecorder) completedAt(id string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.complete[id]
	return at, ok
}

func (r *statusRecorder) failureDetail(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	detail, ok := r.failed[id]
	return detail, ok
}

func (r *statusRecorder) ranCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.running {
		if got == id {
			n++
		}
	}
	return n
}

func startManager(t *testing.T, store *mocks.MockTaskStore, engine *mocks.MockScanEngine, publisher *mocks.MockResultPublisher, correlator *mocks.MockCorrelator, janitor *mocks.MockIndexJanitor) (context.Context, *queue.MemoryFabric) {
	t.Helper()

	fabric := queue.NewMemoryFabric(100)
	tracker := client.NewLifecycleTracker(store)
	manager := client.NewScanJobManager(fabric, engine, testModules, publisher, correlator, janitor, tracker, "worker-test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = manager.Start(ctx, 2)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctx, fabric
}

func enqueueJob(t *testing.T, ctx context.Context, fabric *queue.MemoryFabric, job types.Job) {
	t.Helper()
	body, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, fabric.Enqueue(ctx, job.Lane, job.SubPriority, body))
}

func scanJob(id string) types.Job {
	return types.Job{
		ID:               id,
		Kind:             types.KindScan,
		FileRef:          "/tmp/upload-" + id,
		OriginalFilename: "sample.exe",
		FileHash:         "deadbeef",
		Lane:             types.LaneMedium,
	}
}

func TestScanJobManager_SuccessPath(t *testing.T) {
	store, rec := newRecordedStore()

	job := scanJob("task-1")
	engine := &mocks.MockScanEngine{
		ScanFunc: func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
			require.Equal(t, []string{job.FileRef}, fileRefs)
			return map[string]types.Findings{
				job.FileRef: {"hasher": "deadbeef", "yara": []string{"rule1"}},
			}, nil
		},
	}

	var (
		envMu sync.Mutex
		env   *types.ScanResultEnvelope
	)
	publisher := &mocks.MockResultPublisher{
		StoreFunc: func(ctx context.Context, got *types.ScanResultEnvelope, wait bool) []string {
			envMu.Lock()
			env = got
			envMu.Unlock()
			return []string{"postgres", "redis"}
		},
	}

	ctx, fabric := startManager(t, store, engine, publisher, nil, nil)
	enqueueJob(t, ctx, fabric, job)

	assert.Eventually(t, func() bool {
		_, ok := rec.completedAt("task-1")
		return ok
	}, 2*time.Second, 10*time.Millisecond, "task should complete")

	assert.Equal(t, 1, rec.ranCount("task-1"))

	envMu.Lock()
	defer envMu.Unlock()
	require.NotNil(t, env)
	assert.Equal(t, "sample.exe", env.Filename, "findings must be re-keyed to the original filename")
	assert.Equal(t, "2 / 3", env.Metadata["Modules Enabled"])
	assert.Equal(t, "task-1", env.Metadata["Task ID"])
	assert.Equal(t, "worker-test", env.Metadata["Worker Node"])
	assert.Equal(t, map[string]bool{"hasher": true, "yara": true, "pefile": false}, env.Metadata["Scan Config"])

	finishedAt, _ := rec.completedAt("task-1")
	assert.Equal(t, env.ScanTime, finishedAt, "terminal timestamp must be the scan time, not bookkeeping time")
}

func TestScanJobManager_SubsetRatioAndEmptySnapshot(t *testing.T) {
	store, rec := newRecordedStore()

	job := scanJob("task-subset")
	job.ModuleSubset = []string{"hasher"}

	engine := &mocks.MockScanEngine{
		ScanFunc: func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
			assert.Equal(t, []string{"hasher"}, subset)
			return map[string]types.Findings{job.FileRef: {"hasher": "deadbeef"}}, nil
		},
	}

	var (
		envMu sync.Mutex
		env   *types.ScanResultEnvelope
	)
	publisher := &mocks.MockResultPublisher{
		StoreFunc: func(ctx context.Context, got *types.ScanResultEnvelope, wait bool) []string {
			envMu.Lock()
			env = got
			envMu.Unlock()
			return []string{"postgres"}
		},
	}

	ctx, fabric := startManager(t, store, engine, publisher, nil, nil)
	enqueueJob(t, ctx, fabric, job)

	assert.Eventually(t, func() bool {
		_, ok := rec.completedAt("task-subset")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	envMu.Lock()
	defer envMu.Unlock()
	require.NotNil(t, env)
	assert.Equal(t, "1 / 3", env.Metadata["Modules Enabled"])
	assert.Equal(t, map[string]bool{}, env.Metadata["Scan Config"])
}

func TestScanJobManager_PublishFailureFailsTask(t *testing.T) {
	store, rec := newRecordedStore()

	job := scanJob("task-pub")
	engine := &mocks.MockScanEngine{
		ScanFunc: func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
			return map[string]types.Findings{job.FileRef: {"hasher": "deadbeef"}}, nil
		},
	}
	publisher := &mocks.MockResultPublisher{
		StoreFunc: func(ctx context.Context, env *types.ScanResultEnvelope, wait bool) []string {
			return nil
		},
	}

	ctx, fabric := startManager(t, store, engine, publisher, nil, nil)
	enqueueJob(t, ctx, fabric, job)

	assert.Eventually(t, func() bool {
		detail, ok := rec.failureDetail("task-pub")
		return ok && assert.Contains(t, detail, "publish error")
	}, 2*time.Second, 10*time.Millisecond)

	_, completed := rec.completedAt("task-pub")
	assert.False(t, completed, "a task whose report persisted nowhere must not complete")
}

func TestScanJobManager_EmptyResultFailsTask(t *testing.T) {
	store, rec := newRecordedStore()

	engine := &mocks.MockScanEngine{
		ScanFunc: func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
			return map[string]types.Findings{}, nil
		},
	}

	var published atomic.Bool
	publisher := &mocks.MockResultPublisher{
		StoreFunc: func(ctx context.Context, env *types.ScanResultEnvelope, wait bool) []string {
			published.Store(true)
			return []string{"postgres"}
		},
	}

	ctx, fabric := startManager(t, store, engine, publisher, nil, nil)
	enqueueJob(t, ctx, fabric, scanJob("task-empty"))

	assert.Eventually(t, func() bool {
		detail, ok := rec.failureDetail("task-empty")
		return ok && assert.Contains(t, detail, "no results")
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, published.Load(), "an empty result must never reach the publisher")
}

func TestScanJobManager_EngineErrorFailsTask(t *testing.T) {
	store, rec := newRecordedStore()

	engine := &mocks.MockScanEngine{
		ScanFunc: func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
			return nil, errors.New("sandbox unavailable")
		},
	}

	ctx, fabric := startManager(t, store, engine, &mocks.MockResultPublisher{}, nil, nil)
	enqueueJob(t, ctx, fabric, scanJob("task-engine"))

	assert.Eventually(t, func() bool {
		detail, ok := rec.failureDetail("task-engine")
		return ok && assert.Contains(t, detail, "engine error") && assert.Contains(t, detail, "sandbox unavailable")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScanJobManager_RunningPersistFailureAbortsJob(t *testing.T) {
	store, rec := newRecordedStore()
	store.MarkRunningFunc = func(ctx context.Context, id string, startedAt time.Time) error {
		return errors.New("status store unreachable")
	}

	var scanned atomic.Bool
	engine := &mocks.MockScanEngine{
		ScanFunc: func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
			scanned.Store(true)
			return map[string]types.Findings{}, nil
		},
	}

	ctx, fabric := startManager(t, store, engine, &mocks.MockResultPublisher{}, nil, nil)
	enqueueJob(t, ctx, fabric, scanJob("task-abort"))

	assert.Eventually(t, func() bool {
		detail, ok := rec.failureDetail("task-abort")
		return ok && assert.Contains(t, detail, "status store unreachable")
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, scanned.Load(), "an untrackable job must not run")
}

func TestScanJobManager_PanicIsIsolated(t *testing.T) {
	store, rec := newRecordedStore()

	engine := &mocks.MockScanEngine{
		ScanFunc: func(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
			if fileRefs[0] == "/tmp/upload-task-panic" {
				panic("module crashed")
			}
			return map[string]types.Findings{fileRefs[0]: {"hasher": "ok"}}, nil
		},
	}

	ctx, fabric := startManager(t, store, engine, &mocks.MockResultPublisher{}, nil, nil)
	enqueueJob(t, ctx, fabric, scanJob("task-panic"))
	enqueueJob(t, ctx, fabric, scanJob("task-after"))

	assert.Eventually(t, func() bool {
		detail, ok := rec.failureDetail("task-panic")
		if !ok {
			return false
		}
		_, completed := rec.completedAt("task-after")
		return completed && assert.Contains(t, detail, "panic")
	}, 2*time.Second, 10*time.Millisecond, "a panicking job must fail alone, the pool keeps serving")
}

func TestScanJobManager_CorrelationJobRunsCorrelator(t *testing.T) {
	store, rec := newRecordedStore()

	var compared sync.WaitGroup
	compared.Add(1)
	correlator := &mocks.MockCorrelator{
		CompareFunc: func(ctx context.Context) error {
			compared.Done()
			return nil
		},
	}

	ctx, fabric := startManager(t, store, &mocks.MockScanEngine{}, &mocks.MockResultPublisher{}, correlator, nil)
	enqueueJob(t, ctx, fabric, types.Job{
		ID:          "correlation-2026-08-25T02:00:00Z",
		Kind:        types.KindCorrelation,
		Lane:        types.LaneLow,
		SubPriority: 1,
	})

	waitDone(t, &compared)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.running, "maintenance jobs have no status-store lifecycle")
	assert.Empty(t, rec.complete)
	assert.Empty(t, rec.failed)
}

func TestScanJobManager_RolloverJobRunsJanitor(t *testing.T) {
	store, _ := newRecordedStore()

	type call struct {
		prefix string
		days   int
	}
	calls := make(chan call, 1)
	janitor := &mocks.MockIndexJanitor{
		DeleteOldIndicesFunc: func(ctx context.Context, prefix string, days int) (int, error) {
			calls <- call{prefix, days}
			return 3, nil
		},
	}

	ctx, fabric := startManager(t, store, &mocks.MockScanEngine{}, &mocks.MockResultPublisher{}, nil, janitor)
	enqueueJob(t, ctx, fabric, types.Job{
		ID:            "rollover-2026-08-25T03:00:00Z",
		Kind:          types.KindRollover,
		RetentionDays: 7,
		Lane:          types.LaneLow,
		SubPriority:   1,
	})

	select {
	case got := <-calls:
		assert.Equal(t, "reports", got.prefix)
		assert.Equal(t, 7, got.days)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor was not invoked")
	}
}

func waitDone(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting")
	}
}
