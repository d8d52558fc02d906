package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"scanpipe/types"
)

// FileResultStore appends reports as JSON lines into one file per day under
// the report directory.
type FileResultStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileResultStore(dir string) (*FileResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &FileResultStore{dir: dir}, nil
}

func (s *FileResultStore) ID() string {
	return "file"
}

func (s *FileResultStore) Store(ctx context.Context, env *types.ScanResultEnvelope, wait bool) error {
	line, err := json.Marshal(map[string]any{
		"task_id": env.TaskID,
		"report":  env.Report(),
	})
	if err != nil {
		return fmt.Errorf("marshal report for task %s: %w", env.TaskID, err)
	}

	path := filepath.Join(s.dir, DailyIndex(ReportIndexPrefix, env.ScanTime)+".jsonl")

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	if wait {
		return f.Sync()
	}
	return nil
}

func (s *FileResultStore) Close() error {
	return nil
}
