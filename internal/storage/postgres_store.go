package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"scanpipe/types"
)

// PostgresResultStore keeps one report row per task in scanpipe_schema.scan_reports.
type PostgresResultStore struct {
	db *sql.DB
}

func NewPostgresResultStore(db *sql.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

func (s *PostgresResultStore) ID() string {
	return "postgres"
}

func (s *PostgresResultStore) Store(ctx context.Context, env *types.ScanResultEnvelope, wait bool) error {
	report, err := json.Marshal(env.Report())
	if err != nil {
		return fmt.Errorf("marshal report for task %s: %w", env.TaskID, err)
	}

	// Re-stored reports overwrite; the dispatcher never stores two different
	// reports for one task id.
	query := `
		INSERT INTO scanpipe_schema.scan_reports (task_id, filename, report, scan_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (task_id) DO UPDATE
		SET filename = EXCLUDED.filename, report = EXCLUDED.report, scan_time = EXCLUDED.scan_time
	`

	_, err = s.db.ExecContext(ctx, query, env.TaskID, env.Filename, report, env.ScanTime)
	return err
}

func (s *PostgresResultStore) Close() error {
	// The pool is shared with the task store; the wiring layer owns it.
	return nil
}
