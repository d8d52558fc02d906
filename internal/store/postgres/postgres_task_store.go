package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scanpipe/internal/state"
	"scanpipe/types"
)

type PostgresTaskStore struct {
	db *sql.DB
}

func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

func (s *PostgresTaskStore) CreateTask(ctx context.Context, id, originalFilename, fileHash string) error {
	query := `
        INSERT INTO scanpipe_schema.tasks (
            id,
            status,
            original_filename,
            file_hash,
            created_at
        )
        VALUES ($1, $2, $3, $4, now())
    `

	_, err := s.db.ExecContext(ctx, query, id, state.StatusQueued, originalFilename, fileHash)
	if err != nil {
		return fmt.Errorf("failed to create task %s: %w", id, err)
	}
	return nil
}

func (s *PostgresTaskStore) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	query := `
		UPDATE scanpipe_schema.tasks
		SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`

	res, err := s.db.ExecContext(ctx, query, state.StatusRunning, startedAt, id, state.StatusQueued)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %s: queued to running transition rejected", id)
	}
	return nil
}

func (s *PostgresTaskStore) MarkComplete(ctx context.Context, id string, finishedAt time.Time) error {
	query := `
		UPDATE scanpipe_schema.tasks
		SET status = $1, finished_at = $2
		WHERE id = $3 AND status = $4
	`

	res, err := s.db.ExecContext(ctx, query, state.StatusComplete, finishedAt, id, state.StatusRunning)
	if err != nil {
		return err
	}
	return s.checkTerminalWrite(ctx, res, id, state.StatusComplete)
}

func (s *PostgresTaskStore) MarkFailure(ctx context.Context, id string, finishedAt time.Time, detail string) error {
	query := `
		UPDATE scanpipe_schema.tasks
		SET status = $1, finished_at = $2, detail = $3
		WHERE id = $4 AND status IN ($5, $6)
	`

	res, err := s.db.ExecContext(ctx, query,
		state.StatusFailed, finishedAt, detail, id, state.StatusQueued, state.StatusRunning)
	if err != nil {
		return err
	}
	return s.checkTerminalWrite(ctx, res, id, state.StatusFailed)
}

// checkTerminalWrite distinguishes an idempotent repeat of a terminal update
// (no-op) from a genuinely invalid one. The guarded UPDATE affected no row, so
// the current status decides which case this is.
func (s *PostgresTaskStore) checkTerminalWrite(ctx context.Context, res sql.Result, id string, wanted state.TaskStatus) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var current state.TaskStatus
	row := s.db.QueryRowContext(ctx, `SELECT status FROM scanpipe_schema.tasks WHERE id = $1`, id)
	if err := row.Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("task %s not found", id)
		}
		return err
	}
	if state.IsTerminal(current) {
		return nil
	}
	return fmt.Errorf("task %s: transition %s to %s rejected", id, current, wanted)
}

func (s *PostgresTaskStore) GetTask(ctx context.Context, id string) (*types.Task, error) {
	query := `
		SELECT id,
		       status,
		       original_filename,
		       file_hash,
		       detail,
		       created_at,
		       started_at,
		       finished_at
		FROM scanpipe_schema.tasks
		WHERE id = $1
	`

	var (
		task       types.Task
		detail     sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)

	row := s.db.QueryRowContext(ctx, query, id)
	err := row.Scan(
		&task.ID,
		&task.Status,
		&task.OriginalFilename,
		&task.FileHash,
		&detail,
		&task.CreatedAt,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("task with ID %s not found: %w", id, err)
	}

	task.Detail = detail.String
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		task.FinishedAt = &finishedAt.Time
	}
	return &task, nil
}

func (s *PostgresTaskStore) CountTasksGroupedByStatus(ctx context.Context) (map[state.TaskStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM scanpipe_schema.tasks
		GROUP BY status
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[state.TaskStatus]int)
	for rows.Next() {
		var status state.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (s *PostgresTaskStore) Close() error {
	return s.db.Close()
}
