package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// schedulerStore keeps scheduled task state and run history in the
// scheduled_tasks and task_results tables.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const (
	selectTasks = `SELECT id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled
		FROM scheduled_tasks`

	upsertTask = `INSERT INTO scheduled_tasks
			(id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled`

	insertResult = `INSERT INTO task_results (task_id, started_at, ended_at, success, error, items_processed)
		VALUES (?, ?, ?, ?, ?, ?)`

	selectHistory = `SELECT task_id, started_at, ended_at, success, error, items_processed
		FROM task_results WHERE task_id = ?
		ORDER BY started_at DESC, id DESC LIMIT ?`

	// Rank results per task newest first and drop everything past keep.
	pruneResults = `DELETE FROM task_results WHERE id IN (
		SELECT id FROM (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC, id DESC) AS rank
			FROM task_results
		) WHERE rank > ?)`
)

// GetTask returns nil and no error for an unknown ID.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	task, err := scanScheduledTask(s.store.db.QueryRowContext(ctx, selectTasks+` WHERE id = ?`, taskID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, &domain.StoreError{Op: "get task", Err: err}
	}
	return &task, nil
}

func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx, selectTasks+` ORDER BY id`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list tasks", Err: err}
	}
	tasks, err := collect(rows, scanScheduledTask)
	if err != nil {
		return nil, &domain.StoreError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, upsertTask,
		task.ID, task.Name, int64(task.Interval/time.Second),
		timestamp(task.LastRun), timestamp(task.NextRun),
		optionalText(task.LastError), timestamp(task.LastSuccess),
		task.Enabled)
	if err != nil {
		return &domain.StoreError{Op: "save task", Err: err}
	}
	return nil
}

func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, taskID); err != nil {
		return &domain.StoreError{Op: "delete task", Err: err}
	}
	return nil
}

func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, insertResult,
		result.TaskID, timestamp(result.StartedAt), timestamp(result.EndedAt),
		result.Success, optionalText(result.Error), result.ItemsProcessed)
	if err != nil {
		return &domain.StoreError{Op: "record result", Err: err}
	}
	return nil
}

// GetTaskHistory returns up to limit results for a task, newest first.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	rows, err := s.store.db.QueryContext(ctx, selectHistory, taskID, limit)
	if err != nil {
		return nil, &domain.StoreError{Op: "task history", Err: err}
	}
	results, err := collect(rows, scanTaskResult)
	if err != nil {
		return nil, &domain.StoreError{Op: "task history", Err: err}
	}
	return results, nil
}

// PruneHistory keeps the newest keep results of every task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	if _, err := s.store.db.ExecContext(ctx, pruneResults, keep); err != nil {
		return &domain.StoreError{Op: "prune history", Err: err}
	}
	return nil
}

func scanScheduledTask(row scanner) (domain.ScheduledTask, error) {
	var (
		t                          domain.ScheduledTask
		seconds                    int64
		lastRun, nextRun, lastSucc timestamp
		lastErr                    sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &seconds, &lastRun, &nextRun, &lastErr, &lastSucc, &t.Enabled)
	if err != nil {
		return t, err
	}
	t.Interval = time.Duration(seconds) * time.Second
	t.LastRun = time.Time(lastRun)
	t.NextRun = time.Time(nextRun)
	t.LastSuccess = time.Time(lastSucc)
	t.LastError = lastErr.String
	return t, nil
}

func scanTaskResult(row scanner) (domain.TaskResult, error) {
	var (
		r              domain.TaskResult
		started, ended timestamp
		errText        sql.NullString
	)
	if err := row.Scan(&r.TaskID, &started, &ended, &r.Success, &errText, &r.ItemsProcessed); err != nil {
		return r, err
	}
	r.StartedAt = time.Time(started)
	r.EndedAt = time.Time(ended)
	r.Error = errText.String
	return r, nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// timestamp is a UTC time stored as RFC 3339 text. The zero time is NULL.
type timestamp time.Time

func (t timestamp) Value() (driver.Value, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return nil, nil
	}
	return tt.UTC().Format(time.RFC3339), nil
}

// Scan accepts NULL, text and time values. Unparsable text scans as the zero time.
func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = timestamp{}
	case time.Time:
		*t = timestamp(v.UTC())
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("timestamp: cannot scan %T", src)
	}
	return nil
}

func (t *timestamp) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed = time.Time{}
	}
	*t = timestamp(parsed)
	return nil
}

// optionalText stores the empty string as NULL.
func optionalText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
