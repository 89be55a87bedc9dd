// Package taskstore persists ScheduledTask rows in the shared SQLite
// database (internal/db), backing internal/scheduler's tick execution
// and the Daemon Loop's crash-recovery of tasks left "running" by an
// unclean exit.
package taskstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScheduleKind identifies how NextRunAt/Schedule interact.
type ScheduleKind string

const (
	KindOnce     ScheduleKind = "once"
	KindInterval ScheduleKind = "interval"
	KindCron     ScheduleKind = "cron"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DefaultTimeoutSeconds bounds a single task execution when none is set.
const DefaultTimeoutSeconds = 120

// Origin identifies what created a task.
type Origin string

const (
	OriginUser            Origin = "user"
	OriginEventRouter     Origin = "event-router"
	OriginSelfImprovement Origin = "self-improvement"
)

// ScheduledTask is one row of the scheduled_tasks table.
type ScheduledTask struct {
	ID             string
	TaskString     string
	ScheduleKind   ScheduleKind
	ScheduleSpec   string
	NextRunAt      time.Time
	Status         Status
	Origin         Origin
	TimeoutSeconds int
	LastError      string
	LastRunAt      sql.NullTime
	RunningSince   sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Store wraps the shared *sql.DB for scheduled-task persistence.
type Store struct {
	db *sql.DB
}

// New returns a Store backed by db (from internal/db.Store.DB).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new task, generating an ID if task.ID is empty.
func (s *Store) Create(ctx context.Context, task ScheduledTask) (ScheduledTask, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	if task.Origin == "" {
		task.Origin = OriginUser
	}
	if task.TimeoutSeconds == 0 {
		task.TimeoutSeconds = DefaultTimeoutSeconds
	}
	now := time.Now()
	task.CreatedAt, task.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks
			(id, task_string, schedule_kind, schedule_spec, next_run_at, status, origin, timeout_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.TaskString, string(task.ScheduleKind), task.ScheduleSpec, task.NextRunAt,
		string(task.Status), string(task.Origin), task.TimeoutSeconds, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return ScheduledTask{}, fmt.Errorf("taskstore: create: %w", err)
	}
	return task, nil
}

// Get returns the task with the given ID.
func (s *Store) Get(ctx context.Context, id string) (ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx, taskSelectColumns+" FROM scheduled_tasks WHERE id = ?", id)
	return scanTask(row)
}

// List returns every task ordered by next_run_at.
func (s *Store) List(ctx context.Context) ([]ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, taskSelectColumns+" FROM scheduled_tasks ORDER BY next_run_at ASC")
	if err != nil {
		return nil, fmt.Errorf("taskstore: list: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// Due returns pending tasks whose next_run_at has passed, ordered oldest
// first — the set internal/scheduler.Tick executes on each call.
func (s *Store) Due(ctx context.Context, now time.Time) ([]ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx,
		taskSelectColumns+" FROM scheduled_tasks WHERE status = ? AND next_run_at <= ? ORDER BY next_run_at ASC",
		string(StatusPending), now)
	if err != nil {
		return nil, fmt.Errorf("taskstore: due: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// Delete removes a task by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, id)
	return err
}

// MarkRunning transitions a task to running and stamps running_since.
func (s *Store) MarkRunning(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks SET status = ?, running_since = ?, updated_at = ? WHERE id = ?`,
		string(StatusRunning), at, at, id)
	return err
}

// MarkCompleted transitions a one-shot task to completed, or a recurring
// task back to pending at its newly computed next_run_at.
func (s *Store) MarkCompleted(ctx context.Context, id string, nextRunAt *time.Time, at time.Time) error {
	status := StatusCompleted
	next := at
	if nextRunAt != nil {
		status = StatusPending
		next = *nextRunAt
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks SET status = ?, next_run_at = ?, last_run_at = ?, running_since = NULL, last_error = '', updated_at = ? WHERE id = ?`,
		string(status), next, at, at, id)
	return err
}

// MarkFailed records a task execution failure. Recurring tasks still
// advance to their next scheduled run; one-shot tasks move to failed.
func (s *Store) MarkFailed(ctx context.Context, id string, errMsg string, nextRunAt *time.Time, at time.Time) error {
	status := StatusFailed
	next := at
	if nextRunAt != nil {
		status = StatusPending
		next = *nextRunAt
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks SET status = ?, next_run_at = ?, last_run_at = ?, running_since = NULL, last_error = ?, updated_at = ? WHERE id = ?`,
		string(status), next, at, errMsg, at, id)
	return err
}

// RecoverStaleRunning demotes tasks stuck in "running" for longer than
// maxAge back to "pending", assuming the previous process crashed
// mid-execution. Returns the number of tasks recovered.
func (s *Store) RecoverStaleRunning(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks SET status = ?, running_since = NULL, last_error = 'recovered after crash', updated_at = ?
		 WHERE status = ? AND running_since IS NOT NULL AND running_since <= ?`,
		string(StatusPending), time.Now(), string(StatusRunning), cutoff)
	if err != nil {
		return 0, fmt.Errorf("taskstore: recover stale running: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// PendingCount returns how many tasks are currently pending.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_tasks WHERE status = ?`, string(StatusPending)).Scan(&n)
	return n, err
}

// ExportJSON renders every task as the JSON document shape §6 describes,
// for export/import and debugging. The SQLite table remains the
// authoritative store; this is a point-in-time snapshot.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(tasks, "", "  ")
}

const taskSelectColumns = `SELECT id, task_string, schedule_kind, schedule_spec, next_run_at, status, origin,
	timeout_seconds, last_error, last_run_at, running_since, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (ScheduledTask, error) {
	var t ScheduledTask
	var kind, status, origin string
	err := row.Scan(&t.ID, &t.TaskString, &kind, &t.ScheduleSpec, &t.NextRunAt, &status, &origin,
		&t.TimeoutSeconds, &t.LastError, &t.LastRunAt, &t.RunningSince, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return ScheduledTask{}, err
	}
	t.ScheduleKind, t.Status, t.Origin = ScheduleKind(kind), Status(status), Origin(origin)
	return t, nil
}

func scanTasks(rows *sql.Rows) ([]ScheduledTask, error) {
	var tasks []ScheduledTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
