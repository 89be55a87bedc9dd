// Package scheduler drives one tick of the task scheduler: load tasks
// whose next_run_at has passed, execute them, and persist the outcome.
// It implements internal/daemon's SchedulerTicker interface; the daemon
// owns the timer, this package owns what happens on each tick.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/corvidlabs/corvid/internal/cronexpr"
	"github.com/corvidlabs/corvid/internal/logging"
	"github.com/corvidlabs/corvid/internal/taskstore"
)

// Executor runs a single task's payload (a shell command, an agent
// prompt — whatever task.TaskString encodes) and returns its output.
type Executor interface {
	Execute(ctx context.Context, task taskstore.ScheduledTask) (output string, err error)
}

// Scheduler ties a Store to an Executor.
type Scheduler struct {
	store    *taskstore.Store
	executor Executor
	log      logging.Logger
}

// New returns a Scheduler backed by store and executor.
func New(store *taskstore.Store, executor Executor) *Scheduler {
	return &Scheduler{store: store, executor: executor, log: logging.New("scheduler")}
}

// Tick loads every due task and executes it, advancing recurring tasks
// to their next run and completing or failing one-shot tasks. Returns
// the number of tasks executed this tick.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	now := time.Now()
	due, err := s.store.Due(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("scheduler: load due tasks: %w", err)
	}

	for _, task := range due {
		s.runOne(ctx, task, now)
	}
	return len(due), nil
}

func (s *Scheduler) runOne(ctx context.Context, task taskstore.ScheduledTask, now time.Time) {
	if err := s.store.MarkRunning(ctx, task.ID, now); err != nil {
		s.log.Warnf("failed to mark task %s running: %v", task.ID, err)
		return
	}

	timeout := time.Duration(task.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = taskstore.DefaultTimeoutSeconds * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, execErr := s.executor.Execute(runCtx, task)
	finishedAt := time.Now()

	next := s.nextRun(task, finishedAt)

	if execErr != nil {
		s.log.Warnf("task %s (%s) failed: %v", task.ID, task.TaskString, execErr)
		if err := s.store.MarkFailed(ctx, task.ID, execErr.Error(), next, finishedAt); err != nil {
			s.log.Warnf("failed to record failure for task %s: %v", task.ID, err)
		}
		return
	}

	if err := s.store.MarkCompleted(ctx, task.ID, next, finishedAt); err != nil {
		s.log.Warnf("failed to record completion for task %s: %v", task.ID, err)
	}
}

// nextRun returns the next scheduled instant for a recurring task, or nil
// for a one-shot task (which should move to completed/failed instead).
func (s *Scheduler) nextRun(task taskstore.ScheduledTask, from time.Time) *time.Time {
	switch task.ScheduleKind {
	case taskstore.KindCron:
		next, err := cronexpr.Next(task.ScheduleSpec, from)
		if err != nil {
			s.log.Warnf("task %s: invalid cron spec %q: %v", task.ID, task.ScheduleSpec, err)
			return nil
		}
		return &next
	case taskstore.KindInterval:
		d, err := time.ParseDuration(task.ScheduleSpec)
		if err != nil {
			s.log.Warnf("task %s: invalid interval spec %q: %v", task.ID, task.ScheduleSpec, err)
			return nil
		}
		next := from.Add(d)
		return &next
	default:
		return nil
	}
}

// RecoverStaleRunning promotes tasks stuck in "running" past maxAge back
// to "pending", called once at daemon start.
func (s *Scheduler) RecoverStaleRunning(ctx context.Context, maxAge time.Duration) (int, error) {
	return s.store.RecoverStaleRunning(ctx, maxAge)
}

// PendingCount returns how many tasks are currently pending.
func (s *Scheduler) PendingCount(ctx context.Context) (int64, error) {
	return s.store.PendingCount(ctx)
}
