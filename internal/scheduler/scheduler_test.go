package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corvidlabs/corvid/internal/db"
	"github.com/corvidlabs/corvid/internal/taskstore"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls []taskstore.ScheduledTask
	err   error
}

func (f *fakeExecutor) Execute(ctx context.Context, task taskstore.ScheduledTask) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, task)
	if f.err != nil {
		return "", f.err
	}
	return "ok", nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *taskstore.Store, *fakeExecutor) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.NewSQLite(path)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	store := taskstore.New(d.DB)
	exec := &fakeExecutor{}
	return New(store, exec), store, exec
}

func TestTickExecutesDueOnceTask(t *testing.T) {
	sched, store, exec := newTestScheduler(t)
	ctx := context.Background()

	task, err := store.Create(ctx, taskstore.ScheduledTask{
		TaskString:   "say hello",
		ScheduleKind: taskstore.KindOnce,
		NextRunAt:    time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	executed, err := sched.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected 1 task executed, got %d", executed)
	}
	if len(exec.calls) != 1 || exec.calls[0].ID != task.ID {
		t.Fatalf("expected executor to be called with the due task, got %+v", exec.calls)
	}

	got, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != taskstore.StatusCompleted {
		t.Fatalf("expected one-shot task to complete, got %s", got.Status)
	}
}

func TestTickIgnoresNotYetDueTasks(t *testing.T) {
	sched, store, exec := newTestScheduler(t)
	ctx := context.Background()

	_, err := store.Create(ctx, taskstore.ScheduledTask{
		TaskString:   "later",
		ScheduleKind: taskstore.KindOnce,
		NextRunAt:    time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	executed, err := sched.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if executed != 0 {
		t.Fatalf("expected no tasks executed, got %d", executed)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("expected executor not to be called")
	}
}

func TestTickRecordsExecutorFailure(t *testing.T) {
	sched, store, exec := newTestScheduler(t)
	ctx := context.Background()
	exec.err = errors.New("boom")

	task, err := store.Create(ctx, taskstore.ScheduledTask{
		TaskString:   "will fail",
		ScheduleKind: taskstore.KindOnce,
		NextRunAt:    time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := sched.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != taskstore.StatusFailed {
		t.Fatalf("expected one-shot task to fail, got %s", got.Status)
	}
	if got.LastError != "boom" {
		t.Fatalf("expected last_error to record the executor error, got %q", got.LastError)
	}
}

func TestTickAdvancesIntervalTaskOnSuccess(t *testing.T) {
	sched, store, _ := newTestScheduler(t)
	ctx := context.Background()

	before := time.Now()
	task, err := store.Create(ctx, taskstore.ScheduledTask{
		TaskString:   "poll",
		ScheduleKind: taskstore.KindInterval,
		ScheduleSpec: "1h",
		NextRunAt:    before.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := sched.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != taskstore.StatusPending {
		t.Fatalf("expected interval task to return to pending, got %s", got.Status)
	}
	if !got.NextRunAt.After(before) {
		t.Fatalf("expected next_run_at to advance roughly an hour out, got %v", got.NextRunAt)
	}
}

func TestTickAdvancesCronTaskOnFailure(t *testing.T) {
	sched, store, exec := newTestScheduler(t)
	ctx := context.Background()
	exec.err = errors.New("transient")

	before := time.Now()
	task, err := store.Create(ctx, taskstore.ScheduledTask{
		TaskString:   "daily digest",
		ScheduleKind: taskstore.KindCron,
		ScheduleSpec: "0 0 9 * * *",
		NextRunAt:    before.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := sched.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	got, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != taskstore.StatusPending {
		t.Fatalf("expected cron task to return to pending even after failure, got %s", got.Status)
	}
	if got.LastError != "transient" {
		t.Fatalf("expected last_error to be recorded, got %q", got.LastError)
	}
	if !got.NextRunAt.After(before) {
		t.Fatalf("expected next_run_at to advance to the next cron fire, got %v", got.NextRunAt)
	}
}

func TestRecoverStaleRunningDelegatesToStore(t *testing.T) {
	sched, store, _ := newTestScheduler(t)
	ctx := context.Background()

	task, err := store.Create(ctx, taskstore.ScheduledTask{TaskString: "stuck", NextRunAt: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.MarkRunning(ctx, task.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("mark running: %v", err)
	}

	n, err := sched.RecoverStaleRunning(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 task recovered, got %d", n)
	}
}

func TestPendingCountDelegatesToStore(t *testing.T) {
	sched, store, _ := newTestScheduler(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, taskstore.ScheduledTask{TaskString: "x", NextRunAt: time.Now()}); err != nil {
		t.Fatalf("create: %v", err)
	}

	n, err := sched.PendingCount(ctx)
	if err != nil {
		t.Fatalf("pending count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pending task, got %d", n)
	}
}
