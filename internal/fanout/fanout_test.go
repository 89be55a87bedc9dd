package fanout

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunPreservesOrder(t *testing.T) {
	tasks := make([]Task, 10)
	for i := 0; i < 10; i++ {
		i := i
		tasks[i] = func() (any, error) { return i, nil }
	}
	results := Run(tasks, 4)
	for i, r := range results {
		if r.Value != i {
			t.Fatalf("expected result %d at index %d, got %v", i, i, r.Value)
		}
	}
}

func TestRunIsolatesPerTaskErrors(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task{
		func() (any, error) { return 1, nil },
		func() (any, error) { return nil, boom },
		func() (any, error) { return 3, nil },
	}
	results := Run(tasks, 4)
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("expected sibling tasks to succeed despite one failure")
	}
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("expected task 1's error to be isolated and returned")
	}
}

func TestRunRecoversPanics(t *testing.T) {
	tasks := []Task{
		func() (any, error) { panic("kaboom") },
		func() (any, error) { return "ok", nil },
	}
	results := Run(tasks, 4)
	if results[0].Err == nil {
		t.Fatalf("expected panic to surface as an error")
	}
	var panicErr *PanicError
	if !errors.As(results[0].Err, &panicErr) {
		t.Fatalf("expected a *PanicError, got %T", results[0].Err)
	}
	if results[1].Value != "ok" {
		t.Fatalf("expected sibling task to still complete")
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	var active int32
	var maxActive int32
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = func() (any, error) {
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			atomic.AddInt32(&active, -1)
			return nil, nil
		}
	}
	Run(tasks, 3)
	if maxActive > 3 {
		t.Fatalf("expected at most 3 concurrent tasks, observed %d", maxActive)
	}
}

func TestRunEmptyTaskList(t *testing.T) {
	results := Run(nil, 4)
	if len(results) != 0 {
		t.Fatalf("expected empty results for empty task list")
	}
}

func TestRunDefaultsConcurrencyWhenNonPositive(t *testing.T) {
	tasks := []Task{
		func() (any, error) { return 1, nil },
	}
	results := Run(tasks, 0)
	if results[0].Value != 1 {
		t.Fatalf("expected task to run with default concurrency")
	}
}
