package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/corvidlabs/corvid/internal/cronexpr"
	"github.com/corvidlabs/corvid/internal/taskstore"
)

// CreateAt schedules a one-shot task from a human time phrase ("in 5
// minutes", "7:30pm", an ISO-8601 instant), mirroring the reminder tool's
// "at" convenience over a raw cron expression.
func (s *Scheduler) CreateAt(ctx context.Context, taskString, at string) (taskstore.ScheduledTask, error) {
	expr, err := cronexpr.ParseHumanTime(at, time.Now())
	if err != nil {
		return taskstore.ScheduledTask{}, fmt.Errorf("scheduler: %w", err)
	}
	next, err := cronexpr.Next(expr, time.Now())
	if err != nil {
		return taskstore.ScheduledTask{}, fmt.Errorf("scheduler: computing first run: %w", err)
	}
	return s.store.Create(ctx, taskstore.ScheduledTask{
		TaskString:   taskString,
		ScheduleKind: taskstore.KindOnce,
		ScheduleSpec: expr,
		NextRunAt:    next,
	})
}

// CreateCron schedules a recurring task from a raw cron expression.
func (s *Scheduler) CreateCron(ctx context.Context, taskString, expr string) (taskstore.ScheduledTask, error) {
	if err := cronexpr.Validate(expr); err != nil {
		return taskstore.ScheduledTask{}, fmt.Errorf("scheduler: invalid cron expression: %w", err)
	}
	next, err := cronexpr.Next(expr, time.Now())
	if err != nil {
		return taskstore.ScheduledTask{}, fmt.Errorf("scheduler: computing first run: %w", err)
	}
	return s.store.Create(ctx, taskstore.ScheduledTask{
		TaskString:   taskString,
		ScheduleKind: taskstore.KindCron,
		ScheduleSpec: expr,
		NextRunAt:    next,
	})
}

// CreateInterval schedules a task that repeats every d.
func (s *Scheduler) CreateInterval(ctx context.Context, taskString string, d time.Duration) (taskstore.ScheduledTask, error) {
	return s.store.Create(ctx, taskstore.ScheduledTask{
		TaskString:   taskString,
		ScheduleKind: taskstore.KindInterval,
		ScheduleSpec: d.String(),
		NextRunAt:    time.Now().Add(d),
	})
}
