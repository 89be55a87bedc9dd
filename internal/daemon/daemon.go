// Package daemon owns the long-lived event loop that binds the router to
// periodic watchers and the task scheduler: one timer per subsystem plus a
// heartbeat, graceful-then-hard shutdown on signal, and crash recovery of
// tasks left "running" by an unclean exit.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/corvidlabs/corvid/internal/logging"
)

const (
	minWatcherPollInterval = 10 * time.Second
	minSchedulerTickInterval = 30 * time.Second
	shutdownGrace          = 10 * time.Second
)

// WatcherPoller drives one tick of every registered watcher, feeding emitted
// events into the event router. Implemented by internal/watchers.
type WatcherPoller interface {
	PollAll(ctx context.Context) (eventCount int, err error)
}

// SchedulerTicker drives one tick of the task scheduler: load ready tasks,
// execute, persist results. Implemented by internal/scheduler.
type SchedulerTicker interface {
	Tick(ctx context.Context) (executed int, err error)
	// RecoverStaleRunning promotes tasks stuck in "running" past maxAge
	// back to "pending". Called once at daemon start.
	RecoverStaleRunning(ctx context.Context, maxAge time.Duration) (int, error)
	PendingCount(ctx context.Context) (int64, error)
}

// Config configures the Daemon's three timers.
type Config struct {
	WatcherPollInterval   time.Duration // floor 10s
	SchedulerTickInterval time.Duration // floor 30s
	HeartbeatInterval     time.Duration // floor 300s

	Watchers  WatcherPoller
	Scheduler SchedulerTicker

	// StaleRunningMaxAge bounds how long a task may sit in "running"
	// before a restart assumes the previous process crashed mid-execution
	// and demotes it back to "pending".
	StaleRunningMaxAge time.Duration
}

// Daemon is the long-lived process binding watchers, scheduler, and
// heartbeat onto one cooperative event loop.
type Daemon struct {
	cfg Config
	log logging.Logger

	pollCount    atomic.Int64
	totalEvents  atomic.Int64
	tickCount    atomic.Int64
	executions   atomic.Int64

	heartbeat *Heartbeat

	mu      sync.Mutex
	cancel  context.CancelFunc
	doneCh  chan struct{}
	running bool
}

// New constructs a Daemon. Interval floors from §4.7 are enforced here.
func New(cfg Config) *Daemon {
	if cfg.WatcherPollInterval < minWatcherPollInterval {
		cfg.WatcherPollInterval = minWatcherPollInterval
	}
	if cfg.SchedulerTickInterval < minSchedulerTickInterval {
		cfg.SchedulerTickInterval = minSchedulerTickInterval
	}
	if cfg.StaleRunningMaxAge == 0 {
		cfg.StaleRunningMaxAge = 15 * time.Minute
	}

	d := &Daemon{cfg: cfg, log: logging.New("daemon")}
	d.heartbeat = NewHeartbeat(HeartbeatConfig{
		Interval: cfg.HeartbeatInterval,
		Snapshot: d.snapshot,
	})
	return d
}

func (d *Daemon) snapshot() Stats {
	pending, _ := d.cfg.Scheduler.PendingCount(context.Background())
	return Stats{
		PollCount:    d.pollCount.Load(),
		TotalEvents:  d.totalEvents.Load(),
		TickCount:    d.tickCount.Load(),
		Executions:   d.executions.Load(),
		PendingTasks: pending,
	}
}

// Run initializes the daemon, installs shutdown handlers for SIGINT and
// SIGTERM, emits the start banner, and blocks on the event loop until a
// signal arrives or ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d.cfg.Scheduler != nil {
		recovered, err := d.cfg.Scheduler.RecoverStaleRunning(ctx, d.cfg.StaleRunningMaxAge)
		if err != nil {
			d.log.Warnf("crash recovery failed: %v", err)
		} else if recovered > 0 {
			d.log.Infof("crash recovery: %d stale running task(s) demoted to pending", recovered)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.doneCh = make(chan struct{})
	d.running = true
	d.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	d.heartbeat.Start(runCtx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); d.watcherLoop(runCtx) }()
	go func() { defer wg.Done(); d.schedulerLoop(runCtx) }()

	d.log.Info("daemon started: watcher-poll=" + d.cfg.WatcherPollInterval.String() +
		" scheduler-tick=" + d.cfg.SchedulerTickInterval.String())

	select {
	case sig := <-sigCh:
		d.log.Infof("received %s, shutting down", sig)
	case <-ctx.Done():
		d.log.Info("context cancelled, shutting down")
	}

	cancel()
	d.heartbeat.Stop()

	waitCh := make(chan struct{})
	go func() { wg.Wait(); close(waitCh) }()
	select {
	case <-waitCh:
		d.log.Info("shutdown complete")
	case <-time.After(shutdownGrace):
		d.log.Warn("shutdown grace period exceeded, forcing exit")
	}

	d.mu.Lock()
	close(d.doneCh)
	d.running = false
	d.mu.Unlock()
	return nil
}

// Stop cancels a running daemon and blocks until it has exited.
func (d *Daemon) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.doneCh
	running := d.running
	d.mu.Unlock()
	if !running || cancel == nil {
		return
	}
	cancel()
	<-done
}

func (d *Daemon) watcherLoop(ctx context.Context) {
	if d.cfg.Watchers == nil {
		return
	}
	ticker := time.NewTicker(d.cfg.WatcherPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.pollCount.Add(1)
			n, err := d.cfg.Watchers.PollAll(ctx)
			if err != nil {
				d.log.Warnf("watcher poll failed: %v", err)
				continue
			}
			d.totalEvents.Add(int64(n))
		}
	}
}

func (d *Daemon) schedulerLoop(ctx context.Context) {
	if d.cfg.Scheduler == nil {
		return
	}
	ticker := time.NewTicker(d.cfg.SchedulerTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tickCount.Add(1)
			n, err := d.cfg.Scheduler.Tick(ctx)
			if err != nil {
				d.log.Warnf("scheduler tick failed: %v", err)
				continue
			}
			d.executions.Add(int64(n))
		}
	}
}
