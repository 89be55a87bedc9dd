package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/corvidlabs/corvid/internal/logging"
)

// Stats is a snapshot of daemon activity since start, reported on every
// heartbeat tick.
type Stats struct {
	PollCount      int64
	TotalEvents    int64
	TickCount      int64
	Executions     int64
	PendingTasks   int64
}

// HeartbeatConfig configures the heartbeat timer.
type HeartbeatConfig struct {
	Interval time.Duration // floor 300s, enforced by NewHeartbeat
	Snapshot func() Stats
}

// Heartbeat is one of the Daemon's three cooperating timers. It does no
// work itself beyond logging a one-line activity summary — the real work
// happens on the watcher-poll and scheduler-tick timers.
type Heartbeat struct {
	mu      sync.Mutex
	cfg     HeartbeatConfig
	log     logging.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

const minHeartbeatInterval = 300 * time.Second

// NewHeartbeat creates a heartbeat timer. The interval floor (300s) is
// enforced regardless of what the caller passes.
func NewHeartbeat(cfg HeartbeatConfig) *Heartbeat {
	if cfg.Interval < minHeartbeatInterval {
		cfg.Interval = minHeartbeatInterval
	}
	return &Heartbeat{
		cfg: cfg,
		log: logging.New("heartbeat"),
	}
}

// Start begins the heartbeat loop in a background goroutine.
func (h *Heartbeat) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	h.running = true
	go h.run(ctx)
}

// Stop blocks until the heartbeat goroutine has exited.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	close(h.stopCh)
	<-h.doneCh
	h.running = false
}

func (h *Heartbeat) run(ctx context.Context) {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.tick()
		}
	}
}

func (h *Heartbeat) tick() {
	if h.cfg.Snapshot == nil {
		h.log.Info("tick")
		return
	}
	s := h.cfg.Snapshot()
	h.log.Infof("polls=%d events=%d ticks=%d executions=%d pending=%d",
		s.PollCount, s.TotalEvents, s.TickCount, s.Executions, s.PendingTasks)
}
