// Package watchers polls external environmental sources (mail, calendar,
// messages, notifications, upstream VCS events) and turns them into
// deduplicated EventRecords for internal/eventrouter. Each Source owns
// nothing across calls — all cursoring and seen-ID dedup lives in
// internal/watchers.Store, so a restarted daemon never replays an event
// it already handed to the router.
package watchers

import (
	"context"
	"fmt"
	"time"

	"github.com/corvidlabs/corvid/internal/logging"
)

// EventRecord is one deduplicated event emitted by a watcher, destined
// for the Event Router.
type EventRecord struct {
	WatcherID string
	EventID   string
	Timestamp time.Time
	Payload   map[string]any
}

// RawEvent is what a Source reports before dedup — the same shape as
// EventRecord minus the watcher ID, which the Manager stamps on.
type RawEvent struct {
	EventID   string
	Timestamp time.Time
	Payload   map[string]any
}

// Source is one external collaborator: a mail, calendar, messages, or
// VCS poller. Implementations hold no state between Poll calls — cursor
// and dedup are the Manager's job, so a Source can be swapped for a
// go-plugin subprocess (internal/watchers/plugin) without losing
// crash-recovery guarantees.
type Source interface {
	// ID names this source; must be stable across restarts, used as
	// the watcher_id half of the EventRecord dedup key.
	ID() string

	// Poll reads from cursor (opaque, source-defined: a UID, a ROWID,
	// whatever "last seen" means for this source) and returns every
	// event at or after it, plus the cursor to persist for next time.
	// Poll does not need to filter already-seen events itself — the
	// Manager re-filters against the persisted seen-ID set regardless,
	// so a Source may over-return near the cursor boundary.
	Poll(ctx context.Context, cursor string) (events []RawEvent, newCursor string, err error)
}

// EventHandler receives deduplicated events, one watcher's batch at a
// time, in source order. Typically internal/eventrouter.Router.Handle.
type EventHandler interface {
	Handle(ctx context.Context, events []EventRecord) error
}

// Manager owns a set of named Sources and the Store that persists their
// cursors. It implements internal/daemon's WatcherPoller interface.
type Manager struct {
	store   *Store
	sources []Source
	handler EventHandler
	log     logging.Logger
}

// NewManager returns a Manager polling sources in registration order and
// handing deduplicated events to handler.
func NewManager(store *Store, handler EventHandler, sources ...Source) *Manager {
	return &Manager{store: store, sources: sources, handler: handler, log: logging.New("watchers")}
}

// PollAll polls every registered source once, in registration order
// (ordering across watchers is not guaranteed, per spec; this package
// simply runs them sequentially since a plugin subprocess per watcher
// already bounds the blast radius of one slow source). Poll failures
// are logged and swallowed — the next tick retries — and never abort
// the remaining watchers. Returns the total number of new events
// handed to the handler this tick.
func (m *Manager) PollAll(ctx context.Context) (int, error) {
	total := 0
	for _, src := range m.sources {
		n, err := m.pollOne(ctx, src)
		if err != nil {
			m.log.Warnf("watcher %s: poll failed: %v", src.ID(), err)
			continue
		}
		total += n
	}
	return total, nil
}

func (m *Manager) pollOne(ctx context.Context, src Source) (int, error) {
	state, err := m.store.Get(ctx, src.ID())
	if err != nil {
		return 0, fmt.Errorf("watchers: load state for %s: %w", src.ID(), err)
	}

	raw, newCursor, err := src.Poll(ctx, state.Cursor)
	if err != nil {
		return 0, fmt.Errorf("watchers: source %s: %w", src.ID(), err)
	}
	if len(raw) == 0 {
		return 0, nil
	}

	fresh := make([]EventRecord, 0, len(raw))
	seen := newSeenSet(state.SeenIDs)
	for _, r := range raw {
		if seen.contains(r.EventID) {
			continue
		}
		fresh = append(fresh, EventRecord{
			WatcherID: src.ID(),
			EventID:   r.EventID,
			Timestamp: r.Timestamp,
			Payload:   r.Payload,
		})
		seen.add(r.EventID)
	}

	if err := m.store.Update(ctx, src.ID(), newCursor, seen.ids()); err != nil {
		return 0, fmt.Errorf("watchers: persist state for %s: %w", src.ID(), err)
	}

	if len(fresh) == 0 {
		return 0, nil
	}
	if m.handler != nil {
		if err := m.handler.Handle(ctx, fresh); err != nil {
			return 0, fmt.Errorf("watchers: handler rejected events from %s: %w", src.ID(), err)
		}
	}
	return len(fresh), nil
}
