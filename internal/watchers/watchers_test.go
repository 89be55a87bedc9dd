package watchers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/corvidlabs/corvid/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.NewSQLite(path)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d.DB)
}

type recordingHandler struct {
	batches [][]EventRecord
	err     error
}

func (h *recordingHandler) Handle(ctx context.Context, events []EventRecord) error {
	h.batches = append(h.batches, events)
	return h.err
}

func TestPollAllEmitsFreshEvents(t *testing.T) {
	store := newTestStore(t)
	handler := &recordingHandler{}
	src := NewStaticSource("mail", []RawEvent{
		{EventID: "1", Timestamp: time.Now(), Payload: map[string]any{"subject": "hi"}},
		{EventID: "2", Timestamp: time.Now(), Payload: map[string]any{"subject": "bye"}},
	})
	mgr := NewManager(store, handler, src)

	n, err := mgr.PollAll(context.Background())
	if err != nil {
		t.Fatalf("poll all: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 events, got %d", n)
	}
	if len(handler.batches) != 1 || len(handler.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2, got %+v", handler.batches)
	}
}

func TestPollAllDedupsAcrossTicks(t *testing.T) {
	store := newTestStore(t)
	handler := &recordingHandler{}
	src := NewStaticSource("mail", []RawEvent{
		{EventID: "1", Timestamp: time.Now()},
	})
	mgr := NewManager(store, handler, src)

	if _, err := mgr.PollAll(context.Background()); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	n, err := mgr.PollAll(context.Background())
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 new events on second poll of the same event, got %d", n)
	}
	if len(handler.batches) != 1 {
		t.Fatalf("expected handler to only be called once, got %d calls", len(handler.batches))
	}
}

func TestPollAllDedupSurvivesManagerRestart(t *testing.T) {
	store := newTestStore(t)
	src := NewStaticSource("mail", []RawEvent{{EventID: "dup"}})

	first := NewManager(store, &recordingHandler{}, src)
	if _, err := first.PollAll(context.Background()); err != nil {
		t.Fatalf("first manager poll: %v", err)
	}

	handler := &recordingHandler{}
	second := NewManager(store, handler, NewStaticSource("mail", []RawEvent{{EventID: "dup"}}))
	n, err := second.PollAll(context.Background())
	if err != nil {
		t.Fatalf("second manager poll: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected the (watcher_id, event_id) pair to stay deduped across a fresh Manager, got %d new", n)
	}
}

type erroringSource struct{ id string }

func (e *erroringSource) ID() string { return e.id }
func (e *erroringSource) Poll(ctx context.Context, cursor string) ([]RawEvent, string, error) {
	return nil, "", errors.New("source unavailable")
}

func TestPollAllSwallowsSourceErrorsAndContinues(t *testing.T) {
	store := newTestStore(t)
	handler := &recordingHandler{}
	good := NewStaticSource("calendar", []RawEvent{{EventID: "a"}})
	bad := &erroringSource{id: "mail"}
	mgr := NewManager(store, handler, bad, good)

	n, err := mgr.PollAll(context.Background())
	if err != nil {
		t.Fatalf("expected PollAll itself to never return an error, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the healthy source's event to still be emitted, got %d", n)
	}
}

func TestPollAllNoEventsLeavesCursorUnchanged(t *testing.T) {
	store := newTestStore(t)
	src := NewStaticSource("mail", nil)
	mgr := NewManager(store, &recordingHandler{}, src)

	n, err := mgr.PollAll(context.Background())
	if err != nil {
		t.Fatalf("poll all: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 events on an empty source, got %d", n)
	}
	state, err := store.Get(context.Background(), "mail")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Cursor != "" {
		t.Fatalf("expected cursor to stay unset, got %q", state.Cursor)
	}
}

func TestSeenSetBoundedCapacity(t *testing.T) {
	s := newSeenSet(nil)
	for i := 0; i < maxSeenIDs+10; i++ {
		s.add(string(rune('a' + i%26)))
		s.add(string(rune(i)))
	}
	if len(s.ids()) > maxSeenIDs {
		t.Fatalf("expected seen set to stay bounded at %d, got %d", maxSeenIDs, len(s.ids()))
	}
}
