package watchers

import "context"

// StaticSource is a same-process Source fake: it returns a fixed batch
// of events regardless of cursor and counts its Poll calls in memory.
// Used in tests and for sources that don't need
// process isolation, e.g. a local file-based notification queue.
type StaticSource struct {
	SourceID string
	Events   []RawEvent
	Cursor   string

	calls int
}

// NewStaticSource returns a StaticSource that replays events on every
// poll (dedup happens one layer up, in Manager, via seen-ID tracking).
func NewStaticSource(id string, events []RawEvent) *StaticSource {
	return &StaticSource{SourceID: id, Events: events}
}

func (s *StaticSource) ID() string { return s.SourceID }

// Poll returns the fixed event batch and the source's static cursor
// string, or the cursor it was given, unchanged, if none was set — a
// real Source uses the cursor to page through
// its external API; this fake has nothing to page through.
func (s *StaticSource) Poll(ctx context.Context, cursor string) ([]RawEvent, string, error) {
	s.calls++
	next := s.Cursor
	if next == "" {
		next = cursor
	}
	return s.Events, next, nil
}
