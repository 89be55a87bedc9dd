package watchers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// State is one watcher's persisted position: its opaque cursor plus the
// bounded ring buffer of recently seen event IDs used for dedup.
type State struct {
	WatcherID string
	Cursor    string
	SeenIDs   []string
	UpdatedAt time.Time
}

// Store persists watcher_state rows. Raw database/sql with positional
// placeholders, matching internal/taskstore's and internal/ledger's
// idiom for hand-rolled tables in this codebase.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db (from internal/db.Store.DB).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the persisted state for watcherID, or a zero-value State
// with an empty cursor and no seen IDs if the watcher has never polled.
func (s *Store) Get(ctx context.Context, watcherID string) (State, error) {
	var (
		cursor    string
		seenJSON  string
		updatedAt time.Time
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT cursor, seen_ids, updated_at FROM watcher_state WHERE watcher_id = ?`, watcherID)
	err := row.Scan(&cursor, &seenJSON, &updatedAt)
	if err == sql.ErrNoRows {
		return State{WatcherID: watcherID}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("watchers: get state for %s: %w", watcherID, err)
	}

	var seenIDs []string
	if err := json.Unmarshal([]byte(seenJSON), &seenIDs); err != nil {
		return State{}, fmt.Errorf("watchers: decode seen_ids for %s: %w", watcherID, err)
	}
	return State{WatcherID: watcherID, Cursor: cursor, SeenIDs: seenIDs, UpdatedAt: updatedAt}, nil
}

// List returns every persisted watcher state, ordered by watcher ID.
func (s *Store) List(ctx context.Context) ([]State, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT watcher_id, cursor, seen_ids, updated_at FROM watcher_state ORDER BY watcher_id`)
	if err != nil {
		return nil, fmt.Errorf("watchers: list state: %w", err)
	}
	defer rows.Close()

	var states []State
	for rows.Next() {
		var (
			id, cursor, seenJSON string
			updatedAt            time.Time
		)
		if err := rows.Scan(&id, &cursor, &seenJSON, &updatedAt); err != nil {
			return nil, fmt.Errorf("watchers: scan state row: %w", err)
		}
		var seenIDs []string
		if err := json.Unmarshal([]byte(seenJSON), &seenIDs); err != nil {
			return nil, fmt.Errorf("watchers: decode seen_ids for %s: %w", id, err)
		}
		states = append(states, State{WatcherID: id, Cursor: cursor, SeenIDs: seenIDs, UpdatedAt: updatedAt})
	}
	return states, rows.Err()
}

// ExportJSON renders every watcher's state as a JSON document, for the
// debug/export snapshot §6 describes the daemon writing to the
// listener's configured state path. The SQLite rows remain authoritative;
// this is a point-in-time dump, not a replacement storage form.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	states, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(states, "", "  ")
}

// Update atomically writes back cursor and seenIDs for watcherID — an
// upsert, so the first poll of a never-seen watcher just inserts. Each
// watcher's row is only ever touched by that watcher's own poll, so a
// plain UPSERT is as atomic as this needs to be (per spec: "atomic
// per-watcher", not cross-watcher).
func (s *Store) Update(ctx context.Context, watcherID, cursor string, seenIDs []string) error {
	if seenIDs == nil {
		seenIDs = []string{}
	}
	seenJSON, err := json.Marshal(seenIDs)
	if err != nil {
		return fmt.Errorf("watchers: encode seen_ids for %s: %w", watcherID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO watcher_state (watcher_id, cursor, seen_ids, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(watcher_id) DO UPDATE SET cursor = excluded.cursor, seen_ids = excluded.seen_ids, updated_at = excluded.updated_at`,
		watcherID, cursor, string(seenJSON), time.Now())
	if err != nil {
		return fmt.Errorf("watchers: update state for %s: %w", watcherID, err)
	}
	return nil
}
