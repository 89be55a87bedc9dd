// Package ledger records every small-model call and every byte saved by
// compaction or summarization. It is append-only in process, written
// through to SQLite on every Record when a database is attached, and
// best-effort: a failed write never aborts the call it was accounting for.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/corvidlabs/corvid/internal/logging"
)

// Entry is one accounted call or compaction event.
type Entry struct {
	Provider     string // e.g. "on-device-fm", "anthropic", "native"
	Purpose      string // e.g. "classification", "summarization", "context-compaction"
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	BytesSaved   int
	CreatedAt    time.Time
}

// Ledger holds entries in process and writes each one to SQLite. Zero
// value is usable with Record (in-memory only); New wires persistence.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	db      *sql.DB
	log     logging.Logger
}

// New returns a Ledger that writes every entry to db. db may be nil for an
// in-memory-only ledger (tests, one-shot CLI invocations).
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, log: logging.New("ledger")}
}

// Record appends an entry. It never returns an error to the caller: ledger
// writes are best-effort and must not abort the call being accounted for.
func (l *Ledger) Record(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	if l.db == nil {
		return
	}
	if err := l.insert(e); err != nil {
		l.log.Warnf("failed to persist entry: %v", err)
	}
}

func (l *Ledger) insert(e Entry) error {
	_, err := l.db.ExecContext(context.Background(),
		`INSERT INTO ledger_entries (provider, model, input_tokens, output_tokens, cost_usd, bytes_saved, purpose, created_at)
		 VALUES (?, '', ?, ?, ?, ?, ?, ?)`,
		e.Provider, e.InputTokens, e.OutputTokens, e.CostUSD, e.BytesSaved, e.Purpose, e.CreatedAt)
	return err
}

// Summary aggregates every entry recorded in this process.
type Summary struct {
	TotalInputTokens  int
	TotalOutputTokens int
	TotalCostUSD      float64
	TotalBytesSaved   int
	ByProvider        map[string]int // entry count per provider
	ByPurpose         map[string]int // entry count per purpose
}

// Aggregate returns a Summary over every in-process entry.
func (l *Ledger) Aggregate() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{ByProvider: map[string]int{}, ByPurpose: map[string]int{}}
	for _, e := range l.entries {
		s.TotalInputTokens += e.InputTokens
		s.TotalOutputTokens += e.OutputTokens
		s.TotalCostUSD += e.CostUSD
		s.TotalBytesSaved += e.BytesSaved
		s.ByProvider[e.Provider]++
		s.ByPurpose[e.Purpose]++
	}
	return s
}

// EstimateTokens approximates token count from character count for
// providers that don't report usage (on-device bridge): ceil(chars/4).
func EstimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + 3) / 4
}

// LoadSummary aggregates every entry persisted in SQLite, for reporting
// across process restarts — Aggregate only covers entries recorded by
// this process, which is empty for a fresh one-shot CLI invocation.
func (l *Ledger) LoadSummary(ctx context.Context) (Summary, error) {
	if l.db == nil {
		return l.Aggregate(), nil
	}

	s := Summary{ByProvider: map[string]int{}, ByPurpose: map[string]int{}}
	rows, err := l.db.QueryContext(ctx,
		`SELECT provider, purpose, input_tokens, output_tokens, cost_usd, bytes_saved FROM ledger_entries`)
	if err != nil {
		return Summary{}, fmt.Errorf("ledger: load summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var provider, purpose string
		var inTok, outTok, saved int
		var cost float64
		if err := rows.Scan(&provider, &purpose, &inTok, &outTok, &cost, &saved); err != nil {
			return Summary{}, fmt.Errorf("ledger: scan summary row: %w", err)
		}
		s.TotalInputTokens += inTok
		s.TotalOutputTokens += outTok
		s.TotalCostUSD += cost
		s.TotalBytesSaved += saved
		s.ByProvider[provider]++
		s.ByPurpose[purpose]++
	}
	return s, rows.Err()
}

// Entries returns a copy of every entry recorded so far, oldest first.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
