// Package store persists per-run crawl records for after-the-fact
// diagnostics. It records results only; the frontier itself is never
// persisted and runs cannot resume across restarts.
package store

import (
	"context"
	"sync"
	"time"
)

// PageOutcome classifies what happened to one popped URL.
type PageOutcome string

// Outcomes recorded per processed page.
const (
	OutcomeRendered   PageOutcome = "rendered"
	OutcomeDownloaded PageOutcome = "downloaded"
	OutcomeFailed     PageOutcome = "failed"
)

// PageRecord is written for each URL the engine processed.
type PageRecord struct {
	RunID      string
	URL        string
	Outcome    PageOutcome
	ErrorText  string
	DurationMs int64
	FetchedAt  time.Time
}

// RunRecord summarizes one finished crawl run.
type RunRecord struct {
	RunID            string
	SeedURL          string
	Started          time.Time
	Finished         time.Time
	PagesVisited     int
	DocumentsEmitted int
	BatchesEmitted   int
	PageFailures     int
	Succeeded        bool
	ErrorText        string
}

// RunStore accepts page and run records. Implementations must tolerate
// best-effort callers: a write failure never aborts a crawl.
type RunStore interface {
	RecordPage(ctx context.Context, rec PageRecord) error
	RecordRun(ctx context.Context, rec RunRecord) error
	Close()
}

// Memory keeps records in process memory. It is the default store and the
// one used by tests.
type Memory struct {
	mu    sync.Mutex
	pages []PageRecord
	runs  []RunRecord
}

// NewMemory returns an empty in-memory run store.
func NewMemory() *Memory {
	return &Memory{}
}

// RecordPage appends a page record.
func (m *Memory) RecordPage(_ context.Context, rec PageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, rec)
	return nil
}

// RecordRun appends a run record.
func (m *Memory) RecordRun(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() {}

// Pages returns a copy of the recorded page records.
func (m *Memory) Pages() []PageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PageRecord, len(m.pages))
	copy(out, m.pages)
	return out
}

// Runs returns a copy of the recorded run records.
func (m *Memory) Runs() []RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunRecord, len(m.runs))
	copy(out, m.runs)
	return out
}
