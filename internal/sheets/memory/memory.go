package memory

import (
	"context"
	"sync"
	"time"

	"immistat/internal/core"
	ports "immistat/internal/sheets"
)

var (
	_ ports.Exporter      = (*Store)(nil)
	_ ports.RecordsReader = (*Store)(nil)
)

// Store keeps the last export in memory. Used when no spreadsheet is
// configured and in tests.
type Store struct {
	mu            sync.Mutex
	records       []core.Record
	summary       core.Summary
	asOf          time.Time
	recordWrites  int
	summaryWrites int
}

func New() *Store {
	return &Store{}
}

func (s *Store) ExportRecords(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.Record(nil), records...)
	s.recordWrites++
	return nil
}

func (s *Store) ExportSummary(_ context.Context, sum core.Summary, asOf time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum.Townships = append([]core.TownshipTotal(nil), sum.Townships...)
	s.summary = sum
	s.asOf = asOf
	s.summaryWrites++
	return nil
}

func (s *Store) ReadRecords(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record{}, s.records...), nil
}

// Summary returns the last exported summary and its timestamp.
func (s *Store) Summary() (core.Summary, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.asOf
}

// Writes reports how many record and summary exports happened.
func (s *Store) Writes() (records, summaries int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordWrites, s.summaryWrites
}
