// Package records owns the in-memory record collection and writes it through
// to a key-value backend after every mutation.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"immistat/internal/core"
	applog "immistat/internal/log"
	"immistat/internal/storage"
)

// Key is the single key the whole collection is persisted under.
const Key = "immistat:records"

// Store holds the collection newest-first.
type Store struct {
	kv     storage.KeyValueStore
	logger *applog.Logger

	mu      sync.Mutex
	records []core.Record
}

// NewStore returns an empty store. Call Load before serving.
func NewStore(kv storage.KeyValueStore, logger *applog.Logger) *Store {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Store{kv: kv, logger: logger.WithComponent(applog.ComponentRecords)}
}

// Load replaces the in-memory collection with the persisted one. A missing,
// unreadable or malformed blob yields the seed dataset; Load never fails.
func (s *Store) Load(ctx context.Context) []core.Record {
	loaded := s.read(ctx)

	s.mu.Lock()
	s.records = loaded
	out := clone(loaded)
	s.mu.Unlock()
	return out
}

func (s *Store) read(ctx context.Context) []core.Record {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.InfoContext(ctx, "No persisted records, using seed data")
		return core.SeedRecords()
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read persisted records, using seed data", applog.FieldError, err)
		return core.SeedRecords()
	}

	var decoded []core.Record
	if err := json.Unmarshal(raw, &decoded); err != nil {
		s.logger.WarnContext(ctx, "Persisted records are not valid JSON, using seed data", applog.FieldError, err)
		return core.SeedRecords()
	}
	if decoded == nil {
		s.logger.WarnContext(ctx, "Persisted records are not an array, using seed data")
		return core.SeedRecords()
	}
	if err := core.ValidateCollection(decoded); err != nil {
		s.logger.WarnContext(ctx, "Persisted records are invalid, using seed data", applog.FieldError, err)
		return core.SeedRecords()
	}

	s.logger.InfoContext(ctx, "Loaded persisted records", applog.FieldRecordCount, len(decoded))
	return decoded
}

// Records returns a copy of the collection, newest first.
func (s *Store) Records() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.records)
}

// Len reports the number of records held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Insert prepends rec and persists the collection. The record stays in
// memory even when persisting fails.
func (s *Store) Insert(ctx context.Context, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]core.Record, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)
	s.records = next

	if err := s.persistLocked(ctx); err != nil {
		return fmt.Errorf("insert record %d: %w", rec.ID, err)
	}
	return nil
}

// Delete removes the record with id. It reports false, and writes nothing,
// when no such record exists.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	next := make([]core.Record, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)
	s.records = next

	if err := s.persistLocked(ctx); err != nil {
		return true, fmt.Errorf("delete record %d: %w", id, err)
	}
	return true, nil
}

// Get returns the record with id.
func (s *Store) Get(id int64) (core.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return core.Record{}, false
}

func (s *Store) persistLocked(ctx context.Context) error {
	payload := s.records
	if payload == nil {
		payload = []core.Record{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.kv.Put(ctx, Key, raw); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist records", applog.FieldError, err, applog.FieldRecordCount, len(payload))
		return fmt.Errorf("persist records: %w", err)
	}
	return nil
}

func clone(in []core.Record) []core.Record {
	out := make([]core.Record, len(in))
	copy(out, in)
	return out
}
