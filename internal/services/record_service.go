package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"immistat/internal/amqp"
	"immistat/internal/core"
	"immistat/internal/records"
)

// ErrDeleteDeclined is returned when the confirmer refuses a deletion.
var ErrDeleteDeclined = errors.New("delete not confirmed")

// ErrRecordNotFound is returned by Delete for an unknown id when the caller
// wants to tell it apart from a successful removal.
var ErrRecordNotFound = errors.New("record not found")

// Confirmer decides whether a destructive action may proceed.
type Confirmer interface {
	Confirm(ctx context.Context, rec core.Record) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, rec core.Record) bool

func (f ConfirmFunc) Confirm(ctx context.Context, rec core.Record) bool { return f(ctx, rec) }

// Confirmed always agrees; Declined never does.
var (
	Confirmed Confirmer = ConfirmFunc(func(context.Context, core.Record) bool { return true })
	Declined  Confirmer = ConfirmFunc(func(context.Context, core.Record) bool { return false })
)

// Publisher announces committed mutations.
type Publisher interface {
	PublishRecordsChanged(ctx context.Context, msg *amqp.RecordsChangedMessage) error
}

// ListView is a filtered records listing plus its state.
type ListView struct {
	Records []core.Record
	Total   int
	State   core.ListState
	Query   core.Query
}

// RecordService orchestrates entry building, storage and change events.
type RecordService struct {
	store     *records.Store
	builder   *core.Builder
	publisher Publisher
}

// NewRecordService wires the service. publisher may be nil.
func NewRecordService(store *records.Store, builder *core.Builder, publisher Publisher) *RecordService {
	return &RecordService{
		store:     store,
		builder:   builder,
		publisher: publisher,
	}
}

// Create builds a record from raw form input and stores it. The record is
// returned even when persisting failed so the caller can show it.
func (s *RecordService) Create(ctx context.Context, in core.FormInput) (core.Record, error) {
	rec := s.builder.Build(in)
	if err := s.store.Insert(ctx, rec); err != nil {
		return rec, fmt.Errorf("save record: %w", err)
	}

	s.publish(ctx, amqp.OpInsert, rec.ID)
	return rec, nil
}

// Delete removes the record with id once c confirms. A declined delete
// returns ErrDeleteDeclined and changes nothing; an unknown id returns
// ErrRecordNotFound.
func (s *RecordService) Delete(ctx context.Context, id int64, c Confirmer) error {
	rec, ok := s.store.Get(id)
	if !ok {
		return ErrRecordNotFound
	}
	if c == nil || !c.Confirm(ctx, rec) {
		return ErrDeleteDeclined
	}

	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if !removed {
		// Raced with another delete.
		return ErrRecordNotFound
	}

	s.publish(ctx, amqp.OpDelete, id)
	return nil
}

// Get returns the record with id.
func (s *RecordService) Get(id int64) (core.Record, bool) {
	return s.store.Get(id)
}

// List applies q to the current collection.
func (s *RecordService) List(q core.Query) ListView {
	all := s.store.Records()
	matched := core.Filter(all, q)
	return ListView{
		Records: matched,
		Total:   len(all),
		State:   core.ListStateFor(len(all), len(matched)),
		Query:   q,
	}
}

// Summary aggregates the current collection.
func (s *RecordService) Summary() core.Summary {
	return core.Aggregate(s.store.Records())
}

// Records returns a copy of the whole collection, newest first.
func (s *RecordService) Records() []core.Record {
	return s.store.Records()
}

func (s *RecordService) publish(ctx context.Context, op string, id int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping change event", "op", op, "id", id)
		return
	}
	msg := amqp.NewRecordsChangedMessage(op, id, s.store.Len())
	if err := s.publisher.PublishRecordsChanged(ctx, msg); err != nil {
		// The mutation is already committed locally.
		slog.ErrorContext(ctx, "Failed to publish records changed message",
			"op", op, "id", id, "error", err)
	}
}
