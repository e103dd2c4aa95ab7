package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"immistat/internal/amqp"
	"immistat/internal/core"
	applog "immistat/internal/log"
	"immistat/internal/records"
	"immistat/internal/storage/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.RecordsChangedMessage
	err  error
}

func (p *fakePublisher) PublishRecordsChanged(_ context.Context, msg *amqp.RecordsChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func newTestService(t *testing.T, pub Publisher) (*RecordService, *memory.Store) {
	t.Helper()
	kv := memory.NewStore()
	store := records.NewStore(kv, applog.Discard())
	store.Load(context.Background())
	builder := &core.Builder{
		IDs: core.NewSequenceIDs(100),
		Now: func() time.Time { return time.Date(2025, 12, 17, 8, 0, 0, 0, time.UTC) },
	}
	return NewRecordService(store, builder, pub), kv
}

func TestRecordService_Create(t *testing.T) {
	pub := &fakePublisher{}
	svc, kv := newTestService(t, pub)

	rec, err := svc.Create(context.Background(), core.FormInput{
		Date: "2025-01-01", Township: "နမ့်ဆန်", Household: "2", Male: "3", Female: "4", SmartCard: "1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != 101 || rec.Revenue != 10000 || rec.Population() != 7 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if got := svc.Records(); got[0].ID != rec.ID {
		t.Fatalf("new record should be first, got %d", got[0].ID)
	}
	if _, err := kv.Get(context.Background(), records.Key); err != nil {
		t.Fatalf("collection not persisted: %v", err)
	}

	if len(pub.msgs) != 1 || pub.msgs[0].Op != amqp.OpInsert || pub.msgs[0].ID != rec.ID || pub.msgs[0].Count != 4 {
		t.Fatalf("unexpected messages %+v", pub.msgs)
	}
	if svc.Summary().TotalPop != 99+7 {
		t.Fatalf("summary not recomputed: %d", svc.Summary().TotalPop)
	}
}

func TestRecordService_PublishFailureDoesNotFailCreate(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, pub)

	if _, err := svc.Create(context.Background(), core.FormInput{}); err != nil {
		t.Fatalf("create should succeed when publishing fails: %v", err)
	}
}

func TestRecordService_NilPublisher(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if _, err := svc.Create(context.Background(), core.FormInput{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), 1, Confirmed); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestRecordService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("declined leaves store and blob untouched", func(t *testing.T) {
		pub := &fakePublisher{}
		svc, kv := newTestService(t, pub)

		err := svc.Delete(ctx, 2, Declined)
		if !errors.Is(err, ErrDeleteDeclined) {
			t.Fatalf("expected ErrDeleteDeclined, got %v", err)
		}
		if _, ok := svc.Get(2); !ok {
			t.Fatal("record 2 should still exist")
		}
		if _, err := kv.Get(ctx, records.Key); err == nil {
			t.Fatal("declined delete must not persist")
		}
		if len(pub.msgs) != 0 {
			t.Fatalf("declined delete must not publish, got %d", len(pub.msgs))
		}
	})

	t.Run("nil confirmer declines", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		if err := svc.Delete(ctx, 2, nil); !errors.Is(err, ErrDeleteDeclined) {
			t.Fatalf("expected ErrDeleteDeclined, got %v", err)
		}
	})

	t.Run("confirmed removes and publishes", func(t *testing.T) {
		pub := &fakePublisher{}
		svc, _ := newTestService(t, pub)

		var asked core.Record
		confirm := ConfirmFunc(func(_ context.Context, rec core.Record) bool {
			asked = rec
			return true
		})
		if err := svc.Delete(ctx, 2, confirm); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if asked.ID != 2 {
			t.Fatalf("confirmer saw record %d, want 2", asked.ID)
		}
		if _, ok := svc.Get(2); ok {
			t.Fatal("record 2 should be gone")
		}
		if len(pub.msgs) != 1 || pub.msgs[0].Op != amqp.OpDelete || pub.msgs[0].Count != 2 {
			t.Fatalf("unexpected messages %+v", pub.msgs)
		}
	})

	t.Run("unknown id reports a miss without side effects", func(t *testing.T) {
		pub := &fakePublisher{}
		svc, kv := newTestService(t, pub)
		if err := svc.Delete(ctx, 999, Confirmed); !errors.Is(err, ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound, got %v", err)
		}
		if _, err := kv.Get(ctx, records.Key); err == nil {
			t.Fatal("unknown id must not persist")
		}
		if len(pub.msgs) != 0 || len(svc.Records()) != 3 {
			t.Fatalf("unknown id changed state: msgs=%d records=%d", len(pub.msgs), len(svc.Records()))
		}
	})
}

func TestRecordService_List(t *testing.T) {
	svc, _ := newTestService(t, nil)

	view := svc.List(core.Query{Township: core.AllTownships})
	if view.State != core.ListResults || len(view.Records) != 3 || view.Total != 3 {
		t.Fatalf("unexpected view %+v", view)
	}

	view = svc.List(core.Query{Search: "Yangon"})
	if view.State != core.ListNoMatch || len(view.Records) != 0 {
		t.Fatalf("expected no match, got %+v", view)
	}

	for _, id := range []int64{1, 2, 3} {
		if err := svc.Delete(context.Background(), id, Confirmed); err != nil {
			t.Fatalf("delete %d: %v", id, err)
		}
	}
	if view = svc.List(core.Query{}); view.State != core.ListEmpty {
		t.Fatalf("expected empty state, got %v", view.State)
	}
}
