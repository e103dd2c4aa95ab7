package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"immistat/internal/storage"
)

type fakeCollection struct {
	t          *testing.T
	docs       map[string]document
	upserts    int
	replaceErr error
}

func (f *fakeCollection) keyOf(filter interface{}) string {
	f.t.Helper()
	m, ok := filter.(bson.M)
	if !ok {
		f.t.Fatalf("unexpected filter %T", filter)
	}
	key, _ := m["_id"].(string)
	return key
}

func (f *fakeCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	doc, ok := f.docs[f.keyOf(filter)]
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (f *fakeCollection) ReplaceOne(_ context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	merged := options.MergeReplaceOptions(opts...)
	if merged.Upsert == nil || !*merged.Upsert {
		f.t.Fatal("Put must upsert")
	}
	doc, ok := replacement.(document)
	if !ok {
		f.t.Fatalf("unexpected replacement %T", replacement)
	}
	if doc.Key != f.keyOf(filter) {
		f.t.Fatalf("document key %q does not match filter", doc.Key)
	}
	f.upserts++
	f.docs[doc.Key] = doc
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func newTestStore(t *testing.T) (*Store, *fakeCollection) {
	fake := &fakeCollection{t: t, docs: map[string]document{}}
	return &Store{coll: fake}, fake
}

func TestStoreGetPut(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)

	if _, err := s.Get(ctx, "immistat:records"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, "immistat:records", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "immistat:records", []byte(`[]`)); err != nil {
		t.Fatalf("second put: %v", err)
	}
	if fake.upserts != 2 || len(fake.docs) != 1 {
		t.Fatalf("upserts = %d docs = %d", fake.upserts, len(fake.docs))
	}
	if fake.docs["immistat:records"].UpdatedAt.IsZero() {
		t.Fatal("updated_at not set")
	}

	got, err := s.Get(ctx, "immistat:records")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("got %q, want latest value", got)
	}
}

func TestStorePutError(t *testing.T) {
	s, fake := newTestStore(t)
	fake.replaceErr = errors.New("not primary")

	err := s.Put(context.Background(), "k", []byte("v"))
	if err == nil || !errors.Is(err, fake.replaceErr) {
		t.Fatalf("expected wrapped replace error, got %v", err)
	}
}
