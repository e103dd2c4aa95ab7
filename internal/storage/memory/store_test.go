package memory

import (
	"context"
	"errors"
	"testing"

	"immistat/internal/storage"
)

func TestStoreGetPut(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	value := []byte(`[1,2]`)
	if err := s.Put(ctx, "k", value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[1,2]` {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}

	got[0] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != `[1,2]` {
		t.Fatalf("returned value aliased store: %q", again)
	}

	if err := s.Put(ctx, "k", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ := s.Get(ctx, "k"); string(got) != `[]` {
		t.Fatalf("overwrite not applied: %q", got)
	}
}
