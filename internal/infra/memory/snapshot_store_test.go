package memory

import (
	"context"
	"errors"
	"testing"

	"quiz-battle/internal/domain"
)

func TestSnapshotStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found on empty store, got %v", err)
	}

	data := []byte(`{"version":2}`)
	if err := store.Save(ctx, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	data[0] = 'x'

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"version":2}` {
		t.Fatalf("expected saved copy, got %s", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}
}
