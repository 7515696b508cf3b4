package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"quiz-battle/internal/domain"
)

func TestSnapshotStoreUsesSingleKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSnapshotStore(newClient(mr), "")

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := store.Save(ctx, []byte(`{"version":2}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists(DefaultSnapshotKey) {
		t.Fatalf("expected redis key %s to be set", DefaultSnapshotKey)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"version":2}` {
		t.Fatalf("unexpected snapshot %s", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists(DefaultSnapshotKey) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSnapshotStoreReportsConnectionErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	store := NewSnapshotStore(newClient(mr), "custom")
	mr.Close()

	_, err = store.Load(context.Background())
	if err == nil || errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected connection error, got %v", err)
	}
}
