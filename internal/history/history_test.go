package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndStats(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Record(ctx, "syncthing_list_folders", "default", false, 10*time.Millisecond); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := s.Record(ctx, "syncthing_restart", "nas", true, 50*time.Millisecond); err != nil {
		t.Fatalf("record: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats = %v", stats)
	}
	// Ordered by call count, most frequent first.
	if stats[0].Tool != "syncthing_list_folders" || stats[0].Calls != 3 || stats[0].Errors != 0 {
		t.Fatalf("stats[0] = %+v", stats[0])
	}
	if stats[1].Tool != "syncthing_restart" || stats[1].Calls != 1 || stats[1].Errors != 1 {
		t.Fatalf("stats[1] = %+v", stats[1])
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, "syncthing_connections", "default", false, time.Millisecond); err != nil {
		t.Fatalf("record: %v", err)
	}

	// A negative retention places the cutoff in the future, so every row
	// is older than it.
	deleted, err := s.Prune(ctx, -time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("stats after prune = %v", stats)
	}
}

func TestPrune_KeepsRecentRows(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, "syncthing_connections", "default", false, time.Millisecond); err != nil {
		t.Fatalf("record: %v", err)
	}

	deleted, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted = %d, want 0", deleted)
	}
}

func TestNilStoreIsNoOp(t *testing.T) {
	t.Parallel()

	var s *Store
	ctx := context.Background()

	if err := s.Record(ctx, "x", "", false, 0); err != nil {
		t.Fatalf("record on nil store: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil || stats != nil {
		t.Fatalf("stats on nil store = %v, %v", stats, err)
	}
	if _, err := s.Prune(ctx, time.Hour); err != nil {
		t.Fatalf("prune on nil store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close on nil store: %v", err)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
