package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	blob, err := s.Load(context.Background(), PartitionFasting)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if blob != nil {
		t.Errorf("Load on empty store = %q, want nil", blob)
	}
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Save(ctx, PartitionWater, []byte(`[{"id":"a","date":"2026-10-18","ml":250}]`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, PartitionWater, []byte(`[]`)); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	blob, err := s.Load(ctx, PartitionWater)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(blob) != "[]" {
		t.Errorf("Load = %q, want [] (full overwrite)", blob)
	}
}

func TestSQLiteStore_UnknownPartition(t *testing.T) {
	s := newTestStore(t)

	err := s.Save(context.Background(), Partition("settings"), []byte("[]"))
	if !errors.Is(err, ErrUnknownPartition) {
		t.Errorf("Save(unknown) error = %v, want ErrUnknownPartition", err)
	}
}

func TestSQLiteStore_GenericHelpers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	want := []entry{{ID: "a", N: 1}, {ID: "b", N: 2}}
	if err := Set(ctx, s, PartitionWeight, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := Get[entry](ctx, s, PartitionWeight)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestSQLiteStore_CorruptBlobReadsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Save(ctx, PartitionFasting, []byte("{not json")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if got := Get[entry](ctx, s, PartitionFasting); len(got) != 0 {
		t.Errorf("Get on corrupt blob = %+v, want empty", got)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	// Given: data written to a file-backed store
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "fastline.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := Set(ctx, s, PartitionFasting, []entry{{ID: "keep", N: 16}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	s.Close()

	// When: the store is reopened
	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	// Then: the partition is intact
	got := Get[entry](ctx, s, PartitionFasting)
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("Get after reopen = %+v", got)
	}
}

func TestSQLiteStore_Meta(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetMeta(ctx, "fasting.remote_id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetMeta(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.SetMeta(ctx, "fasting.remote_id", "abc"); err != nil {
		t.Fatalf("SetMeta failed: %v", err)
	}
	if err := s.SetMeta(ctx, "fasting.remote_id", "def"); err != nil {
		t.Fatalf("SetMeta replace failed: %v", err)
	}

	got, err := s.GetMeta(ctx, "fasting.remote_id")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if got != "def" {
		t.Errorf("GetMeta = %q, want def", got)
	}
}

func TestSQLiteStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Save(ctx, PartitionWater, []byte("[1,2,3]")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, PartitionFasting, []byte("[]")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Stats returned %d partitions, want 2", len(stats))
	}
	// Ordered by key
	if stats[0].Partition != PartitionFasting || stats[0].Bytes != 2 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	if stats[1].Partition != PartitionWater || stats[1].Bytes != 7 {
		t.Errorf("stats[1] = %+v", stats[1])
	}
	if stats[1].UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestSQLiteStore_Snapshot(t *testing.T) {
	// Given: a store with data
	ctx := context.Background()
	s := newTestStore(t)
	if err := Set(ctx, s, PartitionWeight, []entry{{ID: "w", N: 80}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// When: a snapshot is written twice to the same path
	path := filepath.Join(t.TempDir(), "backups", "snap.db")
	for i := 0; i < 2; i++ {
		if err := s.Snapshot(ctx, path); err != nil {
			t.Fatalf("Snapshot #%d failed: %v", i+1, err)
		}
	}

	// Then: the snapshot is a readable database holding the partition
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer db.Close()

	var blob string
	if err := db.QueryRow(`SELECT blob FROM partitions WHERE key = 'weight'`).Scan(&blob); err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if blob != `[{"id":"w","n":80}]` {
		t.Errorf("snapshot blob = %q", blob)
	}
}
