package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type entry struct {
	ID string `json:"id"`
	N  int    `json:"n"`
}

// memBlobStore is an in-memory BlobStore with injectable failures.
type memBlobStore struct {
	mu      sync.Mutex
	blobs   map[Partition][]byte
	loadErr error
	saveErr error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[Partition][]byte)}
}

func (m *memBlobStore) Load(ctx context.Context, p Partition) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.blobs[p], nil
}

func (m *memBlobStore) Save(ctx context.Context, p Partition, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blobs[p] = blob
	return nil
}

func TestGet_MissingPartitionIsEmpty(t *testing.T) {
	s := newMemBlobStore()

	got := Get[entry](context.Background(), s, PartitionWater)
	if got == nil || len(got) != 0 {
		t.Errorf("Get on missing partition = %#v, want empty non-nil slice", got)
	}
}

func TestGet_CorruptDataIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"truncated json", `[{"id":"a"`},
		{"wrong shape", `{"id":"a"}`},
		{"garbage", "\x00\x01\x02"},
		{"json null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemBlobStore()
			s.blobs[PartitionFasting] = []byte(tt.blob)

			got := Get[entry](context.Background(), s, PartitionFasting)
			if got == nil || len(got) != 0 {
				t.Errorf("Get(%q) = %#v, want empty", tt.blob, got)
			}
		})
	}
}

func TestGet_ReadErrorIsEmpty(t *testing.T) {
	s := newMemBlobStore()
	s.loadErr = errors.New("disk gone")

	if got := Get[entry](context.Background(), s, PartitionWeight); len(got) != 0 {
		t.Errorf("Get with read error = %#v, want empty", got)
	}
}

func TestSet_OverwritesNotMerges(t *testing.T) {
	ctx := context.Background()
	s := newMemBlobStore()

	if err := Set(ctx, s, PartitionWater, []entry{{ID: "a", N: 1}, {ID: "b", N: 2}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := Set(ctx, s, PartitionWater, []entry{{ID: "c", N: 3}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := Get[entry](ctx, s, PartitionWater)
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("Get after overwrite = %#v, want only c", got)
	}
}

func TestSet_Idempotent(t *testing.T) {
	// Given: the same sequence written twice
	ctx := context.Background()
	s := newMemBlobStore()
	x := []entry{{ID: "a", N: 1}, {ID: "b", N: 2}}

	// When
	for i := 0; i < 2; i++ {
		if err := Set(ctx, s, PartitionWeight, x); err != nil {
			t.Fatalf("Set #%d failed: %v", i+1, err)
		}
	}

	// Then: reading it back yields exactly X, order preserved
	got := Get[entry](ctx, s, PartitionWeight)
	if len(got) != len(x) {
		t.Fatalf("Get returned %d items, want %d", len(got), len(x))
	}
	for i := range x {
		if got[i] != x[i] {
			t.Errorf("item %d = %+v, want %+v", i, got[i], x[i])
		}
	}
}

func TestSet_NilStoresEmptyArray(t *testing.T) {
	ctx := context.Background()
	s := newMemBlobStore()

	if err := Set[entry](ctx, s, PartitionQueue, nil); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if string(s.blobs[PartitionQueue]) != "[]" {
		t.Errorf("stored blob = %q, want []", s.blobs[PartitionQueue])
	}
}

func TestSet_PropagatesSaveError(t *testing.T) {
	s := newMemBlobStore()
	s.saveErr = errors.New("read-only filesystem")

	err := Set(context.Background(), s, PartitionFasting, []entry{{ID: "a"}})
	if !errors.Is(err, s.saveErr) {
		t.Errorf("Set error = %v, want wrapped save error", err)
	}
}

func TestPartition_Valid(t *testing.T) {
	for _, p := range Partitions {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}
	if Partition("settings").Valid() {
		t.Error("unknown partition should not be valid")
	}
}
