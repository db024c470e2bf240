package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Partition names one blob of the local store.
type Partition string

const (
	PartitionFasting Partition = "fasting"
	PartitionWater   Partition = "water"
	PartitionWeight  Partition = "weight"
	PartitionQueue   Partition = "queue"
)

// Partitions lists every partition the store accepts.
var Partitions = []Partition{PartitionFasting, PartitionWater, PartitionWeight, PartitionQueue}

// Valid reports whether p is one of the fixed partitions.
func (p Partition) Valid() bool {
	for _, known := range Partitions {
		if p == known {
			return true
		}
	}
	return false
}

// BlobStore persists one opaque blob per partition.
// Load returns nil, nil for a partition that has never been saved.
type BlobStore interface {
	Load(ctx context.Context, p Partition) ([]byte, error)
	Save(ctx context.Context, p Partition, blob []byte) error
}

// MetaStore persists small string values outside the partitions.
// GetMeta returns ErrNotFound for unknown keys.
type MetaStore interface {
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
}

// Store is everything the application needs from the local database.
type Store interface {
	BlobStore
	MetaStore
	Stats(ctx context.Context) ([]PartitionStats, error)
	Snapshot(ctx context.Context, path string) error
	Close() error
}

// PartitionStats describes one stored partition.
type PartitionStats struct {
	Partition Partition `json:"partition"`
	Bytes     int       `json:"bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get decodes the partition as a sequence of T. It never fails: a missing
// partition yields an empty slice, and unreadable or corrupt data is logged
// and also yields an empty slice.
func Get[T any](ctx context.Context, s BlobStore, p Partition) []T {
	blob, err := s.Load(ctx, p)
	if err != nil {
		slog.Warn("partition read failed, treating as empty",
			"component", "store",
			"partition", string(p),
			"error", err,
		)
		return []T{}
	}
	if len(blob) == 0 {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(blob, &items); err != nil {
		slog.Warn("partition unparsable, treating as empty",
			"component", "store",
			"partition", string(p),
			"error", fmt.Errorf("%w: %v", ErrStorageCorrupt, err),
		)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// Set overwrites the partition with items. A nil slice is stored as [].
func Set[T any](ctx context.Context, s BlobStore, p Partition, items []T) error {
	if items == nil {
		items = []T{}
	}
	blob, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p, err)
	}
	if err := s.Save(ctx, p, blob); err != nil {
		return fmt.Errorf("save %s: %w", p, err)
	}
	return nil
}
