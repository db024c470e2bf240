// Package queue implements the durable FIFO of sync payloads waiting to be
// written to the remote store. It is persisted as the queue partition of the
// local store and is unbounded.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperengineering/fastline/internal/store"
	"github.com/hyperengineering/fastline/internal/types"
	"github.com/oklog/ulid/v2"
)

// ErrEmptyPayload is returned when enqueuing a payload with no records.
var ErrEmptyPayload = errors.New("empty sync payload")

// Entry is one queued payload plus its delivery bookkeeping.
type Entry struct {
	ID        string            `json:"id"`
	Payload   types.SyncPayload `json:"payload"`
	QueuedAt  time.Time         `json:"queuedAt"`
	Attempts  int               `json:"attempts"`
	LastError string            `json:"lastError,omitempty"`
}

// Queue is the persisted sync queue. Methods are safe for concurrent use
// within one process.
type Queue struct {
	mu    sync.Mutex
	store store.BlobStore
	now   func() time.Time
}

// New creates a Queue backed by the queue partition of s.
func New(s store.BlobStore) *Queue {
	return &Queue{store: s, now: time.Now}
}

// Enqueue appends payload to the tail of the queue.
func (q *Queue) Enqueue(ctx context.Context, payload types.SyncPayload) (Entry, error) {
	if payload.IsEmpty() {
		return Entry{}, ErrEmptyPayload
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entry := Entry{
		ID:       ulid.Make().String(),
		Payload:  payload.Clone(),
		QueuedAt: q.now().UTC(),
	}
	entries := store.Get[Entry](ctx, q.store, store.PartitionQueue)
	entries = append(entries, entry)
	if err := store.Set(ctx, q.store, store.PartitionQueue, entries); err != nil {
		return Entry{}, fmt.Errorf("enqueue: %w", err)
	}
	return entry, nil
}

// PeekAll returns every queued entry, oldest first, without removing any.
func (q *Queue) PeekAll(ctx context.Context) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return store.Get[Entry](ctx, q.store, store.PartitionQueue)
}

// Len returns the number of queued entries.
func (q *Queue) Len(ctx context.Context) int {
	return len(q.PeekAll(ctx))
}

// Clear empties the queue.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := store.Set[Entry](ctx, q.store, store.PartitionQueue, nil); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

// Update applies fn to the current entries and persists the result as one
// step, so entries enqueued while a flush was in flight are not lost.
// fn must not reorder the entries it keeps.
func (q *Queue) Update(ctx context.Context, fn func([]Entry) []Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := fn(store.Get[Entry](ctx, q.store, store.PartitionQueue))
	if err := store.Set(ctx, q.store, store.PartitionQueue, entries); err != nil {
		return fmt.Errorf("update queue: %w", err)
	}
	return nil
}
