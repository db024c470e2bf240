package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/fastline/internal/dispatch"
)

// Flusher is the dispatcher surface the sync worker drives.
type Flusher interface {
	Online(ctx context.Context) bool
	Flush(ctx context.Context) dispatch.Result
}

// Pending reports the sync queue length.
type Pending interface {
	Len(ctx context.Context) int
}

// SyncWorker drains the sync queue when connectivity returns.
type SyncWorker struct {
	flusher  Flusher
	queue    Pending
	interval time.Duration
	online   bool
}

// DefaultInterval is used when NewSyncWorker is given a non-positive
// interval.
const DefaultInterval = 30 * time.Second

// NewSyncWorker creates a worker probing every interval.
func NewSyncWorker(f Flusher, q Pending, interval time.Duration) *SyncWorker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &SyncWorker{flusher: f, queue: q, interval: interval}
}

// Run starts the worker loop. Probes immediately on start, as a foreground
// resume would, then on each interval. Respects context cancellation.
func (w *SyncWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "sync",
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "sync",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick flushes on an offline→online transition, or whenever online with
// entries still queued from an earlier partial failure.
func (w *SyncWorker) tick(ctx context.Context) {
	online := w.flusher.Online(ctx)
	reconnected := online && !w.online
	w.online = online
	if !online {
		return
	}

	pending := w.queue.Len(ctx)
	if !reconnected && pending == 0 {
		return
	}

	res := w.flusher.Flush(ctx)
	if ctx.Err() != nil {
		return
	}
	slog.Info("background flush",
		"component", "worker",
		"action", "sync_flush",
		"reconnected", reconnected,
		"outcome", res.Outcome,
		"pending", res.Pending,
	)
}
