package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/fastline/internal/snapshot"
)

// BackupRunner takes one backup.
type BackupRunner interface {
	Run(ctx context.Context) (*snapshot.Result, error)
}

// BackupWorker takes periodic backups of the local store.
type BackupWorker struct {
	backup   BackupRunner
	interval time.Duration
}

// NewBackupWorker creates a worker with the given runner and interval.
// A non-positive interval means one day.
func NewBackupWorker(b BackupRunner, interval time.Duration) *BackupWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &BackupWorker{backup: b, interval: interval}
}

// Run starts the worker loop. The first backup is taken after one interval
// so short-lived processes do not write a backup on every start.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup",
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runBackup(ctx)
		}
	}
}

func (w *BackupWorker) runBackup(ctx context.Context) {
	if _, err := w.backup.Run(ctx); err != nil {
		// Graceful shutdown
		if ctx.Err() != nil {
			return
		}
		slog.Warn("backup failed",
			"component", "worker",
			"action", "backup_failed",
			"error", err,
		)
	}
}
