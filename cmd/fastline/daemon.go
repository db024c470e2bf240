package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
	"github.com/hyperengineering/fastline/internal/fasting"
	"github.com/hyperengineering/fastline/internal/worker"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run background sync, backups and the completion watcher",
	Long:  "Keep the device in sync: drain the queue when connectivity returns, take periodic backups, and announce when a running fast reaches its target.",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.Config

	var wg sync.WaitGroup

	startWorker(ctx, &wg, "sync",
		worker.NewSyncWorker(a.Dispatcher, a.Queue, time.Duration(cfg.Sync.ProbeInterval)).Run)

	if interval := time.Duration(cfg.Backup.Interval); interval > 0 {
		startWorker(ctx, &wg, "backup", worker.NewBackupWorker(a.Backup, interval).Run)
	}

	ticker := fasting.NewWatcher(a.Fasting, time.Duration(cfg.Fasting.TickInterval))
	startWorker(ctx, &wg, "fasting", func(ctx context.Context) {
		ticker.Run(ctx, func(fasting.Progress) {})
	})

	slog.Info("daemon running", "pending", a.Queue.Len(ctx))

	<-ctx.Done()
	slog.Info("shutdown initiated")
	wg.Wait()
	slog.Info("shutdown complete")
	return nil
}
