// Package app wires the local store, sync queue, dispatcher and trackers
// into one handle shared by the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperengineering/fastline/internal/config"
	"github.com/hyperengineering/fastline/internal/dispatch"
	"github.com/hyperengineering/fastline/internal/fasting"
	"github.com/hyperengineering/fastline/internal/queue"
	"github.com/hyperengineering/fastline/internal/remote"
	"github.com/hyperengineering/fastline/internal/remote/httpremote"
	"github.com/hyperengineering/fastline/internal/remote/postgres"
	"github.com/hyperengineering/fastline/internal/snapshot"
	"github.com/hyperengineering/fastline/internal/store"
	"github.com/hyperengineering/fastline/internal/tracker"
	"github.com/hyperengineering/fastline/internal/types"
)

// Options customise Open.
type Options struct {
	// PresetHours overrides cfg.Fasting.DefaultTargetHours when positive.
	PresetHours int
	// TargetKG overrides cfg.Weight.TargetKG when positive.
	TargetKG float64
	// HeightCM enables the BMI view of the weight summary when positive.
	HeightCM   float64
	Now        func() time.Time
	OnComplete func(types.FastingLog)

	// Remote and Connectivity replace the configured remote when set.
	Remote       remote.Store
	Connectivity dispatch.Connectivity
	// Store replaces the SQLite store at cfg.Store.Path when set.
	Store store.Store
}

// App is an opened fastline device.
type App struct {
	Config     *config.Config
	Store      store.Store
	Queue      *queue.Queue
	Remote     remote.Store
	Dispatcher *dispatch.Dispatcher
	Fasting    *fasting.Engine
	Water      *tracker.Water
	Weight     *tracker.Weight
	Backup     *snapshot.Backup

	prober  *dispatch.Prober
	closers []func()
}

// Open builds an App from cfg and restores the fasting session.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	st := opts.Store
	if st == nil {
		path, err := config.ExpandPath(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		sqlite, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		st = sqlite
	}
	a.Store = st
	a.closers = append(a.closers, func() { _ = st.Close() })

	rs := opts.Remote
	if rs == nil {
		var closeRemote func()
		var err error
		rs, closeRemote, err = NewRemote(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		if closeRemote != nil {
			a.closers = append(a.closers, closeRemote)
		}
	}
	a.Remote = rs

	conn := opts.Connectivity
	if conn == nil {
		switch {
		case cfg.Sync.Offline, cfg.Remote.Mode == config.RemoteNone:
			conn = dispatch.Static(false)
		default:
			a.prober = dispatch.NewProber(rs, time.Duration(cfg.Sync.ProbeTTL), time.Duration(cfg.Sync.Timeout))
			conn = a.prober
		}
	}

	a.Queue = queue.New(st)
	a.Dispatcher = dispatch.New(rs, a.Queue, conn, time.Duration(cfg.Sync.Timeout))

	preset := opts.PresetHours
	if preset <= 0 {
		preset = cfg.Fasting.DefaultTargetHours
	}
	loc := cfg.Loc()

	a.Fasting = fasting.NewEngine(fasting.Deps{
		Store:              st,
		Queue:              a.Queue,
		Syncer:             a.Dispatcher,
		Now:                opts.Now,
		Location:           loc,
		DefaultTargetHours: preset,
		OnComplete:         opts.OnComplete,
	})
	a.Fasting.Restore(ctx)

	deps := tracker.Deps{Store: st, Queue: a.Queue, Syncer: a.Dispatcher, Now: opts.Now, Location: loc}
	a.Water = tracker.NewWater(deps, cfg.Water.DailyTargetML)
	target := opts.TargetKG
	if target <= 0 {
		target = cfg.Weight.TargetKG
	}
	a.Weight = tracker.NewWeight(deps, target).WithHeight(opts.HeightCM)

	uploader, err := snapshot.NewUploader(cfg.Backup)
	if err != nil {
		a.Close()
		return nil, err
	}
	dir, err := config.ExpandPath(cfg.Backup.Dir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Backup = snapshot.NewBackup(st, uploader, dir, cfg.Backup.DeviceID)

	return a, nil
}

// NewRemote builds the remote store selected by cfg.Remote.Mode. The returned
// closer, if non-nil, releases its connections.
func NewRemote(ctx context.Context, cfg *config.Config) (remote.Store, func(), error) {
	switch cfg.Remote.Mode {
	case config.RemoteGateway:
		c, err := httpremote.New(httpremote.Config{
			BaseURL:    cfg.Remote.URL,
			Token:      cfg.Remote.Token,
			MaxRetries: cfg.Sync.MaxRetries,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case config.RemotePostgres:
		s, err := postgres.Open(ctx, cfg.Remote.DSN, cfg.Remote.UserID)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return remote.Noop{}, nil, nil
	}
}

// Reconnect drops the cached connectivity answer so the next sync probes.
func (a *App) Reconnect() {
	if a.prober != nil {
		a.prober.Invalidate()
	}
}

// SyncNow flushes the queue, probing connectivity afresh.
func (a *App) SyncNow(ctx context.Context) dispatch.Result {
	a.Reconnect()
	return a.Dispatcher.Flush(ctx)
}

// Close waits for in-flight pushes, then releases the remote and the store.
func (a *App) Close() {
	if a.Dispatcher != nil {
		a.Dispatcher.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// QueueSummary describes the sync queue for display.
type QueueSummary struct {
	Entries  int            `json:"entries"`
	Oldest   *time.Time     `json:"oldest,omitempty"`
	Families map[string]int `json:"families"`
	Attempts int            `json:"attempts"`
	Errors   []string       `json:"errors,omitempty"`
}

// QueueStatus summarises pending entries.
func (a *App) QueueStatus(ctx context.Context) QueueSummary {
	entries := a.Queue.PeekAll(ctx)
	s := QueueSummary{Entries: len(entries), Families: map[string]int{}}
	seen := map[string]bool{}
	for i, e := range entries {
		if i == 0 {
			t := e.QueuedAt
			s.Oldest = &t
		}
		for _, f := range types.Families {
			if e.Payload.Has(f) {
				s.Families[string(f)]++
			}
		}
		s.Attempts += e.Attempts
		if e.LastError != "" && !seen[e.LastError] {
			seen[e.LastError] = true
			s.Errors = append(s.Errors, e.LastError)
		}
	}
	return s
}

// NotifyComplete logs a completion. It is the default OnComplete for
// non-interactive commands.
func NotifyComplete(log types.FastingLog) {
	slog.Info("fast target reached",
		"component", "app",
		"id", log.ID,
		"target_hours", log.TargetHours,
	)
}

// IsOffline reports whether err means the remote could not be reached.
func IsOffline(err error) bool {
	return errors.Is(err, dispatch.ErrNetworkUnavailable) || errors.Is(err, remote.ErrNotConfigured)
}
