package fasting

import (
	"context"
	"log/slog"
	"time"
)

// Ticker drives the cooperative refresh of a session view. Each tick
// recomputes progress from the wall clock, so a suspended process catches up
// on resume.
type Ticker struct {
	engine   *Engine
	interval time.Duration
	now      func() time.Time
	// reload re-reads the persisted session before every tick.
	reload bool
}

// NewTicker creates a Ticker for e. A non-positive interval means one second.
func NewTicker(e *Engine, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{engine: e, interval: interval, now: e.deps.Now}
}

// NewWatcher creates a Ticker that follows sessions started or ended by
// other processes sharing the engine's store. Use it for long-running
// watchers; an interactive view owns its session and needs NewTicker only.
func NewWatcher(e *Engine, interval time.Duration) *Ticker {
	t := NewTicker(e, interval)
	t.reload = true
	return t
}

// Run delivers progress to fn immediately and then on every tick.
// Blocks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context, fn func(Progress)) {
	slog.Debug("ticker started",
		"component", "fasting",
		"interval", t.interval.String(),
		"reload", t.reload,
	)

	t.tick(ctx, fn)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("ticker stopped",
				"component", "fasting",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			t.tick(ctx, fn)
		}
	}
}

func (t *Ticker) tick(ctx context.Context, fn func(Progress)) {
	if t.reload {
		t.engine.Reload(ctx)
	}
	fn(t.engine.Tick(t.now()))
}
