package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/fastline/internal/fasting"
	"github.com/hyperengineering/fastline/internal/types"
)

// runWatcher follows a.Fasting for d the way the daemon does.
func runWatcher(a *App, d time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	fasting.NewWatcher(a.Fasting, 10*time.Millisecond).Run(ctx, func(fasting.Progress) {})
}

func TestWatcher_AnnouncesFastStartedByAnotherProcess(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	// Given: a daemon opened while no fast is running
	var fired atomic.Int32
	daemon, err := Open(ctx, cfg, Options{OnComplete: func(types.FastingLog) { fired.Add(1) }})
	require.NoError(t, err)
	defer daemon.Close()
	require.Equal(t, types.StatusIdle, daemon.Fasting.Status())

	// When: a CLI process on the same database starts a 16h fast 17h ago
	cli, err := Open(ctx, cfg, Options{Now: func() time.Time { return time.Now().Add(-17 * time.Hour) }})
	require.NoError(t, err)
	_, err = cli.Fasting.Start(ctx, 16)
	require.NoError(t, err)
	cli.Close()

	runWatcher(daemon, 100*time.Millisecond)

	// Then: the daemon adopts it and announces the completion once
	require.Equal(t, types.StatusRunning, daemon.Fasting.Status())
	require.Equal(t, int32(1), fired.Load())
}

func TestWatcher_FollowsFastEndedByAnotherProcess(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	cli, err := Open(ctx, cfg, Options{})
	require.NoError(t, err)
	defer cli.Close()
	_, err = cli.Fasting.Start(ctx, 16)
	require.NoError(t, err)

	// Given: a daemon that restored the running fast
	var fired atomic.Int32
	daemon, err := Open(ctx, cfg, Options{OnComplete: func(types.FastingLog) { fired.Add(1) }})
	require.NoError(t, err)
	defer daemon.Close()
	require.Equal(t, types.StatusRunning, daemon.Fasting.Status())

	// When: the CLI ends it
	_, err = cli.Fasting.End(ctx)
	require.NoError(t, err)
	runWatcher(daemon, 50*time.Millisecond)

	// Then: the daemon no longer treats it as running
	require.Equal(t, types.StatusCompleted, daemon.Fasting.Status())
	require.Equal(t, int32(0), fired.Load())
}
