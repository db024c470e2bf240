package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingPinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *countingPinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func TestStatic(t *testing.T) {
	assert.True(t, Static(true).Online(context.Background()))
	assert.False(t, Static(false).Online(context.Background()))
}

func TestProber_CachesWithinTTL(t *testing.T) {
	pinger := &countingPinger{}
	p := NewProber(pinger, time.Minute, time.Second)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	assert.True(t, p.Online(context.Background()))
	assert.True(t, p.Online(context.Background()))
	assert.Equal(t, 1, pinger.calls)

	// After the TTL the remote is probed again
	now = now.Add(2 * time.Minute)
	pinger.err = errors.New("unreachable")
	assert.False(t, p.Online(context.Background()))
	assert.Equal(t, 2, pinger.calls)
}

func TestProber_Invalidate(t *testing.T) {
	pinger := &countingPinger{}
	p := NewProber(pinger, time.Hour, time.Second)

	p.Online(context.Background())
	p.Invalidate()
	p.Online(context.Background())

	assert.Equal(t, 2, pinger.calls)
}
