package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/fastline/internal/dispatch"
)

// mockFlusher scripts connectivity per probe and counts flushes.
type mockFlusher struct {
	mu      sync.Mutex
	online  []bool
	probes  int
	flushes int
}

func (m *mockFlusher) Online(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.probes
	m.probes++
	if i >= len(m.online) {
		return m.online[len(m.online)-1]
	}
	return m.online[i]
}

func (m *mockFlusher) Flush(ctx context.Context) dispatch.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return dispatch.Result{Outcome: dispatch.OutcomeOK}
}

func (m *mockFlusher) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

type fixedPending int

func (p fixedPending) Len(ctx context.Context) int { return int(p) }

func TestSyncWorker_FlushesOnReconnect(t *testing.T) {
	// Given offline, offline, then online with an empty queue
	f := &mockFlusher{online: []bool{false, false, true, true}}
	w := NewSyncWorker(f, fixedPending(0), time.Hour)
	ctx := context.Background()

	w.tick(ctx)
	w.tick(ctx)
	if f.Flushes() != 0 {
		t.Fatalf("flushed while offline: %d", f.Flushes())
	}

	// When connectivity returns
	w.tick(ctx)

	// Then exactly one flush happens for the transition
	if f.Flushes() != 1 {
		t.Errorf("flushes = %d, want 1", f.Flushes())
	}

	// And staying online with nothing queued does not flush again
	w.tick(ctx)
	if f.Flushes() != 1 {
		t.Errorf("flushes = %d, want 1", f.Flushes())
	}
}

func TestSyncWorker_RetriesPendingWhileOnline(t *testing.T) {
	f := &mockFlusher{online: []bool{true}}
	w := NewSyncWorker(f, fixedPending(2), time.Hour)
	ctx := context.Background()

	w.tick(ctx)
	w.tick(ctx)
	w.tick(ctx)

	if f.Flushes() != 3 {
		t.Errorf("flushes = %d, want 3", f.Flushes())
	}
}

func TestSyncWorker_RunProbesOnStartAndStops(t *testing.T) {
	f := &mockFlusher{online: []bool{true}}
	w := NewSyncWorker(f, fixedPending(0), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	if f.Flushes() != 1 {
		t.Errorf("flushes = %d, want 1 on start", f.Flushes())
	}
}

func TestNewSyncWorker_NonPositiveIntervalUsesDefault(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		w := NewSyncWorker(&mockFlusher{online: []bool{true}}, fixedPending(0), interval)
		if w.interval != DefaultInterval {
			t.Errorf("interval(%s) = %s, want %s", interval, w.interval, DefaultInterval)
		}
	}
}

func TestSyncWorker_RunWithZeroIntervalFlushesOnStart(t *testing.T) {
	// Given a worker built with an unset interval
	f := &mockFlusher{online: []bool{true}}
	w := NewSyncWorker(f, fixedPending(1), 0)

	// When it runs briefly
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	// Then it flushed on start instead of panicking in time.NewTicker
	if f.Flushes() != 1 {
		t.Errorf("flushes = %d, want 1", f.Flushes())
	}
}
