package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/fastline/internal/api"
	"github.com/hyperengineering/fastline/internal/config"
	"github.com/hyperengineering/fastline/internal/dispatch"
	"github.com/hyperengineering/fastline/internal/remote"
	"github.com/hyperengineering/fastline/internal/types"
)

// gatewayBackend is the store behind a test gateway, keyed by record id.
type gatewayBackend struct {
	mu     sync.Mutex
	fasts  map[string]types.FastingLog
	water  map[string]types.WaterLog
	weight map[string]types.WeightLog
	users  map[string]string
}

func newGatewayBackend() *gatewayBackend {
	return &gatewayBackend{
		fasts:  map[string]types.FastingLog{},
		water:  map[string]types.WaterLog{},
		weight: map[string]types.WeightLog{},
		users:  map[string]string{},
	}
}

func (b *gatewayBackend) UpsertFasting(ctx context.Context, logs []types.FastingLog) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	user, _ := remote.UserIDFrom(ctx)
	for _, l := range logs {
		if prev, ok := b.fasts[l.ID]; ok && l.Mood == "" {
			l.Mood = prev.Mood
		}
		b.fasts[l.ID] = l
		b.users[l.ID] = user
	}
	return nil
}

func (b *gatewayBackend) UpsertWater(ctx context.Context, logs []types.WaterLog) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range logs {
		b.water[l.ID] = l
	}
	return nil
}

func (b *gatewayBackend) UpsertWeight(ctx context.Context, logs []types.WeightLog) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range logs {
		b.weight[l.ID] = l
	}
	return nil
}

func (b *gatewayBackend) UpdateMood(ctx context.Context, id, mood string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.fasts[id]
	if !ok {
		return remote.ErrNotFound
	}
	l.Mood = mood
	b.fasts[id] = l
	return nil
}

func (b *gatewayBackend) SavePushSubscription(ctx context.Context, sub remote.PushSubscription) error {
	return nil
}

func (b *gatewayBackend) Ping(ctx context.Context) error { return nil }

func (b *gatewayBackend) fast(id string) (types.FastingLog, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.fasts[id]
	return l, b.users[id], ok
}

func (b *gatewayBackend) waterCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.water)
}

// startGateway serves the sync API in front of backend. While down is set
// every request fails with 503.
func startGateway(t *testing.T, backend remote.Store) (*httptest.Server, *atomic.Bool) {
	t.Helper()
	h := api.NewHandler(backend, nil, "test")
	router := api.NewRouter(h, api.AuthConfig{APIKey: "device-key", APIKeyUser: "device-user"})

	down := &atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, down
}

func gatewayConfig(t *testing.T, url string) *config.Config {
	t.Helper()
	cfg := testConfig(t)
	cfg.Remote.Mode = config.RemoteGateway
	cfg.Remote.URL = url
	cfg.Remote.Token = "device-key"
	cfg.Sync.MaxRetries = 0
	return cfg
}

func TestGateway_FastLifecycleReachesBackend(t *testing.T) {
	ctx := context.Background()
	backend := newGatewayBackend()
	srv, _ := startGateway(t, backend)

	a, err := Open(ctx, gatewayConfig(t, srv.URL), Options{})
	require.NoError(t, err)
	defer a.Close()

	started, err := a.Fasting.Start(ctx, 16)
	require.NoError(t, err)
	_, err = a.Fasting.End(ctx)
	require.NoError(t, err)
	a.Dispatcher.Wait()

	// The completed record is known remotely, so the mood goes by id
	require.True(t, a.Fasting.RemoteKnown())
	_, err = a.Fasting.AnnotateMood(ctx, "good")
	require.NoError(t, err)
	a.Dispatcher.Wait()

	got, user, ok := backend.fast(started.ID)
	require.True(t, ok)
	require.Equal(t, types.StatusCompleted, got.Status)
	require.Equal(t, "good", got.Mood)
	require.Equal(t, "device-user", user)
	require.Equal(t, 0, a.Queue.Len(ctx))
}

func TestGateway_OfflineWritesDrainOnReconnect(t *testing.T) {
	ctx := context.Background()
	backend := newGatewayBackend()
	srv, down := startGateway(t, backend)
	down.Store(true)

	a, err := Open(ctx, gatewayConfig(t, srv.URL), Options{})
	require.NoError(t, err)
	defer a.Close()

	// Given: two writes while the gateway is unreachable
	_, err = a.Water.Add(ctx, 250)
	require.NoError(t, err)
	_, err = a.Water.Add(ctx, 500)
	require.NoError(t, err)
	a.Dispatcher.Wait()

	require.Equal(t, 2, a.Queue.Len(ctx))
	require.Equal(t, 0, backend.waterCount())

	// When: the gateway comes back and the device syncs
	down.Store(false)
	res := a.SyncNow(ctx)

	// Then: both records arrive and the queue is empty
	require.Equal(t, dispatch.OutcomeOK, res.Outcome)
	require.Equal(t, 0, res.Pending)
	require.Equal(t, 2, backend.waterCount())
}
