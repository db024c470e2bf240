package remote

import (
	"context"
	"log/slog"

	"github.com/hyperengineering/fastline/internal/types"
)

// Noop is the Store used when no backend is configured. Writes fail with
// ErrNotConfigured so they stay queued; push subscriptions are logged and
// accepted.
type Noop struct{}

var _ Store = Noop{}

func (Noop) UpsertFasting(ctx context.Context, logs []types.FastingLog) error {
	return ErrNotConfigured
}

func (Noop) UpsertWater(ctx context.Context, logs []types.WaterLog) error {
	return ErrNotConfigured
}

func (Noop) UpsertWeight(ctx context.Context, logs []types.WeightLog) error {
	return ErrNotConfigured
}

func (Noop) UpdateMood(ctx context.Context, id, mood string) error {
	return ErrNotConfigured
}

// SavePushSubscription logs the subscription and succeeds.
func (Noop) SavePushSubscription(ctx context.Context, sub PushSubscription) error {
	slog.Info("push subscription received without backend",
		"component", "remote",
		"action", "push_subscribe",
		"user_id", sub.UserID,
		"endpoint", sub.Endpoint(),
	)
	return nil
}

func (Noop) Ping(ctx context.Context) error {
	return ErrNotConfigured
}
