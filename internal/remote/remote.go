// Package remote defines the sync target: the relational store that receives
// idempotent per-family upserts keyed by record id.
package remote

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hyperengineering/fastline/internal/types"
)

var (
	// ErrNotConfigured is returned by writes when no remote backend is set up.
	ErrNotConfigured = errors.New("remote store not configured")
	// ErrNoUser is returned when a write has no user identity to tag records with.
	ErrNoUser = errors.New("no user identity")
	// ErrNotFound is returned by UpdateMood for an unknown fasting id.
	ErrNotFound = errors.New("record not found")
)

// Store is the remote sync target. Every upsert is keyed by the record id, so
// repeating a write is harmless.
type Store interface {
	UpsertFasting(ctx context.Context, logs []types.FastingLog) error
	UpsertWater(ctx context.Context, logs []types.WaterLog) error
	UpsertWeight(ctx context.Context, logs []types.WeightLog) error
	UpdateMood(ctx context.Context, id, mood string) error
	SavePushSubscription(ctx context.Context, sub PushSubscription) error
	Ping(ctx context.Context) error
}

// PushSubscription is an opaque web-push subscription descriptor.
type PushSubscription struct {
	UserID       string          `json:"userId,omitempty"`
	Subscription json.RawMessage `json:"subscription"`
}

// Endpoint extracts the push endpoint from the descriptor, if present.
func (s PushSubscription) Endpoint() string {
	var d struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.Unmarshal(s.Subscription, &d); err != nil {
		return ""
	}
	return d.Endpoint
}

// Upsert writes one family of payload to s.
func Upsert(ctx context.Context, s Store, f types.Family, p types.SyncPayload) error {
	switch f {
	case types.FamilyFasting:
		return s.UpsertFasting(ctx, p.FastingLogs)
	case types.FamilyWater:
		return s.UpsertWater(ctx, p.WaterLogs)
	case types.FamilyWeight:
		return s.UpsertWeight(ctx, p.WeightLogs)
	}
	return types.Invalid("family", "unknown family "+string(f))
}

type userKey struct{}

// WithUserID returns a context carrying the user identity records are tagged with.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserIDFrom returns the user identity stored in ctx.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}
