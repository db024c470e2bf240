// Package tracker implements the water and weight accumulators: append-only
// daily measurement logs with derived daily and goal aggregates.
package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/fastline/internal/dispatch"
	"github.com/hyperengineering/fastline/internal/queue"
	"github.com/hyperengineering/fastline/internal/store"
	"github.com/hyperengineering/fastline/internal/types"
)

// Enqueuer appends payloads to the sync queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload types.SyncPayload) (queue.Entry, error)
}

// Syncer starts an opportunistic push.
type Syncer interface {
	Trigger(payload types.SyncPayload, done func(dispatch.Result))
}

// Deps are the collaborators shared by both accumulators.
type Deps struct {
	Store  store.BlobStore
	Queue  Enqueuer
	Syncer Syncer
	// Now defaults to time.Now.
	Now func() time.Time
	// Location decides calendar days. Defaults to time.Local.
	Location *time.Location
}

func (d *Deps) defaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
}

func (d *Deps) today() types.Day {
	return types.DayOf(d.Now(), d.Location)
}

// publish queues payload and triggers a push. Queue failures are logged;
// the local write already succeeded.
func (d *Deps) publish(ctx context.Context, payload types.SyncPayload, family types.Family) {
	if _, err := d.Queue.Enqueue(ctx, payload); err != nil {
		slog.Error("failed to enqueue snapshot",
			"component", "tracker",
			"family", string(family),
			"error", err,
		)
	}
	d.Syncer.Trigger(payload, nil)
}
