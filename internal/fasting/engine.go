// Package fasting implements the fasting session state machine:
// idle -> running -> completed -> idle, with derived progress and a
// once-per-crossing completion callback.
package fasting

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperengineering/fastline/internal/dispatch"
	"github.com/hyperengineering/fastline/internal/queue"
	"github.com/hyperengineering/fastline/internal/store"
	"github.com/hyperengineering/fastline/internal/types"
)

// DefaultTargetHours is the preset used when none is configured.
const DefaultTargetHours = 16

const (
	metaRemoteID     = "fasting.remote_id"
	metaAcknowledged = "fasting.acknowledged"
)

// Store is the local persistence the engine needs.
type Store interface {
	store.BlobStore
	store.MetaStore
}

// Enqueuer appends payloads to the sync queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload types.SyncPayload) (queue.Entry, error)
}

// Syncer delivers payloads to the remote store.
type Syncer interface {
	// Trigger starts an asynchronous push of payload. done, if non-nil,
	// receives the result once the push finishes.
	Trigger(payload types.SyncPayload, done func(dispatch.Result))
	UpdateMood(ctx context.Context, id, mood string) error
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Store  Store
	Queue  Enqueuer
	Syncer Syncer
	// Now defaults to time.Now.
	Now func() time.Time
	// Location is used for day boundaries in history stats. Defaults to time.Local.
	Location *time.Location
	// DefaultTargetHours is the preset restored on acknowledgement.
	DefaultTargetHours int
	// OnComplete fires once when a running fast reaches its target.
	OnComplete func(types.FastingLog)
}

// Engine owns the single active fasting session of one device.
// Methods are safe for concurrent use.
type Engine struct {
	deps Deps

	mu              sync.Mutex
	status          types.FastingStatus
	current         types.FastingLog
	targetHours     int
	preset          int
	completionFired bool
	remoteID        string
}

// NewEngine creates an idle Engine. Call Restore to adopt persisted state.
func NewEngine(deps Deps) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.DefaultTargetHours <= 0 {
		deps.DefaultTargetHours = DefaultTargetHours
	}
	return &Engine{
		deps:        deps,
		status:      types.StatusIdle,
		targetHours: deps.DefaultTargetHours,
		preset:      deps.DefaultTargetHours,
	}
}

// Restore adopts the persisted running fast, if any. A completed fast that
// was never acknowledged is restored as completed so it can still be
// annotated. A fast already past its target does not re-fire OnComplete.
func (e *Engine) Restore(ctx context.Context) types.FastingStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.adoptLocked(ctx)
	if e.status == types.StatusRunning {
		slog.Info("restored running fast",
			"component", "fasting",
			"action", "restore",
			"id", e.current.ID,
			"target_hours", e.current.TargetHours,
		)
	}
	return e.status
}

// Reload re-reads the persisted session so an engine that outlives other
// writers of the same store follows their starts and ends. Unlike Restore,
// a running fast first seen here fires OnComplete once it crosses its
// target, even if it already has; the same fast never fires twice.
func (e *Engine) Reload(ctx context.Context) types.FastingStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	prevID, prevStatus, prevFired := e.current.ID, e.status, e.completionFired
	e.adoptLocked(ctx)

	if e.status == types.StatusRunning {
		if e.current.ID == prevID && prevStatus == types.StatusRunning {
			e.completionFired = prevFired
		} else {
			e.completionFired = false
			slog.Info("picked up running fast",
				"component", "fasting",
				"action", "reload",
				"id", e.current.ID,
				"target_hours", e.current.TargetHours,
			)
		}
	}
	return e.status
}

// adoptLocked replaces the in-memory session with the persisted one.
// A running fast counts as announced when it is already past its target.
func (e *Engine) adoptLocked(ctx context.Context) {
	logs := store.Get[types.FastingLog](ctx, e.deps.Store, store.PartitionFasting)
	e.remoteID = e.meta(ctx, metaRemoteID)
	acknowledged := e.meta(ctx, metaAcknowledged)

	e.status = types.StatusIdle
	e.current = types.FastingLog{}
	e.targetHours = e.preset

	for _, l := range logs {
		if l.Status == types.StatusRunning {
			e.status = types.StatusRunning
			e.current = l
			e.targetHours = l.TargetHours
			p := ComputeProgress(l.Status, l.Start, l.TargetHours, e.deps.Now())
			e.completionFired = p.Percent >= 100
			return
		}
	}

	if len(logs) > 0 && logs[0].Status == types.StatusCompleted && logs[0].ID != acknowledged {
		e.status = types.StatusCompleted
		e.current = logs[0]
		e.targetHours = logs[0].TargetHours
		e.completionFired = true
	}
}

// Start begins a new fast of targetHours.
func (e *Engine) Start(ctx context.Context, targetHours int) (types.FastingLog, error) {
	e.mu.Lock()
	if e.status == types.StatusRunning {
		e.mu.Unlock()
		return types.FastingLog{}, ErrSessionAlreadyActive
	}

	now := e.deps.Now().UTC()
	log, err := types.NewFastingLog(types.NewID(), now, targetHours)
	if err != nil {
		e.mu.Unlock()
		return types.FastingLog{}, err
	}

	logs := store.Get[types.FastingLog](ctx, e.deps.Store, store.PartitionFasting)
	for i := range logs {
		if logs[i].Status != types.StatusRunning {
			continue
		}
		// Only one running record may exist; an orphan is abandoned.
		end := now
		logs[i].Status = types.StatusIdle
		logs[i].End = &end
		slog.Warn("abandoned stale running fast",
			"component", "fasting",
			"action", "start",
			"id", logs[i].ID,
		)
	}
	logs = append([]types.FastingLog{log}, logs...)

	e.status = types.StatusRunning
	e.current = log
	e.targetHours = targetHours
	e.completionFired = false
	payload := e.persist(ctx, logs, "start")
	e.mu.Unlock()

	slog.Info("fast started",
		"component", "fasting",
		"action", "start",
		"id", log.ID,
		"target_hours", targetHours,
	)
	e.deps.Syncer.Trigger(payload, nil)
	return log, nil
}

// End completes the running fast. The completed record is persisted and
// queued, and an immediate remote write is attempted independently.
func (e *Engine) End(ctx context.Context) (types.FastingLog, error) {
	e.mu.Lock()
	if e.status != types.StatusRunning || e.current.Start.IsZero() {
		e.mu.Unlock()
		return types.FastingLog{}, ErrNoActiveSession
	}

	end := e.deps.Now().UTC()
	log := e.current
	log.End = &end
	log.Status = types.StatusCompleted

	logs := upsertLog(store.Get[types.FastingLog](ctx, e.deps.Store, store.PartitionFasting), log)

	e.status = types.StatusCompleted
	e.current = log
	payload := e.persist(ctx, logs, "end")
	e.mu.Unlock()

	slog.Info("fast ended",
		"component", "fasting",
		"action", "end",
		"id", log.ID,
		"duration", FormatHMS(log.Duration().Milliseconds()),
	)

	id := log.ID
	e.deps.Syncer.Trigger(payload, func(r dispatch.Result) {
		if r.Succeeded(types.FamilyFasting) {
			e.markRemote(id)
		}
	})
	return log, nil
}

// AnnotateMood attaches mood to the completed fast. When the record is known
// remotely the mood is written by id; otherwise, or if that write fails, a
// fasting snapshot carrying the mood is queued.
func (e *Engine) AnnotateMood(ctx context.Context, mood string) (types.FastingLog, error) {
	if err := types.ValidateMood(mood); err != nil {
		return types.FastingLog{}, err
	}

	e.mu.Lock()
	if e.status != types.StatusCompleted {
		e.mu.Unlock()
		return types.FastingLog{}, ErrNoCompletedSession
	}

	log := e.current
	log.Mood = mood
	e.current = log

	logs := upsertLog(store.Get[types.FastingLog](ctx, e.deps.Store, store.PartitionFasting), log)
	if err := store.Set(ctx, e.deps.Store, store.PartitionFasting, logs); err != nil {
		slog.Error("failed to persist fasting logs",
			"component", "fasting",
			"action", "mood",
			"error", err,
		)
	}
	remoteKnown := e.remoteID == log.ID
	e.mu.Unlock()

	if remoteKnown {
		err := e.deps.Syncer.UpdateMood(ctx, log.ID, mood)
		if err == nil {
			return log, nil
		}
		slog.Warn("mood update failed, queueing snapshot",
			"component", "fasting",
			"action", "mood",
			"id", log.ID,
			"error", err,
		)
	}

	payload := types.SyncPayload{FastingLogs: logs}
	e.enqueue(ctx, payload, "mood")
	e.deps.Syncer.Trigger(payload, nil)
	return log, nil
}

// Acknowledge collapses a completed fast back to idle and resets the target
// to the preset. It is a no-op in any other state.
func (e *Engine) Acknowledge(ctx context.Context) {
	e.mu.Lock()
	if e.status != types.StatusCompleted {
		e.mu.Unlock()
		return
	}
	id := e.current.ID
	e.status = types.StatusIdle
	e.current = types.FastingLog{}
	e.targetHours = e.preset
	e.completionFired = false
	e.mu.Unlock()

	if err := e.deps.Store.SetMeta(ctx, metaAcknowledged, id); err != nil {
		slog.Warn("failed to record acknowledgement",
			"component", "fasting",
			"action", "acknowledge",
			"error", err,
		)
	}
}

// SetTarget changes the preset. The displayed target follows it while idle.
func (e *Engine) SetTarget(hours int) error {
	if hours < types.MinTargetHours || hours > types.MaxTargetHours {
		return types.Invalid("targetHours", "must be between 1 and 72")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == types.StatusRunning {
		return ErrSessionAlreadyActive
	}
	e.preset = hours
	if e.status == types.StatusIdle {
		e.targetHours = hours
	}
	return nil
}

// Progress derives the session view at now without side effects.
func (e *Engine) Progress(now time.Time) Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked(now)
}

func (e *Engine) progressLocked(now time.Time) Progress {
	switch e.status {
	case types.StatusRunning:
		return ComputeProgress(e.status, e.current.Start, e.current.TargetHours, now)
	case types.StatusCompleted:
		end := now
		if e.current.End != nil {
			end = *e.current.End
		}
		return ComputeProgress(e.status, e.current.Start, e.current.TargetHours, end)
	}
	return ComputeProgress(types.StatusIdle, time.Time{}, e.targetHours, now)
}

// Tick recomputes progress from the wall clock and fires OnComplete the
// first time a running fast reaches 100%. It never touches storage.
func (e *Engine) Tick(now time.Time) Progress {
	e.mu.Lock()
	p := e.progressLocked(now)
	fire := e.status == types.StatusRunning && p.Percent >= 100 && !e.completionFired
	if fire {
		e.completionFired = true
	}
	log := e.current
	e.mu.Unlock()

	if fire && e.deps.OnComplete != nil {
		e.deps.OnComplete(log)
	}
	return p
}

// Status returns the current state.
func (e *Engine) Status() types.FastingStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Current returns the running or completed session.
func (e *Engine) Current() (types.FastingLog, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == types.StatusIdle {
		return types.FastingLog{}, false
	}
	return e.current, true
}

// TargetHours returns the target of the current session, or the preset while idle.
func (e *Engine) TargetHours() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.targetHours
}

// EndsAt returns the planned end of the current session.
func (e *Engine) EndsAt() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == types.StatusIdle {
		return time.Time{}, false
	}
	return e.current.Start.Add(time.Duration(e.current.TargetHours) * time.Hour), true
}

// RemoteKnown reports whether the current session has been written remotely.
func (e *Engine) RemoteKnown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status != types.StatusIdle && e.remoteID == e.current.ID
}

// persist saves logs and queues them. Failures are logged, never returned:
// the in-memory transition has already happened. Caller holds e.mu.
func (e *Engine) persist(ctx context.Context, logs []types.FastingLog, action string) types.SyncPayload {
	if err := store.Set(ctx, e.deps.Store, store.PartitionFasting, logs); err != nil {
		slog.Error("failed to persist fasting logs",
			"component", "fasting",
			"action", action,
			"error", err,
		)
	}
	payload := types.SyncPayload{FastingLogs: logs}
	e.enqueue(ctx, payload, action)
	return payload
}

func (e *Engine) enqueue(ctx context.Context, payload types.SyncPayload, action string) {
	if _, err := e.deps.Queue.Enqueue(ctx, payload); err != nil {
		slog.Error("failed to enqueue fasting snapshot",
			"component", "fasting",
			"action", action,
			"error", err,
		)
	}
}

func (e *Engine) markRemote(id string) {
	e.mu.Lock()
	e.remoteID = id
	e.mu.Unlock()

	if err := e.deps.Store.SetMeta(context.Background(), metaRemoteID, id); err != nil {
		slog.Warn("failed to record remote id",
			"component", "fasting",
			"id", id,
			"error", err,
		)
	}
}

func (e *Engine) meta(ctx context.Context, key string) string {
	v, err := e.deps.Store.GetMeta(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("failed to read fasting meta",
			"component", "fasting",
			"key", key,
			"error", err,
		)
	}
	return v
}

// upsertLog replaces the record with log's id, or prepends log if absent.
func upsertLog(logs []types.FastingLog, log types.FastingLog) []types.FastingLog {
	for i := range logs {
		if logs[i].ID == log.ID {
			logs[i] = log
			return logs
		}
	}
	return append([]types.FastingLog{log}, logs...)
}
