// Package dispatch flushes the sync queue to the remote store: one upsert
// per log family, each attempted independently and bounded by a timeout.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperengineering/fastline/internal/queue"
	"github.com/hyperengineering/fastline/internal/remote"
	"github.com/hyperengineering/fastline/internal/types"
)

// DefaultTimeout bounds one flush so a hung request cannot stall later triggers.
const DefaultTimeout = 10 * time.Second

// Queue is the subset of the sync queue the dispatcher drains.
type Queue interface {
	PeekAll(ctx context.Context) []queue.Entry
	Update(ctx context.Context, fn func([]queue.Entry) []queue.Entry) error
}

// Dispatcher decides when and how queued payloads reach the remote store.
type Dispatcher struct {
	remote  remote.Store
	queue   Queue
	conn    Connectivity
	timeout time.Duration

	// flushMu serialises flushes so two triggers never write the same
	// entries concurrently.
	flushMu sync.Mutex
	wg      sync.WaitGroup

	// seq orders pushes by call time. flushedSeq, guarded by flushMu, holds
	// per family the newest push that carried it; an older push arriving
	// later must not overwrite that family with its older state.
	seq        atomic.Uint64
	flushedSeq map[types.Family]uint64
}

// New creates a Dispatcher. A non-positive timeout means DefaultTimeout.
func New(r remote.Store, q Queue, conn Connectivity, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		remote:     r,
		queue:      q,
		conn:       conn,
		timeout:    timeout,
		flushedSeq: make(map[types.Family]uint64),
	}
}

// Flush drains the whole queue.
func (d *Dispatcher) Flush(ctx context.Context) Result {
	return d.flush(ctx, nil, 0)
}

// Push writes payload immediately, together with everything already queued.
// It succeeds for payload's families even if payload never made it into the
// queue.
func (d *Dispatcher) Push(ctx context.Context, payload types.SyncPayload) Result {
	return d.flush(ctx, &payload, d.seq.Add(1))
}

// Trigger runs Push in the background. done, if non-nil, receives the result.
// Use Wait to drain outstanding triggers before exit.
func (d *Dispatcher) Trigger(payload types.SyncPayload, done func(Result)) {
	seq := d.seq.Add(1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		r := d.flush(context.Background(), &payload, seq)
		if done != nil {
			done(r)
		}
	}()
}

// Wait blocks until every triggered push has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Online reports current connectivity.
func (d *Dispatcher) Online(ctx context.Context) bool {
	return d.conn.Online(ctx)
}

// UpdateMood writes a mood tag for a fasting record already known remotely.
func (d *Dispatcher) UpdateMood(ctx context.Context, id, mood string) error {
	if !d.conn.Online(ctx) {
		return ErrNetworkUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.remote.UpdateMood(ctx, id, mood); err != nil {
		return fmt.Errorf("%w: mood: %w", ErrRemoteWriteFailed, err)
	}
	return nil
}

func (d *Dispatcher) flush(ctx context.Context, extra *types.SyncPayload, seq uint64) Result {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	if extra != nil {
		extra = d.supersede(*extra, seq)
	}

	start := time.Now()
	entries := d.queue.PeekAll(ctx)
	merged := Merge(entries, extra)

	var result Result
	switch {
	case merged.IsEmpty():
		result = Result{Outcome: OutcomeOK, Pending: len(entries)}
	case !d.conn.Online(ctx):
		result = Result{Outcome: OutcomeSkipped, Pending: len(entries), Err: ErrNetworkUnavailable}
		slog.Debug("sync skipped",
			"component", "dispatch",
			"action", "flush_skipped",
			"pending", len(entries),
		)
	default:
		result = d.write(ctx, merged)
		result.Pending = d.settle(ctx, entries, result)
		d.log(result, time.Since(start))
	}

	recordResult(result, time.Since(start).Seconds())
	return result
}

// supersede strips from p the families a newer push already carried, since
// that push wrote a later state of the same records. The families p keeps are
// recorded as flushed at seq. It returns nil when nothing is left.
func (d *Dispatcher) supersede(p types.SyncPayload, seq uint64) *types.SyncPayload {
	for _, f := range types.Families {
		if !p.Has(f) {
			continue
		}
		if d.flushedSeq[f] > seq {
			p = p.Without(f)
			continue
		}
		d.flushedSeq[f] = seq
	}
	if p.IsEmpty() {
		return nil
	}
	return &p
}

// write upserts every non-empty family concurrently under one deadline.
func (d *Dispatcher) write(ctx context.Context, p types.SyncPayload) Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var families []types.Family
	for _, f := range types.Families {
		if p.Has(f) {
			families = append(families, f)
		}
	}

	results := make([]FamilyResult, len(families))
	var wg sync.WaitGroup
	for i, f := range families {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fr := FamilyResult{Family: f, Count: count(p, f)}
			if err := remote.Upsert(ctx, d.remote, f, p); err != nil {
				fr.Err = fmt.Errorf("%w: %s: %w", ErrRemoteWriteFailed, f, err)
			}
			results[i] = fr
		}()
	}
	wg.Wait()

	r := Result{Outcome: outcomeOf(results), Families: results}
	var errs []error
	for _, fr := range results {
		if fr.Err != nil {
			errs = append(errs, fr.Err)
		}
	}
	r.Err = errors.Join(errs...)
	return r
}

// settle strips written families from the flushed entries and drops entries
// left empty. Entries queued after the flush began are untouched. It returns
// the resulting queue length.
func (d *Dispatcher) settle(ctx context.Context, flushed []queue.Entry, r Result) int {
	ids := make(map[string]bool, len(flushed))
	for _, e := range flushed {
		ids[e.ID] = true
	}

	pending := 0
	err := d.queue.Update(context.WithoutCancel(ctx), func(current []queue.Entry) []queue.Entry {
		kept := make([]queue.Entry, 0, len(current))
		for _, e := range current {
			if ids[e.ID] {
				e = applyResult(e, r)
			}
			if e.Payload.IsEmpty() {
				continue
			}
			kept = append(kept, e)
		}
		pending = len(kept)
		return kept
	})
	if err != nil {
		slog.Error("failed to update sync queue",
			"component", "dispatch",
			"action", "settle",
			"error", err,
		)
		return len(flushed)
	}
	return pending
}

func applyResult(e queue.Entry, r Result) queue.Entry {
	var failures []error
	for _, fr := range r.Families {
		if !e.Payload.Has(fr.Family) {
			continue
		}
		if fr.OK() {
			e.Payload = e.Payload.Without(fr.Family)
		} else {
			failures = append(failures, fr.Err)
		}
	}
	if len(failures) > 0 {
		e.Attempts++
		e.LastError = errors.Join(failures...).Error()
	}
	return e
}

func (d *Dispatcher) log(r Result, elapsed time.Duration) {
	attrs := []any{
		"component", "dispatch",
		"action", "flush",
		"outcome", string(r.Outcome),
		"pending", r.Pending,
		"duration_ms", elapsed.Milliseconds(),
	}
	for _, fr := range r.Families {
		attrs = append(attrs, string(fr.Family), fr.OK())
	}
	if r.Outcome == OutcomeOK {
		slog.Info("sync flush completed", attrs...)
		return
	}
	slog.Warn("sync flush incomplete", append(attrs, "error", r.Err)...)
}

// Merge folds queue entries, oldest first, and then extra into one payload
// with at most one record per id per family. Later writes win; the first
// position of an id is kept.
func Merge(entries []queue.Entry, extra *types.SyncPayload) types.SyncPayload {
	var (
		fasting = newMerger[types.FastingLog](func(l types.FastingLog) string { return l.ID })
		water   = newMerger[types.WaterLog](func(l types.WaterLog) string { return l.ID })
		weight  = newMerger[types.WeightLog](func(l types.WeightLog) string { return l.ID })
	)
	add := func(p types.SyncPayload) {
		fasting.add(p.FastingLogs)
		water.add(p.WaterLogs)
		weight.add(p.WeightLogs)
	}
	for _, e := range entries {
		add(e.Payload)
	}
	if extra != nil {
		add(*extra)
	}
	return types.SyncPayload{
		FastingLogs: fasting.items,
		WaterLogs:   water.items,
		WeightLogs:  weight.items,
	}
}

type merger[T any] struct {
	key   func(T) string
	index map[string]int
	items []T
}

func newMerger[T any](key func(T) string) *merger[T] {
	return &merger[T]{key: key, index: make(map[string]int)}
}

func (m *merger[T]) add(items []T) {
	for _, it := range items {
		k := m.key(it)
		if i, ok := m.index[k]; ok {
			m.items[i] = it
			continue
		}
		m.index[k] = len(m.items)
		m.items = append(m.items, it)
	}
}

func count(p types.SyncPayload, f types.Family) int {
	switch f {
	case types.FamilyFasting:
		return len(p.FastingLogs)
	case types.FamilyWater:
		return len(p.WaterLogs)
	case types.FamilyWeight:
		return len(p.WeightLogs)
	}
	return 0
}
