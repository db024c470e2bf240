package tracker

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperengineering/fastline/internal/store"
	"github.com/hyperengineering/fastline/internal/types"
)

// DefaultTargetKG is the goal weight used when none is configured.
const DefaultTargetKG = 70.0

// Weight keeps at most one weight per calendar day.
type Weight struct {
	deps     Deps
	targetKG float64
	heightCM float64
}

// WeightSummary is the goal view derived from the weight log.
type WeightSummary struct {
	Latest   *types.WeightLog `json:"latest,omitempty"`
	Start    *types.WeightLog `json:"start,omitempty"`
	TargetKG float64          `json:"targetKg"`
	// Diff is latest minus the previous entry; zero with fewer than two entries.
	Diff     float64 `json:"diff"`
	Progress float64 `json:"progress"`
	ToGoKG   float64 `json:"toGoKg"`
	// Body is set when a height is known.
	Body *Body `json:"body,omitempty"`
}

// NewWeight creates a Weight accumulator. A non-positive target means DefaultTargetKG.
func NewWeight(deps Deps, targetKG float64) *Weight {
	deps.defaults()
	if targetKG <= 0 {
		targetKG = DefaultTargetKG
	}
	return &Weight{deps: deps, targetKG: targetKG}
}

// WithHeight sets the height used for the BMI view. A non-positive height
// disables it.
func (w *Weight) WithHeight(heightCM float64) *Weight {
	w.heightCM = max(heightCM, 0)
	return w
}

// TargetKG returns the goal weight.
func (w *Weight) TargetKG() float64 { return w.targetKG }

// HeightCM returns the configured height, zero when unknown.
func (w *Weight) HeightCM() float64 { return w.heightCM }

// Save records kg for today, replacing any earlier entry for today. A
// replaced entry keeps its id so the remote row is overwritten.
func (w *Weight) Save(ctx context.Context, kg float64) (types.WeightLog, error) {
	today := w.deps.today()
	logs := store.Get[types.WeightLog](ctx, w.deps.Store, store.PartitionWeight)

	id := types.NewID()
	kept := logs[:0]
	for _, l := range logs {
		if l.Date == today {
			id = l.ID
			continue
		}
		kept = append(kept, l)
	}

	log, err := types.NewWeightLog(id, today, kg)
	if err != nil {
		return types.WeightLog{}, err
	}
	logs = append(kept, log)
	sortByDateDesc(logs)

	if err := store.Set(ctx, w.deps.Store, store.PartitionWeight, logs); err != nil {
		return types.WeightLog{}, fmt.Errorf("save weight: %w", err)
	}

	w.deps.publish(ctx, types.SyncPayload{WeightLogs: logs}, types.FamilyWeight)
	return log, nil
}

// Logs returns every weight log, newest date first.
func (w *Weight) Logs(ctx context.Context) []types.WeightLog {
	logs := store.Get[types.WeightLog](ctx, w.deps.Store, store.PartitionWeight)
	sortByDateDesc(logs)
	return logs
}

// Latest returns the most recent entry by date.
func (w *Weight) Latest(ctx context.Context) (types.WeightLog, bool) {
	logs := w.Logs(ctx)
	if len(logs) == 0 {
		return types.WeightLog{}, false
	}
	return logs[0], true
}

// Start returns the earliest entry by date.
func (w *Weight) Start(ctx context.Context) (types.WeightLog, bool) {
	logs := w.Logs(ctx)
	if len(logs) == 0 {
		return types.WeightLog{}, false
	}
	return logs[len(logs)-1], true
}

// Summary derives latest, start, diff and goal progress.
func (w *Weight) Summary(ctx context.Context) WeightSummary {
	s := WeightSummary{TargetKG: w.targetKG}
	logs := w.Logs(ctx)
	if len(logs) == 0 {
		return s
	}
	latest, start := logs[0], logs[len(logs)-1]
	s.Latest, s.Start = &latest, &start
	if len(logs) > 1 {
		s.Diff = latest.Weight - logs[1].Weight
	}
	s.Progress = GoalProgress(start.Weight, latest.Weight, w.targetKG)
	s.ToGoKG = max(latest.Weight-w.targetKG, 0)
	if b, ok := BodyOf(latest.Weight, w.heightCM); ok {
		s.Body = &b
	}
	return s
}

// GoalProgress is 100*(start-current)/(start-target) clamped to [0,100].
// When start equals target the goal is complete at or below it and not
// started above it.
func GoalProgress(start, current, target float64) float64 {
	denom := start - target
	if denom == 0 {
		if current <= target {
			return 100
		}
		return 0
	}
	return min(max(100*(start-current)/denom, 0), 100)
}

func sortByDateDesc(logs []types.WeightLog) {
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Date > logs[j].Date })
}
