package tracker

import (
	"context"
	"fmt"

	"github.com/hyperengineering/fastline/internal/store"
	"github.com/hyperengineering/fastline/internal/types"
)

// DefaultDailyTargetML is the daily water goal.
const DefaultDailyTargetML = 2500

// Water accumulates water intake per calendar day.
type Water struct {
	deps     Deps
	targetML int
}

// WaterSummary is one day's intake against the goal.
type WaterSummary struct {
	Date     types.Day `json:"date"`
	TotalML  int       `json:"totalMl"`
	TargetML int       `json:"targetMl"`
	// Percent is clamped to 100 for display; RawPercent is not.
	Percent    float64 `json:"percent"`
	RawPercent float64 `json:"rawPercent"`
}

// NewWater creates a Water accumulator. A non-positive target means
// DefaultDailyTargetML.
func NewWater(deps Deps, targetML int) *Water {
	deps.defaults()
	if targetML <= 0 {
		targetML = DefaultDailyTargetML
	}
	return &Water{deps: deps, targetML: targetML}
}

// TargetML returns the daily goal.
func (w *Water) TargetML() int { return w.targetML }

// Add records ml of water for today.
func (w *Water) Add(ctx context.Context, ml int) (types.WaterLog, error) {
	log, err := types.NewWaterLog(types.NewID(), w.deps.today(), ml)
	if err != nil {
		return types.WaterLog{}, err
	}

	logs := store.Get[types.WaterLog](ctx, w.deps.Store, store.PartitionWater)
	logs = append([]types.WaterLog{log}, logs...)
	if err := store.Set(ctx, w.deps.Store, store.PartitionWater, logs); err != nil {
		return types.WaterLog{}, fmt.Errorf("add water: %w", err)
	}

	w.deps.publish(ctx, types.SyncPayload{WaterLogs: logs}, types.FamilyWater)
	return log, nil
}

// Logs returns every water log, newest first.
func (w *Water) Logs(ctx context.Context) []types.WaterLog {
	return store.Get[types.WaterLog](ctx, w.deps.Store, store.PartitionWater)
}

// Today sums today's intake.
func (w *Water) Today(ctx context.Context) WaterSummary {
	today := w.deps.today()
	total := 0
	for _, l := range w.Logs(ctx) {
		if l.Date == today {
			total += l.ML
		}
	}
	return w.summary(today, total)
}

// DailyTotals returns the last days calendar days ending today, newest first.
// Days without intake are included with a zero total.
func (w *Water) DailyTotals(ctx context.Context, days int) []WaterSummary {
	totals := make(map[types.Day]int)
	for _, l := range w.Logs(ctx) {
		totals[l.Date] += l.ML
	}

	today := w.deps.today()
	out := make([]WaterSummary, 0, max(days, 0))
	for i := 0; i < days; i++ {
		d := today.AddDays(-i)
		out = append(out, w.summary(d, totals[d]))
	}
	return out
}

func (w *Water) summary(day types.Day, total int) WaterSummary {
	raw := 100 * float64(total) / float64(w.targetML)
	return WaterSummary{
		Date:       day,
		TotalML:    total,
		TargetML:   w.targetML,
		Percent:    min(raw, 100),
		RawPercent: raw,
	}
}
