package fasting

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hyperengineering/fastline/internal/store"
	"github.com/hyperengineering/fastline/internal/types"
)

// Session is a completed fast with its duration.
type Session struct {
	types.FastingLog
	Hours float64 `json:"hours"`
}

// Stats summarises completed fasts.
type Stats struct {
	TotalFasts    int     `json:"totalFasts"`
	LongestHours  float64 `json:"longestHours"`
	AverageHours  float64 `json:"averageHours"`
	CurrentStreak int     `json:"currentStreak"`
	LongestStreak int     `json:"longestStreak"`
}

// Completed filters logs to ended, completed fasts, oldest first. Hours are
// rounded to one decimal.
func Completed(logs []types.FastingLog) []Session {
	var sessions []Session
	for _, l := range logs {
		if l.Status != types.StatusCompleted || l.End == nil {
			continue
		}
		sessions = append(sessions, Session{
			FastingLog: l,
			Hours:      round1(l.Duration().Hours()),
		})
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Start.Before(sessions[j].Start)
	})
	return sessions
}

// ComputeStats derives totals and streaks. A streak counts consecutive days
// on which a fast was completed; the current streak may end yesterday when
// today has no completed fast yet.
func ComputeStats(sessions []Session, today types.Day, loc *time.Location) Stats {
	var st Stats
	if len(sessions) == 0 {
		return st
	}

	var total float64
	days := make(map[types.Day]bool)
	for _, s := range sessions {
		st.TotalFasts++
		total += s.Hours
		if s.Hours > st.LongestHours {
			st.LongestHours = s.Hours
		}
		days[types.DayOf(*s.End, loc)] = true
	}
	st.AverageHours = round1(total / float64(st.TotalFasts))

	sorted := make([]types.Day, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	run := 0
	for i, d := range sorted {
		if i > 0 && sorted[i-1].AddDays(1) == d {
			run++
		} else {
			run = 1
		}
		st.LongestStreak = max(st.LongestStreak, run)
	}

	d := today
	if !days[d] {
		d = d.AddDays(-1)
	}
	for days[d] {
		st.CurrentStreak++
		d = d.AddDays(-1)
	}
	return st
}

// History returns the completed fasts from the local store, oldest first.
func (e *Engine) History(ctx context.Context) []Session {
	return Completed(store.Get[types.FastingLog](ctx, e.deps.Store, store.PartitionFasting))
}

// Stats computes history stats as of the engine clock.
func (e *Engine) Stats(ctx context.Context) Stats {
	today := types.DayOf(e.deps.Now(), e.deps.Location)
	return ComputeStats(e.History(ctx), today, e.deps.Location)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
