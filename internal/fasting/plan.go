package fasting

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperengineering/fastline/internal/types"
)

// PlanWeeks are the planning windows offered by default.
var PlanWeeks = []int{1, 2, 4}

// MaxPlanWeeks bounds a custom planning window.
const MaxPlanWeeks = 52

// PlanDay is one day of a planning window.
type PlanDay struct {
	Date  types.Day `json:"date"`
	Fasts int       `json:"fasts"`
	Hours float64   `json:"hours"`
}

// Plan summarises completed fasts over the last Weeks weeks, today included.
type Plan struct {
	Weeks        int       `json:"weeks"`
	From         types.Day `json:"from"`
	To           types.Day `json:"to"`
	Days         []PlanDay `json:"days"`
	FastDays     int       `json:"fastDays"`
	AverageHours float64   `json:"averageHours"`
	Streak       int       `json:"streak"`
	// Adherence is the share of days with a completed fast, 0-100.
	Adherence float64 `json:"adherence"`
}

// BuildPlan buckets sessions by the day they ended into a window of weeks
// ending today. The streak is the current streak counted inside the window.
func BuildPlan(sessions []Session, weeks int, today types.Day, loc *time.Location) (Plan, error) {
	if weeks < 1 || weeks > MaxPlanWeeks {
		return Plan{}, types.Invalid("weeks", fmt.Sprintf("must be between 1 and %d", MaxPlanWeeks))
	}

	n := weeks * 7
	p := Plan{Weeks: weeks, From: today.AddDays(1 - n), To: today, Days: make([]PlanDay, n)}
	index := make(map[types.Day]int, n)
	for i := range p.Days {
		d := p.From.AddDays(i)
		p.Days[i].Date = d
		index[d] = i
	}

	var (
		inside []Session
		total  float64
	)
	for _, s := range sessions {
		i, ok := index[types.DayOf(*s.End, loc)]
		if !ok {
			continue
		}
		p.Days[i].Fasts++
		p.Days[i].Hours = round1(p.Days[i].Hours + s.Hours)
		total += s.Hours
		inside = append(inside, s)
	}

	for _, d := range p.Days {
		if d.Fasts > 0 {
			p.FastDays++
		}
	}
	if len(inside) > 0 {
		p.AverageHours = round1(total / float64(len(inside)))
	}
	p.Streak = ComputeStats(inside, today, loc).CurrentStreak
	p.Adherence = round1(100 * float64(p.FastDays) / float64(n))
	return p, nil
}

// Plan builds the planning window from local history as of the engine clock.
func (e *Engine) Plan(ctx context.Context, weeks int) (Plan, error) {
	today := types.DayOf(e.deps.Now(), e.deps.Location)
	return BuildPlan(e.History(ctx), weeks, today, e.deps.Location)
}
