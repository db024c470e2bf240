package fasting

import (
	"fmt"
	"time"

	"github.com/hyperengineering/fastline/internal/types"
)

// Milestone is a named progress band.
type Milestone string

const (
	MilestoneNone      Milestone = "none"
	MilestoneFatBurn   Milestone = "fat-burn"
	MilestoneHalfway   Milestone = "halfway"
	MilestoneAutophagy Milestone = "autophagy"
	MilestoneComplete  Milestone = "complete"
)

// Classify maps a percent to its band. Boundaries belong to the higher band.
func Classify(percent float64) Milestone {
	switch {
	case percent >= 100:
		return MilestoneComplete
	case percent >= 75:
		return MilestoneAutophagy
	case percent >= 50:
		return MilestoneHalfway
	case percent >= 25:
		return MilestoneFatBurn
	default:
		return MilestoneNone
	}
}

// Label is the human-readable milestone text.
func (m Milestone) Label() string {
	switch m {
	case MilestoneFatBurn:
		return "Fat burning"
	case MilestoneHalfway:
		return "Halfway there"
	case MilestoneAutophagy:
		return "Autophagy"
	case MilestoneComplete:
		return "Goal reached"
	}
	return ""
}

// Progress is the derived view of a session at one instant.
type Progress struct {
	Status      types.FastingStatus `json:"status"`
	TargetHours int                 `json:"targetHours"`
	TargetMs    int64               `json:"targetMs"`
	ElapsedMs   int64               `json:"elapsedMs"`
	RemainingMs int64               `json:"remainingMs"`
	Percent     float64             `json:"percent"`
	Milestone   Milestone           `json:"milestone"`
	// OverrunMs is wall-clock time past the target. ElapsedMs caps at the
	// target; OverrunMs does not.
	OverrunMs int64 `json:"overrunMs"`
}

// ComputeProgress derives progress for a session of targetHours that started
// at start, observed at now. A zero start yields zero elapsed time.
func ComputeProgress(status types.FastingStatus, start time.Time, targetHours int, now time.Time) Progress {
	targetMs := int64(targetHours) * 3600 * 1000
	p := Progress{
		Status:      status,
		TargetHours: targetHours,
		TargetMs:    targetMs,
		RemainingMs: targetMs,
		Milestone:   MilestoneNone,
	}
	if start.IsZero() || targetMs <= 0 {
		return p
	}

	raw := now.Sub(start).Milliseconds()
	p.ElapsedMs = clamp(raw, 0, targetMs)
	p.RemainingMs = max(targetMs-p.ElapsedMs, 0)
	p.Percent = 100 * float64(p.ElapsedMs) / float64(targetMs)
	if p.Percent > 100 {
		p.Percent = 100
	}
	p.Milestone = Classify(p.Percent)
	if raw > targetMs {
		p.OverrunMs = raw - targetMs
	}
	return p
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}

// FormatHMS renders milliseconds as HH:MM:SS. Negative values render as zero.
func FormatHMS(ms int64) string {
	totalSec := max(ms/1000, 0)
	h := totalSec / 3600
	m := (totalSec % 3600) / 60
	s := totalSec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatEndsAt renders the planned end as "Today 15:04" or a date when it
// falls on another day than now.
func FormatEndsAt(end, now time.Time) string {
	day := end.Format("Jan 2")
	if end.YearDay() == now.YearDay() && end.Year() == now.Year() {
		day = "Today"
	}
	return day + " " + end.Format("15:04")
}
