package fasting

import (
	"testing"
	"time"

	"github.com/hyperengineering/fastline/internal/types"
)

func completedFast(id string, start time.Time, hours float64) types.FastingLog {
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	return types.FastingLog{ID: id, Start: start, End: &end, Status: types.StatusCompleted, TargetHours: 16}
}

func TestCompleted_FiltersAndSorts(t *testing.T) {
	base := time.Date(2026, 10, 10, 20, 0, 0, 0, time.UTC)
	logs := []types.FastingLog{
		completedFast("b", base.AddDate(0, 0, 1), 18),
		{ID: "running", Start: base.AddDate(0, 0, 2), Status: types.StatusRunning, TargetHours: 16},
		completedFast("a", base, 16.44),
		{ID: "abandoned", Start: base, Status: types.StatusIdle},
	}

	sessions := Completed(logs)

	if len(sessions) != 2 {
		t.Fatalf("Completed returned %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "a" || sessions[1].ID != "b" {
		t.Errorf("order = %s, %s; want a, b", sessions[0].ID, sessions[1].ID)
	}
	if sessions[0].Hours != 16.4 {
		t.Errorf("hours = %v, want 16.4", sessions[0].Hours)
	}
}

func TestComputeStats(t *testing.T) {
	// Fasts ending on Oct 10, 11, 12 and then Oct 15, 16 (today is Oct 17)
	day := func(d int) time.Time { return time.Date(2026, 10, d-1, 20, 0, 0, 0, time.UTC) }
	logs := []types.FastingLog{
		completedFast("1", day(10), 16),
		completedFast("2", day(11), 18),
		completedFast("3", day(12), 20),
		completedFast("4", day(15), 14),
		completedFast("5", day(16), 16),
	}

	st := ComputeStats(Completed(logs), "2026-10-17", time.UTC)

	if st.TotalFasts != 5 {
		t.Errorf("TotalFasts = %d", st.TotalFasts)
	}
	if st.LongestHours != 20 {
		t.Errorf("LongestHours = %v", st.LongestHours)
	}
	if st.AverageHours != 16.8 {
		t.Errorf("AverageHours = %v, want 16.8", st.AverageHours)
	}
	if st.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", st.LongestStreak)
	}
	// Today has no fast yet, so the streak runs through yesterday
	if st.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", st.CurrentStreak)
	}

	broken := ComputeStats(Completed(logs), "2026-10-19", time.UTC)
	if broken.CurrentStreak != 0 {
		t.Errorf("CurrentStreak after a gap = %d, want 0", broken.CurrentStreak)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	if st := ComputeStats(nil, "2026-10-17", time.UTC); st != (Stats{}) {
		t.Errorf("ComputeStats(nil) = %+v", st)
	}
}
