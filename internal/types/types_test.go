package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDayOf_UsesLocation(t *testing.T) {
	// 23:30 UTC is already the next day in UTC+2
	ts := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*3600)

	if got := DayOf(ts, nil); got != "2026-10-18" {
		t.Errorf("DayOf(nil loc) = %q, want 2026-10-18", got)
	}
	if got := DayOf(ts, loc); got != "2026-10-19" {
		t.Errorf("DayOf(UTC+2) = %q, want 2026-10-19", got)
	}
}

func TestDay_AddDays(t *testing.T) {
	if got := Day("2026-02-28").AddDays(1); got != "2026-03-01" {
		t.Errorf("AddDays(1) = %q, want 2026-03-01", got)
	}
	if got := Day("2026-01-01").AddDays(-1); got != "2025-12-31" {
		t.Errorf("AddDays(-1) = %q, want 2025-12-31", got)
	}
	if got := Day("garbage").AddDays(3); got != "garbage" {
		t.Errorf("AddDays on invalid day = %q, want unchanged", got)
	}
}

func TestFastingLog_Duration(t *testing.T) {
	start := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	log := FastingLog{ID: "a", Start: start, Status: StatusRunning, TargetHours: 16}
	if log.Duration() != 0 {
		t.Errorf("Duration() without end = %v, want 0", log.Duration())
	}

	end := start.Add(16*time.Hour + 30*time.Minute)
	log.End = &end
	if log.Duration() != 16*time.Hour+30*time.Minute {
		t.Errorf("Duration() = %v, want 16h30m", log.Duration())
	}
}

func TestFastingLog_JSONShape(t *testing.T) {
	start := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	log := FastingLog{ID: "a", Start: start, Status: StatusRunning, TargetHours: 16}

	data, err := json.Marshal(log)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)

	for _, key := range []string{`"id":"a"`, `"status":"running"`, `"targetHours":16`, `"start":"2026-10-18T08:00:00Z"`} {
		if !strings.Contains(s, key) {
			t.Errorf("JSON %s missing %s", s, key)
		}
	}
	// Absent end and mood are omitted
	if strings.Contains(s, `"end"`) || strings.Contains(s, `"mood"`) {
		t.Errorf("JSON %s should omit end and mood", s)
	}
}

func TestSyncPayload_Families(t *testing.T) {
	p := SyncPayload{
		FastingLogs: []FastingLog{{ID: "f"}},
		WaterLogs:   []WaterLog{{ID: "w", Date: "2026-10-18", ML: 250}},
	}

	if !p.Has(FamilyFasting) || !p.Has(FamilyWater) || p.Has(FamilyWeight) {
		t.Errorf("Has() mismatch for %+v", p)
	}
	if p.IsEmpty() {
		t.Error("IsEmpty() = true, want false")
	}

	stripped := p.Without(FamilyFasting).Without(FamilyWater)
	if !stripped.IsEmpty() {
		t.Errorf("Without both families should be empty, got %+v", stripped)
	}
	// Original untouched
	if !p.Has(FamilyFasting) {
		t.Error("Without mutated the receiver")
	}
}

func TestSyncPayload_CloneIsIndependent(t *testing.T) {
	p := SyncPayload{WaterLogs: []WaterLog{{ID: "w", ML: 250}}}
	c := p.Clone()
	c.WaterLogs[0].ML = 999

	if p.WaterLogs[0].ML != 250 {
		t.Errorf("Clone shares backing array: original ML = %d", p.WaterLogs[0].ML)
	}
}

func TestNewFastingLog(t *testing.T) {
	start := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

	log, err := NewFastingLog(NewID(), start, 16)
	if err != nil {
		t.Fatalf("NewFastingLog failed: %v", err)
	}
	if log.Status != StatusRunning || log.TargetHours != 16 || !log.Start.Equal(start) {
		t.Errorf("NewFastingLog = %+v", log)
	}

	tests := []struct {
		name  string
		id    string
		start time.Time
		hours int
		field string
	}{
		{"zero hours", "x", start, 0, "targetHours"},
		{"negative hours", "x", start, -4, "targetHours"},
		{"too many hours", "x", start, MaxTargetHours + 1, "targetHours"},
		{"missing id", "", start, 16, "id"},
		{"missing start", "x", time.Time{}, 16, "start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFastingLog(tt.id, tt.start, tt.hours)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			var inputErr *InputError
			if !errors.As(err, &inputErr) || inputErr.Field != tt.field {
				t.Errorf("err field = %v, want %s", err, tt.field)
			}
		})
	}
}

func TestNewWaterLog(t *testing.T) {
	if _, err := NewWaterLog(NewID(), "2026-10-18", 250); err != nil {
		t.Fatalf("NewWaterLog failed: %v", err)
	}

	for _, ml := range []int{0, -250, MaxWaterML + 1} {
		if _, err := NewWaterLog(NewID(), "2026-10-18", ml); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("NewWaterLog(ml=%d) err = %v, want ErrInvalidInput", ml, err)
		}
	}
	if _, err := NewWaterLog(NewID(), "yesterday", 250); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NewWaterLog(bad day) err = %v, want ErrInvalidInput", err)
	}
}

func TestNewWeightLog(t *testing.T) {
	log, err := NewWeightLog(NewID(), "2026-10-18", 80.0)
	if err != nil {
		t.Fatalf("NewWeightLog failed: %v", err)
	}
	if log.Weight != 80.0 || log.Date != "2026-10-18" {
		t.Errorf("NewWeightLog = %+v", log)
	}

	for _, kg := range []float64{0, -80, MaxWeightKG + 1} {
		if _, err := NewWeightLog(NewID(), "2026-10-18", kg); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("NewWeightLog(%v) err = %v, want ErrInvalidInput", kg, err)
		}
	}
}

func TestValidateMood(t *testing.T) {
	if err := ValidateMood("great"); err != nil {
		t.Errorf("ValidateMood(great) = %v", err)
	}
	for _, mood := range []string{"", "   ", strings.Repeat("a", MaxMoodLength+1), "a\x00b"} {
		if err := ValidateMood(mood); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ValidateMood(%q) = %v, want ErrInvalidInput", mood, err)
		}
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 36 {
			t.Fatalf("NewID() = %q, want 36-char UUID", id)
		}
		if seen[id] {
			t.Fatalf("NewID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}
