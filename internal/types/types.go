package types

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Day is a calendar day in YYYY-MM-DD form, interpreted in the user's location.
type Day string

// DayLayout is the time layout for Day.
const DayLayout = "2006-01-02"

// DayOf returns the calendar day of t in loc. A nil loc means t's own location.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc != nil {
		t = t.In(loc)
	}
	return Day(t.Format(DayLayout))
}

// Time returns midnight of d in loc.
func (d Day) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DayLayout, string(d), loc)
}

// AddDays returns the day n days after d. Invalid days are returned unchanged.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(DayLayout))
}

// String implements fmt.Stringer.
func (d Day) String() string { return string(d) }

// FastingStatus is the lifecycle state of a fasting session.
type FastingStatus string

const (
	StatusIdle      FastingStatus = "idle"
	StatusRunning   FastingStatus = "running"
	StatusCompleted FastingStatus = "completed"
)

// FastingLog is one fasting session as persisted locally and synced remotely.
type FastingLog struct {
	ID          string        `json:"id"`
	Start       time.Time     `json:"start"`
	End         *time.Time    `json:"end,omitempty"`
	Status      FastingStatus `json:"status"`
	TargetHours int           `json:"targetHours"`
	Mood        string        `json:"mood,omitempty"`
}

// Duration returns End-Start, or zero when the session has not ended.
func (f FastingLog) Duration() time.Duration {
	if f.End == nil {
		return 0
	}
	d := f.End.Sub(f.Start)
	if d < 0 {
		return 0
	}
	return d
}

// WaterLog is one water intake measurement.
type WaterLog struct {
	ID   string `json:"id"`
	Date Day    `json:"date"`
	ML   int    `json:"ml"`
}

// WeightLog is one body weight measurement in kilograms.
type WeightLog struct {
	ID     string  `json:"id"`
	Date   Day     `json:"date"`
	Weight float64 `json:"weight"`
}

// Family names one of the three synced log families.
type Family string

const (
	FamilyFasting Family = "fasting"
	FamilyWater   Family = "water"
	FamilyWeight  Family = "weight"
)

// Families lists every log family in dispatch order.
var Families = []Family{FamilyFasting, FamilyWater, FamilyWeight}

// FamilyNames returns Families as strings, for enum validation.
func FamilyNames() []string {
	names := make([]string, len(Families))
	for i, f := range Families {
		names[i] = string(f)
	}
	return names
}

// SyncPayload is a snapshot batch of log sequences pending transmission.
// It is not a diff: each family carries the full sequence at enqueue time.
type SyncPayload struct {
	FastingLogs []FastingLog `json:"fastingLogs"`
	WaterLogs   []WaterLog   `json:"waterLogs"`
	WeightLogs  []WeightLog  `json:"weightLogs"`
}

// Has reports whether the payload carries any records of the family.
func (p SyncPayload) Has(f Family) bool {
	switch f {
	case FamilyFasting:
		return len(p.FastingLogs) > 0
	case FamilyWater:
		return len(p.WaterLogs) > 0
	case FamilyWeight:
		return len(p.WeightLogs) > 0
	}
	return false
}

// IsEmpty reports whether no family carries records.
func (p SyncPayload) IsEmpty() bool {
	return !p.Has(FamilyFasting) && !p.Has(FamilyWater) && !p.Has(FamilyWeight)
}

// Without returns a copy of p with the family's sequence dropped.
func (p SyncPayload) Without(f Family) SyncPayload {
	switch f {
	case FamilyFasting:
		p.FastingLogs = nil
	case FamilyWater:
		p.WaterLogs = nil
	case FamilyWeight:
		p.WeightLogs = nil
	}
	return p
}

// Clone returns a deep copy of the payload's sequences.
func (p SyncPayload) Clone() SyncPayload {
	return SyncPayload{
		FastingLogs: slices.Clone(p.FastingLogs),
		WaterLogs:   slices.Clone(p.WaterLogs),
		WeightLogs:  slices.Clone(p.WeightLogs),
	}
}

// NewID returns a fresh record identifier. Record IDs are used as the remote
// primary key for idempotent upserts.
func NewID() string {
	return uuid.NewString()
}
