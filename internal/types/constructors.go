package types

import (
	"time"

	"github.com/hyperengineering/fastline/internal/validation"
)

// Input bounds. Target hours cover every preset plus extended fasts.
const (
	MinTargetHours = 1
	MaxTargetHours = 72
	MaxWaterML     = 5000
	MinWeightKG    = 1.0
	MaxWeightKG    = 500.0
	MaxMoodLength  = 32
)

// NewFastingLog builds a running FastingLog after validating its fields.
func NewFastingLog(id string, start time.Time, targetHours int) (FastingLog, error) {
	c := &validation.Collector{}
	c.Add(validation.ValidateRequired("id", id))
	c.Add(validation.ValidateIntRange("targetHours", targetHours, MinTargetHours, MaxTargetHours))
	if start.IsZero() {
		c.Add(&validation.ValidationError{Field: "start", Message: "is required"})
	}
	if err := fromValidation(c); err != nil {
		return FastingLog{}, err
	}
	return FastingLog{
		ID:          id,
		Start:       start,
		Status:      StatusRunning,
		TargetHours: targetHours,
	}, nil
}

// NewWaterLog builds a WaterLog after validating its fields.
func NewWaterLog(id string, date Day, ml int) (WaterLog, error) {
	c := &validation.Collector{}
	c.Add(validation.ValidateRequired("id", id))
	c.Add(validation.ValidateDay("date", string(date)))
	c.Add(validation.ValidateIntRange("ml", ml, 1, MaxWaterML))
	if err := fromValidation(c); err != nil {
		return WaterLog{}, err
	}
	return WaterLog{ID: id, Date: date, ML: ml}, nil
}

// NewWeightLog builds a WeightLog after validating its fields.
func NewWeightLog(id string, date Day, kg float64) (WeightLog, error) {
	c := &validation.Collector{}
	c.Add(validation.ValidateRequired("id", id))
	c.Add(validation.ValidateDay("date", string(date)))
	c.Add(validation.ValidateRange("weight", kg, MinWeightKG, MaxWeightKG))
	if err := fromValidation(c); err != nil {
		return WeightLog{}, err
	}
	return WeightLog{ID: id, Date: date, Weight: kg}, nil
}

// ValidateMood checks a mood tag attached to a completed fast.
func ValidateMood(mood string) error {
	c := &validation.Collector{}
	c.Add(validation.ValidateRequired("mood", mood))
	c.Add(validation.ValidateUTF8("mood", mood))
	c.Add(validation.ValidateNoNullBytes("mood", mood))
	c.Add(validation.ValidateMaxLength("mood", mood, MaxMoodLength))
	return fromValidation(c)
}
