package validation

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DayLayout is the calendar-day format used by water and weight logs.
const DayLayout = "2006-01-02"

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements error so a ValidationError can be returned directly.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// First returns the first accumulated error, or nil.
func (c *Collector) First() *ValidationError {
	if len(c.errors) == 0 {
		return nil
	}
	e := c.errors[0]
	return &e
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return invalid(field, "must be valid UTF-8")
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return invalid(field, "must not contain null bytes")
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return invalid(field, fmt.Sprintf("exceeds maximum length of %d characters", max))
	}
	return nil
}

// ValidateUUID returns an error if the value is not a canonical UUID string.
// Record IDs double as remote primary keys, so they must parse.
func ValidateUUID(field, value string) *ValidationError {
	if _, err := uuid.Parse(value); err != nil || len(value) != 36 {
		return invalid(field, "must be a valid UUID")
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// ValidateRange returns an error if the value is outside [min, max].
// NaN and infinities are always out of range.
func ValidateRange(field string, value, min, max float64) *ValidationError {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < min || value > max {
		return invalid(field, fmt.Sprintf("must be between %.1f and %.1f", min, max))
	}
	return nil
}

// ValidateIntRange returns an error if the value is outside [min, max].
func ValidateIntRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return invalid(field, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return nil
}

// ValidateDay returns an error if the value is not a YYYY-MM-DD calendar day.
func ValidateDay(field, value string) *ValidationError {
	if _, err := time.Parse(DayLayout, value); err != nil {
		return invalid(field, "must be a calendar day (YYYY-MM-DD)")
	}
	return nil
}
