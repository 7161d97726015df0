package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RecurrencePattern is the repeat interval attached to a task.
type RecurrencePattern string

// The closed set of supported recurrence patterns.
const (
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
)

// ErrInvalidRecurrencePattern indicates a pattern value outside the
// supported enumeration.
var ErrInvalidRecurrencePattern = errors.New("invalid recurrence pattern")

// ParseRecurrencePattern converts a raw pattern string into a
// RecurrencePattern. Matching is case-insensitive. An empty string is an
// error; callers that treat "no pattern" as valid must check for empty
// before parsing.
func ParseRecurrencePattern(raw string) (RecurrencePattern, error) {
	p := RecurrencePattern(strings.ToLower(raw))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecurrencePattern, raw)
	}
	return p, nil
}

// IsValid reports whether the pattern is one of the supported values.
func (p RecurrencePattern) IsValid() bool {
	switch p {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}
