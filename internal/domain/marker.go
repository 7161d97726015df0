package domain

import (
	"errors"
	"fmt"
	"time"
)

// MarkerStatus represents the state of a processing marker.
type MarkerStatus string

// Possible marker status values
const (
	MarkerStarted   MarkerStatus = "started"
	MarkerCompleted MarkerStatus = "completed"
)

// KeyPrecision selects the timestamp granularity used when deriving a
// processing identity from a completion instant. Second-level precision
// collapses completions of the same task inside one second onto one
// identity; microsecond precision keeps them distinct.
type KeyPrecision string

const (
	PrecisionSecond      KeyPrecision = "second"
	PrecisionMicrosecond KeyPrecision = "microsecond"
)

// ErrInvalidKeyPrecision indicates a precision value outside the
// supported set.
var ErrInvalidKeyPrecision = errors.New("invalid processing key precision")

// ParseKeyPrecision converts a raw config value into a KeyPrecision.
func ParseKeyPrecision(raw string) (KeyPrecision, error) {
	switch KeyPrecision(raw) {
	case PrecisionSecond:
		return PrecisionSecond, nil
	case PrecisionMicrosecond:
		return PrecisionMicrosecond, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKeyPrecision, raw)
	}
}

// ProcessingMarker tracks one recurrence-generation attempt for one
// completed task occurrence. A completed marker is immutable and is the
// sole authority for "already handled".
type ProcessingMarker struct {
	Status    MarkerStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}

// ProcessingID derives the idempotency identity for a completion event.
// The identity incorporates the user, the task, and the completion
// instant at the configured precision: redelivered copies of the same
// completion event carry the same instant and collide on this key, while
// two distinct completions of the same task do not.
func ProcessingID(userID string, taskID int64, completedAt time.Time, precision KeyPrecision) string {
	t := completedAt.UTC()
	stamp := t.Format("20060102150405")
	if precision == PrecisionMicrosecond {
		stamp = fmt.Sprintf("%s%06d", stamp, t.Nanosecond()/1000)
	}
	return fmt.Sprintf("recurrence_%s_%d_%s", userID, taskID, stamp)
}

// MarkerStartedKey returns the state-store key for the started marker of
// the given processing identity.
func MarkerStartedKey(processingID string) string {
	return "recurrence_started:" + processingID
}

// MarkerCompletedKey returns the state-store key for the completed
// marker of the given processing identity.
func MarkerCompletedKey(processingID string) string {
	return "recurrence_processed:" + processingID
}
