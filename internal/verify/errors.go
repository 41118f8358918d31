package verify

import (
	"errors"
	"fmt"
)

// The failure taxonomy. Every failure is terminal and user-visible;
// nothing in the engine retries.
var (
	// ErrAlreadyMarked means a mark already exists for this
	// student/course/day. It wins over every other check.
	ErrAlreadyMarked = errors.New("attendance already marked for this course today")

	// ErrPermissionDenied means a device capability (location or
	// biometric) was denied or unobtainable.
	ErrPermissionDenied = errors.New("required device permission was denied")

	// ErrVerificationFailed means a wrong code or a failed biometric
	// match.
	ErrVerificationFailed = errors.New("verification failed")
)

// ScheduleClosedError means the attempt fell outside the course's
// configured session window.
type ScheduleClosedError struct {
	Reason string
}

func (e *ScheduleClosedError) Error() string {
	return "session closed: " + e.Reason
}

// OutOfRangeError means the device was outside the course's geofence.
type OutOfRangeError struct {
	DistanceMeters float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("out of range: %.0fm from the class location", e.DistanceMeters)
}

// NetworkError wraps a record store read or write failure. A NetworkError
// during commit leaves the outcome ambiguous; retrying the same attempt
// is safe because the mark ID is fixed and the store's uniqueness
// constraint rejects a replay that already landed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("record store %s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
