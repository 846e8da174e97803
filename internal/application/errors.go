package application

import (
	"errors"
	"fmt"

	"github.com/example/care-alarms/internal/alarm"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrPermissionDenied is returned when the entity was saved but its
	// alarms could not be scheduled because notifications are not allowed.
	ErrPermissionDenied = errors.New("application: notification permission denied, alarms will not fire")
	// ErrSchedulingFailed is returned when the entity was saved but its
	// alarms could not be registered.
	ErrSchedulingFailed = errors.New("application: alarms could not be scheduled")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// alarmError translates an orchestrator error into the service's sentinels.
func alarmError(err error) error {
	if err == nil {
		return nil
	}
	if alarm.KindOf(err) == alarm.KindPermissionDenied {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", ErrSchedulingFailed, err)
}
