package alarm

import (
	"errors"
	"fmt"
)

// Kind classifies a SchedulingError.
type Kind string

const (
	KindPermissionDenied Kind = "permission_denied"
	KindStorage          Kind = "storage"
	KindScheduler        Kind = "scheduler"
	KindInvalidInput     Kind = "invalid_input"
)

var (
	// ErrPermissionDenied is wrapped by every permission failure.
	ErrPermissionDenied = errors.New("alarm: notification permission denied")
	// ErrNotConfirmed is returned when a test notification never shows up
	// in the scheduler listing.
	ErrNotConfirmed = errors.New("alarm: test notification not confirmed")
)

// SchedulingError is the error returned by every orchestrator operation.
type SchedulingError struct {
	Op        string
	EntityKey string
	Kind      Kind
	Err       error
}

func (e *SchedulingError) Error() string {
	if e.EntityKey == "" {
		return fmt.Sprintf("alarm: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("alarm: %s %s: %s: %v", e.Op, e.EntityKey, e.Kind, e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a SchedulingError in err's chain, or "".
func KindOf(err error) Kind {
	var schedErr *SchedulingError
	if errors.As(err, &schedErr) {
		return schedErr.Kind
	}
	return ""
}

func newError(op, entityKey string, kind Kind, err error) *SchedulingError {
	return &SchedulingError{Op: op, EntityKey: entityKey, Kind: kind, Err: err}
}
