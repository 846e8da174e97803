package alarm

import (
	"time"

	"github.com/example/care-alarms/internal/notifier"
)

// Failure is a notification that could not be scheduled while the rest of
// the batch went ahead.
type Failure struct {
	Identifier string `json:"identifier"`
	Error      string `json:"error"`
}

// Skip is a slot or reminder that was deliberately not scheduled.
type Skip struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// Skip reasons.
const (
	ReasonTakenToday = "dose already taken today"
	ReasonInPast     = "instant already passed"
	ReasonNoLead     = "unknown reminder lead"
	ReasonNotApplied = "vaccine not applied"
	ReasonNoDueDate  = "no next due date"
)

// Result is the outcome of one orchestrator run. References holds every
// notification now registered for the entity.
type Result struct {
	EntityKey  string               `json:"entityKey"`
	References []notifier.Reference `json:"references"`
	Failures   []Failure            `json:"failures,omitempty"`
	Skipped    []Skip               `json:"skipped,omitempty"`
	// Replaced counts references of the previous run that were cancelled.
	Replaced int `json:"replaced"`
}

// CancelResult is the outcome of cancelling an entity's notifications.
type CancelResult struct {
	EntityKey string `json:"entityKey"`
	Cancelled int    `json:"cancelled"`
	Failed    int    `json:"failed"`
}

// EntityFailure is an entity reconciliation could not schedule.
type EntityFailure struct {
	EntityKey string `json:"entityKey"`
	Error     string `json:"error"`
}

// Report summarises a bulk reconciliation.
type Report struct {
	StartedAt         time.Time       `json:"startedAt"`
	FinishedAt        time.Time       `json:"finishedAt"`
	PermissionGranted bool            `json:"permissionGranted"`
	Medications       int             `json:"medications"`
	Visits            int             `json:"visits"`
	Vaccines          int             `json:"vaccines"`
	Cancelled         int             `json:"cancelled"`
	Notifications     int             `json:"notifications"`
	Failures          []EntityFailure `json:"failures,omitempty"`
}

// TestResult describes a scheduled test notification.
type TestResult struct {
	Identifier string             `json:"identifier"`
	Reference  notifier.Reference `json:"reference"`
	FireAt     time.Time          `json:"fireAt"`
}

// SlotPreview lists the next fire instants of one medication slot.
type SlotPreview struct {
	ScheduleTime string      `json:"scheduleTime"`
	Weekdays     []int       `json:"weekdays,omitempty"`
	TakenToday   bool        `json:"takenToday"`
	Fires        []time.Time `json:"fires"`
}
