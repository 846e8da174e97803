package domain

// Medication is a recurring medication with one or more daily intake times.
type Medication struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Dosage string `json:"dosage,omitempty"`
	// Schedules lists intake times as HH:MM.
	Schedules []string `json:"schedules"`
	Active    bool     `json:"active"`
	// Weekdays uses 0=Sunday..6=Saturday. All seven (or none) means every day.
	Weekdays []int `json:"weekdays"`
	Fasting  bool  `json:"fasting"`
	// IntervalHours and StartTime describe "every N hours from T" schedules.
	IntervalHours int    `json:"intervalHours,omitempty"`
	StartTime     string `json:"startTime,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// DoseStatus is the state of a dose log entry.
type DoseStatus string

const (
	DoseTaken   DoseStatus = "taken"
	DoseUntaken DoseStatus = "untaken"
)

// DoseLogEntry records whether a scheduled dose was taken on a given day.
type DoseLogEntry struct {
	MedicationID string     `json:"medicationId"`
	Date         string     `json:"date"`
	ScheduleTime string     `json:"scheduleTime"`
	Status       DoseStatus `json:"status"`
	TakenAt      string     `json:"takenAt,omitempty"`
}
