package domain

// VaccineStatus tracks a vaccine record through its lifecycle.
type VaccineStatus string

const (
	VaccinePending   VaccineStatus = "pending"
	VaccineScheduled VaccineStatus = "scheduled"
	VaccineApplied   VaccineStatus = "applied"
)

// Valid reports whether s is a known status.
func (s VaccineStatus) Valid() bool {
	switch s {
	case VaccinePending, VaccineScheduled, VaccineApplied:
		return true
	}
	return false
}

// VaccineInfo is a calendar entry describing a vaccine and how often it repeats.
type VaccineInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Frequency   string `json:"frequency"`
	AgeGroup    string `json:"ageGroup,omitempty"`
	Description string `json:"description,omitempty"`
}

// VaccineRecord is the user's record for one calendar vaccine. Records are
// stored keyed by VaccineID.
type VaccineRecord struct {
	VaccineID     string        `json:"vaccineId"`
	Status        VaccineStatus `json:"status"`
	AppliedDate   string        `json:"appliedDate,omitempty"`
	ScheduledDate string        `json:"scheduledDate,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}
