package domain

import "time"

// ReminderLead is how long before a visit the lead reminder fires.
type ReminderLead string

const (
	LeadOneHour  ReminderLead = "1 hora"
	LeadTwoHours ReminderLead = "2 horas"
	LeadOneDay   ReminderLead = "1 dia"
	LeadTwoDays  ReminderLead = "2 dias"
)

// Duration returns the lead time and whether the value is known.
func (l ReminderLead) Duration() (time.Duration, bool) {
	switch l {
	case LeadOneHour:
		return time.Hour, true
	case LeadTwoHours:
		return 2 * time.Hour, true
	case LeadOneDay:
		return 24 * time.Hour, true
	case LeadTwoDays:
		return 48 * time.Hour, true
	default:
		return 0, false
	}
}

// ReminderLeads lists the accepted lead values.
func ReminderLeads() []ReminderLead {
	return []ReminderLead{LeadOneHour, LeadTwoHours, LeadOneDay, LeadTwoDays}
}

// DoctorVisit is a scheduled medical appointment.
type DoctorVisit struct {
	ID             string       `json:"id"`
	DoctorName     string       `json:"doctorName"`
	Specialty      string       `json:"specialty"`
	DateTime       time.Time    `json:"dateTime"`
	ReminderBefore ReminderLead `json:"reminderBefore"`
	Location       string       `json:"location,omitempty"`
	Notes          string       `json:"notes,omitempty"`
}
