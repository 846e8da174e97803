package registry

import (
	"fmt"
	"time"
)

// Notification identifiers are derived from the entity and the slot they
// cover. Scheduling the same slot twice yields the same identifier, so the
// scheduler replaces the earlier notification instead of duplicating it.

// MedicationKey is the registry key of a medication.
func MedicationKey(medicationID string) string {
	return medicationID
}

// VisitKey is the registry key of a doctor visit.
func VisitKey(visitID string) string {
	return "visit-" + visitID
}

// VaccineKey is the registry key of a vaccine.
func VaccineKey(vaccineID string) string {
	return "vaccine-" + vaccineID
}

// MedicationDaily identifies the every-day notification of a dose slot.
func MedicationDaily(medicationID, scheduleTime string) string {
	return medicationID + "-" + scheduleTime
}

// MedicationWeekly identifies the notification of a dose slot on one
// weekday, given in the scheduler convention 1=Monday..7=Sunday.
func MedicationWeekly(medicationID, scheduleTime string, weekday int) string {
	return fmt.Sprintf("%s-%s-%d", medicationID, scheduleTime, weekday)
}

// VisitReminder identifies a visit reminder firing at the given instant.
func VisitReminder(visitID string, at time.Time) string {
	return fmt.Sprintf("visit-%s-%d", visitID, at.UnixMilli())
}

// VaccineWeekBefore identifies the reminder seven days before a due date.
func VaccineWeekBefore(vaccineID string) string {
	return "vaccine-" + vaccineID + "-7days"
}

// VaccineDueDay identifies the reminder on the due date.
func VaccineDueDay(vaccineID string) string {
	return "vaccine-" + vaccineID + "-day"
}
