package application

import (
	"context"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/domain"
)

// MedicationRepository persists medications.
type MedicationRepository interface {
	Medications(ctx context.Context) []domain.Medication
	Medication(ctx context.Context, id string) (domain.Medication, error)
	SaveMedication(ctx context.Context, med domain.Medication) error
	DeleteMedication(ctx context.Context, id string) error
}

// VisitRepository persists doctor visits.
type VisitRepository interface {
	Visits(ctx context.Context) []domain.DoctorVisit
	Visit(ctx context.Context, id string) (domain.DoctorVisit, error)
	SaveVisit(ctx context.Context, visit domain.DoctorVisit) error
	DeleteVisit(ctx context.Context, id string) error
}

// VaccineRepository persists the vaccine calendar and the user's records.
type VaccineRepository interface {
	VaccineCalendar(ctx context.Context) []domain.VaccineInfo
	VaccineInfo(ctx context.Context, id string) (domain.VaccineInfo, bool)
	SaveVaccineCalendar(ctx context.Context, calendar []domain.VaccineInfo) error
	VaccineRecords(ctx context.Context) map[string]domain.VaccineRecord
	SaveVaccineRecord(ctx context.Context, record domain.VaccineRecord) error
	DeleteVaccineRecord(ctx context.Context, vaccineID string) error
}

// DoseRecorder writes dose confirmations.
type DoseRecorder interface {
	Record(ctx context.Context, entry domain.DoseLogEntry) (domain.DoseLogEntry, error)
}

// MedicationAlarms schedules and cancels medication alarms.
type MedicationAlarms interface {
	ScheduleMedicationAlarms(ctx context.Context, med domain.Medication) (alarm.Result, error)
	CancelMedicationAlarms(ctx context.Context, medicationID string) (alarm.CancelResult, error)
}

// VisitAlarms schedules and cancels visit reminders.
type VisitAlarms interface {
	ScheduleVisitAlarms(ctx context.Context, visit domain.DoctorVisit) (alarm.Result, error)
	CancelVisitAlarms(ctx context.Context, visitID string) (alarm.CancelResult, error)
}

// VaccineAlarms schedules and cancels vaccine reminders.
type VaccineAlarms interface {
	ScheduleVaccineAlarms(ctx context.Context, record domain.VaccineRecord, info domain.VaccineInfo) (alarm.Result, error)
	CancelVaccineAlarms(ctx context.Context, vaccineID string) (alarm.CancelResult, error)
}
