package testfixtures

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/example/care-alarms/internal/domain"
)

// Location is the wall-clock zone used by fixtures (UTC-3, no DST).
var Location = time.FixedZone("BRT", -3*60*60)

// referenceTime is a Wednesday morning.
var referenceTime = time.Date(2024, time.March, 6, 10, 30, 0, 0, Location)

// ReferenceTime returns the canonical "now" of fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	medicationCounter uint64
	visitCounter      uint64
)

// MedicationOption configures a medication fixture.
type MedicationOption func(*domain.Medication)

// NewMedication returns an active every-day medication taken at 08:00 and 20:00.
func NewMedication(opts ...MedicationOption) domain.Medication {
	idx := atomic.AddUint64(&medicationCounter, 1)
	med := domain.Medication{
		ID:        fmt.Sprintf("med-%03d", idx),
		Name:      "Losartana",
		Dosage:    "50mg",
		Schedules: []string{"08:00", "20:00"},
		Active:    true,
		Weekdays:  []int{0, 1, 2, 3, 4, 5, 6},
	}
	for _, opt := range opts {
		opt(&med)
	}
	return med
}

// WithMedicationID overrides the generated identifier.
func WithMedicationID(id string) MedicationOption {
	return func(m *domain.Medication) { m.ID = id }
}

// WithSchedules overrides the intake times.
func WithSchedules(times ...string) MedicationOption {
	return func(m *domain.Medication) { m.Schedules = times }
}

// WithWeekdays restricts the medication to the given days (0=Sunday).
func WithWeekdays(days ...int) MedicationOption {
	return func(m *domain.Medication) { m.Weekdays = days }
}

// WithFasting marks the medication as taken fasting.
func WithFasting() MedicationOption {
	return func(m *domain.Medication) { m.Fasting = true }
}

// Inactive marks the medication as inactive.
func Inactive() MedicationOption {
	return func(m *domain.Medication) { m.Active = false }
}

// VisitOption configures a visit fixture.
type VisitOption func(*domain.DoctorVisit)

// NewVisit returns a cardiology visit three days after ReferenceTime at
// 14:00 with a one-day lead reminder.
func NewVisit(opts ...VisitOption) domain.DoctorVisit {
	idx := atomic.AddUint64(&visitCounter, 1)
	visit := domain.DoctorVisit{
		ID:             fmt.Sprintf("visit-%03d", idx),
		DoctorName:     "Dra. Ana Souza",
		Specialty:      "Cardiologia",
		DateTime:       time.Date(2024, time.March, 9, 14, 0, 0, 0, Location),
		ReminderBefore: domain.LeadOneDay,
	}
	for _, opt := range opts {
		opt(&visit)
	}
	return visit
}

// WithVisitID overrides the generated identifier.
func WithVisitID(id string) VisitOption {
	return func(v *domain.DoctorVisit) { v.ID = id }
}

// WithVisitAt sets the visit instant.
func WithVisitAt(at time.Time) VisitOption {
	return func(v *domain.DoctorVisit) { v.DateTime = at }
}

// WithLead sets the reminder lead time.
func WithLead(lead domain.ReminderLead) VisitOption {
	return func(v *domain.DoctorVisit) { v.ReminderBefore = lead }
}

// NewVaccineInfo returns a calendar entry with the given frequency.
func NewVaccineInfo(id, frequency string) domain.VaccineInfo {
	return domain.VaccineInfo{ID: id, Name: "Vacina " + id, Frequency: frequency}
}

// NewAppliedVaccine returns an applied record for vaccineID on appliedDate.
func NewAppliedVaccine(vaccineID, appliedDate string) domain.VaccineRecord {
	return domain.VaccineRecord{VaccineID: vaccineID, Status: domain.VaccineApplied, AppliedDate: appliedDate}
}
