// Package catalog reads and writes the stored collections of medications,
// doctor visits and vaccines.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/persistence"
)

const (
	MedicationsKey     = "medications"
	VisitsKey          = "doctor_visits"
	VaccineRecordsKey  = "vaccine_records"
	VaccineCalendarKey = "vaccine_calendar"
)

// ErrNotFound is returned when an entity is not in its collection.
var ErrNotFound = errors.New("catalog: not found")

// Repository stores each collection as one JSON document. Read failures are
// logged and yield an empty collection.
type Repository struct {
	store  persistence.Store
	logger *slog.Logger
}

// New creates a Repository.
func New(store persistence.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, logger: logger.With(slog.String("component", "catalog"))}
}

func (r *Repository) read(ctx context.Context, key string, dest any) {
	if _, err := persistence.GetJSON(ctx, r.store, key, dest); err != nil {
		r.logger.WarnContext(ctx, "read collection", slog.String("key", key), slog.Any("error", err))
	}
}

func (r *Repository) write(ctx context.Context, key string, value any) error {
	if err := persistence.SetJSON(ctx, r.store, key, value); err != nil {
		return fmt.Errorf("catalog: write %s: %w", key, err)
	}
	return nil
}

// Medications returns every stored medication.
func (r *Repository) Medications(ctx context.Context) []domain.Medication {
	var meds []domain.Medication
	r.read(ctx, MedicationsKey, &meds)
	return meds
}

// Medication returns the medication with id.
func (r *Repository) Medication(ctx context.Context, id string) (domain.Medication, error) {
	for _, med := range r.Medications(ctx) {
		if med.ID == id {
			return med, nil
		}
	}
	return domain.Medication{}, fmt.Errorf("%w: medication %s", ErrNotFound, id)
}

// SaveMedication inserts or replaces med.
func (r *Repository) SaveMedication(ctx context.Context, med domain.Medication) error {
	meds := r.Medications(ctx)
	for i := range meds {
		if meds[i].ID == med.ID {
			meds[i] = med
			return r.write(ctx, MedicationsKey, meds)
		}
	}
	return r.write(ctx, MedicationsKey, append(meds, med))
}

// DeleteMedication removes the medication with id.
func (r *Repository) DeleteMedication(ctx context.Context, id string) error {
	meds := r.Medications(ctx)
	for i := range meds {
		if meds[i].ID == id {
			return r.write(ctx, MedicationsKey, append(meds[:i], meds[i+1:]...))
		}
	}
	return fmt.Errorf("%w: medication %s", ErrNotFound, id)
}

// Visits returns every stored doctor visit ordered by date.
func (r *Repository) Visits(ctx context.Context) []domain.DoctorVisit {
	var visits []domain.DoctorVisit
	r.read(ctx, VisitsKey, &visits)
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].DateTime.Before(visits[j].DateTime)
	})
	return visits
}

// Visit returns the visit with id.
func (r *Repository) Visit(ctx context.Context, id string) (domain.DoctorVisit, error) {
	for _, visit := range r.Visits(ctx) {
		if visit.ID == id {
			return visit, nil
		}
	}
	return domain.DoctorVisit{}, fmt.Errorf("%w: visit %s", ErrNotFound, id)
}

// SaveVisit inserts or replaces visit.
func (r *Repository) SaveVisit(ctx context.Context, visit domain.DoctorVisit) error {
	visits := r.Visits(ctx)
	for i := range visits {
		if visits[i].ID == visit.ID {
			visits[i] = visit
			return r.write(ctx, VisitsKey, visits)
		}
	}
	return r.write(ctx, VisitsKey, append(visits, visit))
}

// DeleteVisit removes the visit with id.
func (r *Repository) DeleteVisit(ctx context.Context, id string) error {
	visits := r.Visits(ctx)
	for i := range visits {
		if visits[i].ID == id {
			return r.write(ctx, VisitsKey, append(visits[:i], visits[i+1:]...))
		}
	}
	return fmt.Errorf("%w: visit %s", ErrNotFound, id)
}

// VaccineRecords returns the user's vaccine records keyed by vaccine id.
func (r *Repository) VaccineRecords(ctx context.Context) map[string]domain.VaccineRecord {
	records := make(map[string]domain.VaccineRecord)
	r.read(ctx, VaccineRecordsKey, &records)
	if records == nil {
		records = make(map[string]domain.VaccineRecord)
	}
	return records
}

// SaveVaccineRecord inserts or replaces the record for record.VaccineID.
func (r *Repository) SaveVaccineRecord(ctx context.Context, record domain.VaccineRecord) error {
	records := r.VaccineRecords(ctx)
	records[record.VaccineID] = record
	return r.write(ctx, VaccineRecordsKey, records)
}

// DeleteVaccineRecord removes the record for vaccineID.
func (r *Repository) DeleteVaccineRecord(ctx context.Context, vaccineID string) error {
	records := r.VaccineRecords(ctx)
	if _, ok := records[vaccineID]; !ok {
		return fmt.Errorf("%w: vaccine record %s", ErrNotFound, vaccineID)
	}
	delete(records, vaccineID)
	return r.write(ctx, VaccineRecordsKey, records)
}

// VaccineCalendar returns the vaccine calendar.
func (r *Repository) VaccineCalendar(ctx context.Context) []domain.VaccineInfo {
	var calendar []domain.VaccineInfo
	r.read(ctx, VaccineCalendarKey, &calendar)
	return calendar
}

// VaccineInfo returns the calendar entry with id.
func (r *Repository) VaccineInfo(ctx context.Context, id string) (domain.VaccineInfo, bool) {
	for _, info := range r.VaccineCalendar(ctx) {
		if info.ID == id {
			return info, true
		}
	}
	return domain.VaccineInfo{}, false
}

// SaveVaccineCalendar replaces the vaccine calendar.
func (r *Repository) SaveVaccineCalendar(ctx context.Context, calendar []domain.VaccineInfo) error {
	if calendar == nil {
		calendar = []domain.VaccineInfo{}
	}
	return r.write(ctx, VaccineCalendarKey, calendar)
}
