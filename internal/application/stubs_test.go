package application

import (
	"context"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/catalog"
	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/persistence/memory"
	"github.com/example/care-alarms/internal/testfixtures"
)

type alarmsStub struct {
	scheduledMeds     []domain.Medication
	scheduledVisits   []domain.DoctorVisit
	scheduledVaccines []domain.VaccineRecord
	cancelled         []string
	scheduleErr       error
	cancelErr         error
}

func (a *alarmsStub) result(key string) alarm.Result {
	return alarm.Result{EntityKey: key, References: []notifier.Reference{notifier.Reference("ref:" + key)}}
}

func (a *alarmsStub) ScheduleMedicationAlarms(_ context.Context, med domain.Medication) (alarm.Result, error) {
	if a.scheduleErr != nil {
		return alarm.Result{EntityKey: med.ID}, a.scheduleErr
	}
	a.scheduledMeds = append(a.scheduledMeds, med)
	return a.result(med.ID), nil
}

func (a *alarmsStub) CancelMedicationAlarms(_ context.Context, id string) (alarm.CancelResult, error) {
	a.cancelled = append(a.cancelled, id)
	return alarm.CancelResult{EntityKey: id}, a.cancelErr
}

func (a *alarmsStub) ScheduleVisitAlarms(_ context.Context, visit domain.DoctorVisit) (alarm.Result, error) {
	if a.scheduleErr != nil {
		return alarm.Result{}, a.scheduleErr
	}
	a.scheduledVisits = append(a.scheduledVisits, visit)
	return a.result("visit-" + visit.ID), nil
}

func (a *alarmsStub) CancelVisitAlarms(_ context.Context, id string) (alarm.CancelResult, error) {
	a.cancelled = append(a.cancelled, "visit-"+id)
	return alarm.CancelResult{EntityKey: "visit-" + id}, a.cancelErr
}

func (a *alarmsStub) ScheduleVaccineAlarms(_ context.Context, record domain.VaccineRecord, _ domain.VaccineInfo) (alarm.Result, error) {
	if a.scheduleErr != nil {
		return alarm.Result{}, a.scheduleErr
	}
	a.scheduledVaccines = append(a.scheduledVaccines, record)
	return a.result("vaccine-" + record.VaccineID), nil
}

func (a *alarmsStub) CancelVaccineAlarms(_ context.Context, id string) (alarm.CancelResult, error) {
	a.cancelled = append(a.cancelled, "vaccine-"+id)
	return alarm.CancelResult{EntityKey: "vaccine-" + id}, a.cancelErr
}

type doseStub struct {
	entries []domain.DoseLogEntry
}

func (d *doseStub) Record(_ context.Context, entry domain.DoseLogEntry) (domain.DoseLogEntry, error) {
	if entry.Date == "" {
		entry.Date = "2024-03-06"
	}
	d.entries = append(d.entries, entry)
	return entry, nil
}

func newCatalog() (*catalog.Repository, *memory.Storage) {
	store := memory.New()
	return catalog.New(store, testfixtures.DiscardLogger()), store
}

func deniedErr() error {
	return &alarm.SchedulingError{Op: "schedule", Kind: alarm.KindPermissionDenied, Err: alarm.ErrPermissionDenied}
}

func boolPtr(v bool) *bool { return &v }
