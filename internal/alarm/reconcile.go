package alarm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/care-alarms/internal/registry"
)

// RescheduleAll re-derives every entity's notifications from the stored
// collections: active medications, future visits and applied vaccines with
// a calendar frequency. Inactive medications and past visits have their
// notifications cancelled. It never fails; problems are reported per entity.
func (s *Service) RescheduleAll(ctx context.Context) (report Report) {
	report.StartedAt = s.now()
	defer func() {
		report.FinishedAt = s.now()
	}()

	s.log.Info(ctx, "Reagendando todos os alarmes")
	s.gate.Invalidate()
	if permission := s.gate.Ensure(ctx); !permission.Granted {
		s.log.Warning(ctx, "Reagendamento cancelado: permissão negada (%s)", permission.Error)
		s.logger.WarnContext(ctx, "reconciliation skipped", slog.String("reason", permission.Error))
		return report
	}
	report.PermissionGranted = true

	for _, med := range s.catalog.Medications(ctx) {
		key := registry.MedicationKey(med.ID)
		if !med.Active {
			s.reconcile(ctx, &report, key, func() (Result, error) {
				cancelled, err := s.CancelMedicationAlarms(ctx, med.ID)
				report.Cancelled += cancelled.Cancelled
				return Result{}, err
			})
			continue
		}
		if s.reconcile(ctx, &report, key, func() (Result, error) { return s.ScheduleMedicationAlarms(ctx, med) }) {
			report.Medications++
		}
	}

	now := s.currentTime()
	for _, visit := range s.catalog.Visits(ctx) {
		key := registry.VisitKey(visit.ID)
		if !visit.DateTime.After(now) {
			s.reconcile(ctx, &report, key, func() (Result, error) {
				cancelled, err := s.CancelVisitAlarms(ctx, visit.ID)
				report.Cancelled += cancelled.Cancelled
				return Result{}, err
			})
			continue
		}
		if s.reconcile(ctx, &report, key, func() (Result, error) { return s.ScheduleVisitAlarms(ctx, visit) }) {
			report.Visits++
		}
	}

	for vaccineID, record := range s.catalog.VaccineRecords(ctx) {
		if record.VaccineID == "" {
			record.VaccineID = vaccineID
		}
		info, ok := s.catalog.VaccineInfo(ctx, vaccineID)
		if !ok || info.Frequency == "" {
			continue
		}
		scheduled := 0
		ok = s.reconcile(ctx, &report, registry.VaccineKey(vaccineID), func() (Result, error) {
			result, err := s.ScheduleVaccineAlarms(ctx, record, info)
			scheduled = len(result.References)
			return result, err
		})
		if ok && scheduled > 0 {
			report.Vaccines++
		}
	}

	s.log.Success(ctx, "Reagendamento concluído: %d medicamentos, %d consultas, %d vacinas, %d falhas",
		report.Medications, report.Visits, report.Vaccines, len(report.Failures))
	s.logger.InfoContext(ctx, "reconciliation finished",
		slog.Int("medications", report.Medications),
		slog.Int("visits", report.Visits),
		slog.Int("vaccines", report.Vaccines),
		slog.Int("notifications", report.Notifications),
		slog.Int("failures", len(report.Failures)))
	return report
}

// reconcile runs one entity, recording errors and recovering panics so the
// remaining entities are still processed. It reports whether fn succeeded.
func (s *Service) reconcile(ctx context.Context, report *Report, entityKey string, fn func() (Result, error)) (ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.fail(ctx, report, entityKey, fmt.Errorf("panic: %v", recovered))
			ok = false
		}
	}()

	result, err := fn()
	report.Notifications += len(result.References)
	for _, failure := range result.Failures {
		report.Failures = append(report.Failures, EntityFailure{EntityKey: failure.Identifier, Error: failure.Error})
	}
	if err != nil {
		s.fail(ctx, report, entityKey, err)
		return false
	}
	return true
}

func (s *Service) fail(ctx context.Context, report *Report, entityKey string, err error) {
	report.Failures = append(report.Failures, EntityFailure{EntityKey: entityKey, Error: err.Error()})
	s.log.Error(ctx, "Erro ao reagendar %s: %v", entityKey, err)
}
