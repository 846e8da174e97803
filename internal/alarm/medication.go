package alarm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/recurrence"
	"github.com/example/care-alarms/internal/registry"
)

// ScheduleMedicationAlarms replaces the medication's notifications with one
// recurring notification per schedule time, or per schedule time and weekday
// when the medication does not apply every day. Slots already taken today
// are skipped. Per-slot failures are collected in the result; permission
// denial and registry failures are returned as a *SchedulingError.
func (s *Service) ScheduleMedicationAlarms(ctx context.Context, med domain.Medication) (Result, error) {
	const op = "schedule medication"
	result := Result{EntityKey: registry.MedicationKey(med.ID)}
	if strings.TrimSpace(med.ID) == "" {
		return result, newError(op, "", KindInvalidInput, errors.New("medication id is required"))
	}

	everyDay := recurrence.IsEveryDay(med.Weekdays)
	var days []int
	if !everyDay {
		normalized, err := recurrence.NormalizeWeekdays(med.Weekdays)
		if err != nil {
			return result, newError(op, result.EntityKey, KindInvalidInput, err)
		}
		days = normalized
	}

	s.log.Info(ctx, "Agendando alarmes para %s (%d horários)", med.Name, len(med.Schedules))
	if err := s.requirePermission(ctx, op, result.EntityKey); err != nil {
		return result, err
	}
	s.replace(ctx, &result)

	now := s.currentTime()
	seen := make(map[string]bool, len(med.Schedules))
	for _, scheduleTime := range med.Schedules {
		clock, err := recurrence.ParseClock(scheduleTime)
		if err != nil {
			s.log.Error(ctx, "Horário inválido %q em %s", scheduleTime, med.Name)
			result.Failures = append(result.Failures, Failure{
				Identifier: registry.MedicationDaily(med.ID, scheduleTime),
				Error:      err.Error(),
			})
			continue
		}
		slot := clock.String()
		if seen[slot] {
			continue
		}
		seen[slot] = true

		if s.doses.AlreadyTaken(ctx, med.ID, slot) {
			s.log.Info(ctx, "%s às %s já foi tomado hoje, pulando", med.Name, slot)
			result.Skipped = append(result.Skipped, Skip{
				Identifier: registry.MedicationDaily(med.ID, slot),
				Reason:     ReasonTakenToday,
			})
			continue
		}

		content := medicationContent(med, slot)
		if everyDay {
			rule := s.engine.Daily(clock, now)
			if rule.FiresToday {
				s.log.Info(ctx, "%s às %s: primeiro alarme hoje", med.Name, slot)
			} else {
				s.log.Warning(ctx, "%s às %s: horário já passou hoje, primeiro alarme amanhã (%s)",
					med.Name, slot, rule.FirstFire.Format("02/01"))
			}
			identifier := registry.MedicationDaily(med.ID, slot)
			if s.schedule(ctx, &result, identifier, content, notifier.Daily(clock.Hour, clock.Minute)) {
				s.log.Success(ctx, "Alarme diário agendado: %s", identifier)
			}
			continue
		}

		rules, err := s.engine.Weekly(clock, days, now)
		if err != nil {
			return result, newError(op, result.EntityKey, KindInvalidInput, err)
		}
		for _, rule := range rules {
			identifier := registry.MedicationWeekly(med.ID, slot, rule.Weekday)
			trigger := notifier.Weekly(rule.Weekday, clock.Hour, clock.Minute)
			if s.schedule(ctx, &result, identifier, content, trigger) {
				s.log.Success(ctx, "Alarme semanal agendado: %s (primeiro em %s)",
					identifier, rule.FirstFire.Format("02/01 15:04"))
			}
		}
	}

	if err := s.save(ctx, op, result); err != nil {
		return result, err
	}
	s.log.Success(ctx, "%s: %d alarmes agendados, %d falhas, %d pulados",
		med.Name, len(result.References), len(result.Failures), len(result.Skipped))
	return result, nil
}

// CancelMedicationAlarms cancels every notification of a medication.
func (s *Service) CancelMedicationAlarms(ctx context.Context, medicationID string) (CancelResult, error) {
	return s.cancel(ctx, "cancel medication", registry.MedicationKey(medicationID))
}

// Preview lists the next limit fire instants of each slot of a stored
// medication.
func (s *Service) Preview(ctx context.Context, medicationID string, limit int) ([]SlotPreview, error) {
	med, err := s.catalog.Medication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	rule := recurrence.Rule{Frequency: recurrence.FrequencyDaily}
	var days []int
	if !recurrence.IsEveryDay(med.Weekdays) {
		days, err = recurrence.NormalizeWeekdays(med.Weekdays)
		if err != nil {
			return nil, newError("preview", medicationID, KindInvalidInput, err)
		}
		rule = recurrence.Rule{Frequency: recurrence.FrequencyWeekly, Weekdays: days}
	}

	now := s.currentTime()
	previews := make([]SlotPreview, 0, len(med.Schedules))
	for _, scheduleTime := range med.Schedules {
		clock, err := recurrence.ParseClock(scheduleTime)
		if err != nil {
			return nil, newError("preview", medicationID, KindInvalidInput, fmt.Errorf("%q: %w", scheduleTime, err))
		}
		rule.Clock = clock
		fires, err := s.engine.Upcoming(rule, now, limit)
		if err != nil {
			return nil, newError("preview", medicationID, KindInvalidInput, err)
		}
		previews = append(previews, SlotPreview{
			ScheduleTime: clock.String(),
			Weekdays:     days,
			TakenToday:   s.doses.AlreadyTaken(ctx, med.ID, clock.String()),
			Fires:        fires,
		})
	}
	return previews, nil
}
