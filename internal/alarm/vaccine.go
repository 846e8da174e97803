package alarm

import (
	"context"
	"errors"
	"time"

	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/recurrence"
	"github.com/example/care-alarms/internal/registry"
)

var vaccineReminderClock = recurrence.MustParseClock("09:00")

// ScheduleVaccineAlarms replaces the vaccine's reminders with one-shot
// notifications at 09:00 seven days before and on the next due date. Nothing
// is scheduled unless the record is applied with a date and info carries a
// recognised frequency; in that case stale reminders are still cancelled.
func (s *Service) ScheduleVaccineAlarms(ctx context.Context, record domain.VaccineRecord, info domain.VaccineInfo) (Result, error) {
	const op = "schedule vaccine"
	vaccineID := info.ID
	if vaccineID == "" {
		vaccineID = record.VaccineID
	}
	result := Result{EntityKey: registry.VaccineKey(vaccineID)}
	if vaccineID == "" {
		return result, newError(op, "", KindInvalidInput, errors.New("vaccine id is required"))
	}

	if record.Status != domain.VaccineApplied || record.AppliedDate == "" {
		result.Skipped = append(result.Skipped, Skip{Identifier: result.EntityKey, Reason: ReasonNotApplied})
		return s.clearStale(ctx, op, result)
	}
	due, ok := s.engine.NextVaccineDate(info.Frequency, record.AppliedDate)
	if !ok {
		s.log.Info(ctx, "Frequência %q da vacina %s não reconhecida", info.Frequency, info.Name)
		result.Skipped = append(result.Skipped, Skip{Identifier: result.EntityKey, Reason: ReasonNoDueDate})
		return s.clearStale(ctx, op, result)
	}

	now := s.currentTime()
	dueAt := s.engine.At(due, vaccineReminderClock)
	if !dueAt.After(now) {
		s.log.Warning(ctx, "Próxima dose de %s (%s) já passou", info.Name, due.Format("02/01/2006"))
		result.Skipped = append(result.Skipped, Skip{Identifier: registry.VaccineDueDay(vaccineID), Reason: ReasonInPast})
		return s.clearStale(ctx, op, result)
	}

	s.log.Info(ctx, "Agendando lembretes da vacina %s (próxima dose %s)", info.Name, due.Format("02/01/2006"))
	if err := s.requirePermission(ctx, op, result.EntityKey); err != nil {
		return result, err
	}
	s.replace(ctx, &result)

	if info.ID == "" {
		info.ID = vaccineID
	}
	reminders := []struct {
		identifier string
		kind       string
		at         time.Time
	}{
		{registry.VaccineWeekBefore(vaccineID), "7days", s.engine.At(due.AddDate(0, 0, -7), vaccineReminderClock)},
		{registry.VaccineDueDay(vaccineID), "day", dueAt},
	}
	for _, item := range reminders {
		if !item.at.After(now) {
			result.Skipped = append(result.Skipped, Skip{Identifier: item.identifier, Reason: ReasonInPast})
			continue
		}
		if s.schedule(ctx, &result, item.identifier, vaccineContent(info, due, item.kind), notifier.AtDate(item.at)) {
			s.log.Success(ctx, "Lembrete de vacina agendado: %s", item.identifier)
		}
	}

	if err := s.save(ctx, op, result); err != nil {
		return result, err
	}
	return result, nil
}

// CancelVaccineAlarms cancels every reminder of a vaccine.
func (s *Service) CancelVaccineAlarms(ctx context.Context, vaccineID string) (CancelResult, error) {
	return s.cancel(ctx, "cancel vaccine", registry.VaccineKey(vaccineID))
}

func (s *Service) clearStale(ctx context.Context, op string, result Result) (Result, error) {
	cancelled, err := s.cancel(ctx, op, result.EntityKey)
	result.Replaced = cancelled.Cancelled
	return result, err
}
