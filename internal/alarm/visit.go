package alarm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/recurrence"
	"github.com/example/care-alarms/internal/registry"
)

var eveningReminder = recurrence.MustParseClock("18:00")

type reminder struct {
	kind string
	at   time.Time
}

// visitReminders returns the evening-before and lead reminders of visit
// that are still in the future, plus the reminders that were dropped.
func (s *Service) visitReminders(visit domain.DoctorVisit, now time.Time) ([]reminder, []Skip) {
	var (
		reminders []reminder
		skipped   []Skip
	)
	candidates := []reminder{{kind: "evening", at: s.engine.At(visit.DateTime.AddDate(0, 0, -1), eveningReminder)}}
	if lead, ok := visit.ReminderBefore.Duration(); ok {
		candidates = append(candidates, reminder{kind: "lead", at: visit.DateTime.Add(-lead)})
	} else {
		skipped = append(skipped, Skip{Identifier: registry.VisitKey(visit.ID), Reason: ReasonNoLead})
	}

	for _, candidate := range candidates {
		identifier := registry.VisitReminder(visit.ID, candidate.at)
		if !candidate.at.After(now) {
			skipped = append(skipped, Skip{Identifier: identifier, Reason: ReasonInPast})
			continue
		}
		duplicate := false
		for _, existing := range reminders {
			if existing.at.Equal(candidate.at) {
				duplicate = true
			}
		}
		if !duplicate {
			reminders = append(reminders, candidate)
		}
	}
	return reminders, skipped
}

// ScheduleVisitAlarms replaces the visit's reminders with one-shot
// notifications at 18:00 the evening before and at the visit time minus the
// reminder lead. Instants that already passed are dropped.
func (s *Service) ScheduleVisitAlarms(ctx context.Context, visit domain.DoctorVisit) (Result, error) {
	const op = "schedule visit"
	result := Result{EntityKey: registry.VisitKey(visit.ID)}
	if strings.TrimSpace(visit.ID) == "" || visit.DateTime.IsZero() {
		return result, newError(op, "", KindInvalidInput, errors.New("visit id and date are required"))
	}

	s.log.Info(ctx, "Agendando lembretes da consulta com %s", visit.DoctorName)
	if err := s.requirePermission(ctx, op, result.EntityKey); err != nil {
		return result, err
	}
	s.replace(ctx, &result)

	now := s.currentTime()
	reminders, skipped := s.visitReminders(visit, now)
	result.Skipped = skipped
	for _, skip := range skipped {
		if skip.Reason == ReasonNoLead {
			s.log.Warning(ctx, "Antecedência desconhecida %q para a consulta %s", visit.ReminderBefore, visit.ID)
		}
	}

	for _, item := range reminders {
		identifier := registry.VisitReminder(visit.ID, item.at)
		seconds := int64(item.at.Sub(now) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		if s.schedule(ctx, &result, identifier, visitContent(visit, item.kind, s.engine.Location()), notifier.AfterSeconds(seconds)) {
			s.log.Success(ctx, "Lembrete de consulta agendado para %s", item.at.Format("02/01 15:04"))
		}
	}
	if len(reminders) == 0 {
		s.log.Info(ctx, "Nenhum lembrete futuro para a consulta %s", visit.ID)
	}

	if err := s.save(ctx, op, result); err != nil {
		return result, err
	}
	return result, nil
}

// CancelVisitAlarms cancels every reminder of a visit.
func (s *Service) CancelVisitAlarms(ctx context.Context, visitID string) (CancelResult, error) {
	return s.cancel(ctx, "cancel visit", registry.VisitKey(visitID))
}
