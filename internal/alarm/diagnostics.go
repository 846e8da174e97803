package alarm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/care-alarms/internal/notifier"
)

// SendTestNotification schedules a one-shot "test-{uuid}" notification
// seconds from now and waits until the scheduler lists it.
func (s *Service) SendTestNotification(ctx context.Context, seconds int64) (TestResult, error) {
	const op = "test notification"
	if seconds < 1 {
		return TestResult{}, newError(op, "", KindInvalidInput, fmt.Errorf("seconds must be positive, got %d", seconds))
	}
	if err := s.requirePermission(ctx, op, ""); err != nil {
		return TestResult{}, err
	}

	identifier := "test-" + s.newID()
	fireAt := s.now().Add(time.Duration(seconds) * time.Second)
	s.log.Info(ctx, "Agendando notificação de teste em %d segundos", seconds)

	ref, err := s.notifier.Schedule(ctx, identifier, testContent(seconds), notifier.AfterSeconds(seconds))
	if err != nil {
		s.log.Error(ctx, "Erro ao agendar teste: %v", err)
		return TestResult{}, newError(op, identifier, KindScheduler, err)
	}
	result := TestResult{Identifier: identifier, Reference: ref, FireAt: fireAt}

	if err := s.awaitListed(ctx, identifier); err != nil {
		s.log.Error(ctx, "Notificação de teste %s não confirmada: %v", identifier, err)
		return result, newError(op, identifier, KindScheduler, err)
	}
	s.log.Success(ctx, "Notificação de teste confirmada: %s", identifier)
	return result, nil
}

func (s *Service) awaitListed(ctx context.Context, identifier string) error {
	ctx, cancel := context.WithTimeout(ctx, s.testTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		scheduled, err := s.notifier.ListScheduled(ctx)
		if err != nil {
			lastErr = err
		}
		for _, item := range scheduled {
			if item.Identifier == identifier {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return errors.Join(ErrNotConfirmed, lastErr)
			}
			return ErrNotConfirmed
		case <-ticker.C:
		}
	}
}

// ListScheduled returns every pending notification.
func (s *Service) ListScheduled(ctx context.Context) ([]notifier.Scheduled, error) {
	scheduled, err := s.notifier.ListScheduled(ctx)
	if err != nil {
		return nil, newError("list scheduled", "", KindScheduler, err)
	}
	s.log.Info(ctx, "%d notificações agendadas", len(scheduled))
	return scheduled, nil
}
