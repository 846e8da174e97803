// Package alarm turns medications, doctor visits and vaccine records into
// scheduled notifications and keeps the registry of what was scheduled in
// step with them.
//
// Every orchestrator cancels the entity's previous notifications before
// scheduling the new set, so an edit is simply another Schedule call. Two
// concurrent calls for the same entity race and the last registry write wins.
package alarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/care-alarms/internal/debuglog"
	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/permission"
	"github.com/example/care-alarms/internal/recurrence"
	"github.com/example/care-alarms/internal/registry"
)

// PermissionGate grants or denies dispatch rights.
type PermissionGate interface {
	Ensure(ctx context.Context) permission.Result
	Invalidate()
}

// DoseChecker reports whether a dose slot was already taken today.
type DoseChecker interface {
	AlreadyTaken(ctx context.Context, medicationID, scheduleTime string) bool
}

// Catalog exposes the stored entities reconciliation walks over.
type Catalog interface {
	Medications(ctx context.Context) []domain.Medication
	Medication(ctx context.Context, id string) (domain.Medication, error)
	Visits(ctx context.Context) []domain.DoctorVisit
	VaccineRecords(ctx context.Context) map[string]domain.VaccineRecord
	VaccineInfo(ctx context.Context, id string) (domain.VaccineInfo, bool)
}

// Dependencies wires a Service.
type Dependencies struct {
	Notifier notifier.Scheduler
	Gate     PermissionGate
	Registry *registry.Registry
	Doses    DoseChecker
	Catalog  Catalog
	Engine   *recurrence.Engine
	DebugLog *debuglog.Sink
	Logger   *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
	// NewID generates test notification ids. Defaults to uuid.NewString.
	NewID func() string
	// TestTimeout bounds the wait for a test notification to be listed.
	TestTimeout time.Duration
	// PollInterval is how often the listing is checked while waiting.
	PollInterval time.Duration
}

// Service schedules, cancels and reconciles alarms.
type Service struct {
	notifier     notifier.Scheduler
	gate         PermissionGate
	registry     *registry.Registry
	doses        DoseChecker
	catalog      Catalog
	engine       *recurrence.Engine
	log          *debuglog.Sink
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
	testTimeout  time.Duration
	pollInterval time.Duration
}

// NewService validates deps and builds a Service.
func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Notifier == nil:
		return nil, errors.New("alarm: notifier is required")
	case deps.Gate == nil:
		return nil, errors.New("alarm: permission gate is required")
	case deps.Registry == nil:
		return nil, errors.New("alarm: registry is required")
	case deps.Doses == nil:
		return nil, errors.New("alarm: dose checker is required")
	case deps.Catalog == nil:
		return nil, errors.New("alarm: catalog is required")
	case deps.DebugLog == nil:
		return nil, errors.New("alarm: debug log is required")
	}

	s := &Service{
		notifier:     deps.Notifier,
		gate:         deps.Gate,
		registry:     deps.Registry,
		doses:        deps.Doses,
		catalog:      deps.Catalog,
		engine:       deps.Engine,
		log:          deps.DebugLog,
		logger:       deps.Logger,
		now:          deps.Now,
		newID:        deps.NewID,
		testTimeout:  deps.TestTimeout,
		pollInterval: deps.PollInterval,
	}
	if s.engine == nil {
		s.engine = recurrence.NewEngine(time.Local)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slog.String("component", "alarm"))
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.testTimeout <= 0 {
		s.testTimeout = 5 * time.Second
	}
	if s.pollInterval <= 0 {
		s.pollInterval = 100 * time.Millisecond
	}
	return s, nil
}

func (s *Service) currentTime() time.Time {
	return s.now().In(s.engine.Location())
}

func (s *Service) requirePermission(ctx context.Context, op, entityKey string) error {
	result := s.gate.Ensure(ctx)
	if result.Granted {
		return nil
	}
	s.log.Error(ctx, "Sem permissão para agendar %s: %s", entityKey, result.Error)
	return newError(op, entityKey, KindPermissionDenied, fmt.Errorf("%w: %s", ErrPermissionDenied, result.Error))
}

// schedule registers one notification, recording a failure instead of
// aborting the batch.
func (s *Service) schedule(ctx context.Context, result *Result, identifier string, content notifier.Content, trigger notifier.Trigger) bool {
	ref, err := s.notifier.Schedule(ctx, identifier, content, trigger)
	if err != nil {
		s.log.Error(ctx, "Erro ao agendar %s: %v", identifier, err)
		result.Failures = append(result.Failures, Failure{Identifier: identifier, Error: err.Error()})
		return false
	}
	result.References = append(result.References, ref)
	return true
}

// replace cancels whatever was registered for key before a new batch.
func (s *Service) replace(ctx context.Context, result *Result) {
	cancelled := s.cancelEntity(ctx, result.EntityKey)
	result.Replaced = cancelled.Cancelled
}

func (s *Service) save(ctx context.Context, op string, result Result) error {
	if err := s.registry.Save(ctx, result.EntityKey, result.References); err != nil {
		s.log.Error(ctx, "Erro ao salvar identificadores de %s: %v", result.EntityKey, err)
		return newError(op, result.EntityKey, KindStorage, err)
	}
	return nil
}
