package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/domain"
)

// VisitInput carries the user-editable fields of a doctor visit.
type VisitInput struct {
	DoctorName string    `json:"doctorName"`
	Specialty  string    `json:"specialty"`
	DateTime   time.Time `json:"dateTime"`
	// ReminderBefore defaults to one day.
	ReminderBefore domain.ReminderLead `json:"reminderBefore"`
	Location       string              `json:"location"`
	Notes          string              `json:"notes"`
}

// VisitService validates and persists doctor visits and their reminders.
type VisitService struct {
	visits      VisitRepository
	alarms      VisitAlarms
	idGenerator func() string
	logger      *slog.Logger
}

// NewVisitService wires dependencies for visit operations.
func NewVisitService(visits VisitRepository, alarms VisitAlarms, idGenerator func() string, logger *slog.Logger) *VisitService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &VisitService{
		visits:      visits,
		alarms:      alarms,
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

// List returns every visit ordered by date.
func (s *VisitService) List(ctx context.Context) []domain.DoctorVisit {
	visits := s.visits.Visits(ctx)
	if visits == nil {
		return []domain.DoctorVisit{}
	}
	return visits
}

// Get returns one visit.
func (s *VisitService) Get(ctx context.Context, id string) (domain.DoctorVisit, error) {
	visit, err := s.visits.Visit(ctx, id)
	if err != nil {
		return domain.DoctorVisit{}, notFound(err)
	}
	return visit, nil
}

// Create stores a visit and schedules its reminders.
func (s *VisitService) Create(ctx context.Context, input VisitInput) (domain.DoctorVisit, alarm.Result, error) {
	logger := serviceLogger(ctx, s.logger, "VisitService", "Create")

	visit := domain.DoctorVisit{ID: s.idGenerator()}
	if err := applyVisitInput(&visit, input); err != nil {
		logger.WarnContext(ctx, "visit rejected", "error_kind", ErrorKind(err))
		return domain.DoctorVisit{}, alarm.Result{}, err
	}
	return s.save(ctx, logger, visit)
}

// Update replaces a visit and reschedules its reminders.
func (s *VisitService) Update(ctx context.Context, id string, input VisitInput) (domain.DoctorVisit, alarm.Result, error) {
	logger := serviceLogger(ctx, s.logger, "VisitService", "Update", "visit_id", id)

	visit, err := s.Get(ctx, id)
	if err != nil {
		return domain.DoctorVisit{}, alarm.Result{}, err
	}
	if err := applyVisitInput(&visit, input); err != nil {
		logger.WarnContext(ctx, "visit rejected", "error_kind", ErrorKind(err))
		return domain.DoctorVisit{}, alarm.Result{}, err
	}
	return s.save(ctx, logger, visit)
}

// Delete cancels a visit's reminders and removes it.
func (s *VisitService) Delete(ctx context.Context, id string) error {
	logger := serviceLogger(ctx, s.logger, "VisitService", "Delete", "visit_id", id)

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.alarms.CancelVisitAlarms(ctx, id); err != nil {
		logger.WarnContext(ctx, "cancel reminders", "error", err)
	}
	if err := s.visits.DeleteVisit(ctx, id); err != nil {
		return notFound(err)
	}
	logger.InfoContext(ctx, "visit deleted")
	return nil
}

func (s *VisitService) save(ctx context.Context, logger *slog.Logger, visit domain.DoctorVisit) (domain.DoctorVisit, alarm.Result, error) {
	if err := s.visits.SaveVisit(ctx, visit); err != nil {
		logger.ErrorContext(ctx, "save visit", "error", err)
		return domain.DoctorVisit{}, alarm.Result{}, err
	}
	result, err := s.alarms.ScheduleVisitAlarms(ctx, visit)
	if err != nil {
		err = alarmError(err)
		logger.WarnContext(ctx, "schedule reminders", "error", err, "error_kind", ErrorKind(err))
		return visit, result, err
	}
	logger.InfoContext(ctx, "visit saved", "visit_id", visit.ID, "reminders", len(result.References))
	return visit, result, nil
}

func applyVisitInput(visit *domain.DoctorVisit, input VisitInput) error {
	vErr := &ValidationError{}

	doctor := strings.TrimSpace(input.DoctorName)
	if doctor == "" {
		vErr.add("doctorName", "is required")
	}
	if input.DateTime.IsZero() {
		vErr.add("dateTime", "is required")
	}
	lead := input.ReminderBefore
	if lead == "" {
		lead = domain.LeadOneDay
	}
	if _, ok := lead.Duration(); !ok {
		vErr.add("reminderBefore", "must be one of "+leadChoices())
	}
	if vErr.HasErrors() {
		return vErr
	}

	visit.DoctorName = doctor
	visit.Specialty = strings.TrimSpace(input.Specialty)
	visit.DateTime = input.DateTime
	visit.ReminderBefore = lead
	visit.Location = input.Location
	visit.Notes = input.Notes
	return nil
}

func leadChoices() string {
	leads := domain.ReminderLeads()
	names := make([]string, len(leads))
	for i, lead := range leads {
		names[i] = string(lead)
	}
	return strings.Join(names, ", ")
}
