package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/catalog"
	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/recurrence"
)

// MedicationInput carries the user-editable fields of a medication.
type MedicationInput struct {
	Name          string   `json:"name"`
	Dosage        string   `json:"dosage"`
	Schedules     []string `json:"schedules"`
	Weekdays      []int    `json:"weekdays"`
	Fasting       bool     `json:"fasting"`
	IntervalHours int      `json:"intervalHours"`
	StartTime     string   `json:"startTime"`
	Notes         string   `json:"notes"`
	// Active defaults to true on create and to the stored value on update.
	Active *bool `json:"active"`
}

// DoseInput confirms or reverts one dose.
type DoseInput struct {
	ScheduleTime string `json:"scheduleTime"`
	// Date defaults to today.
	Date  string `json:"date"`
	Taken bool   `json:"taken"`
}

// MedicationService validates and persists medications and keeps their
// alarms in step.
type MedicationService struct {
	medications MedicationRepository
	alarms      MedicationAlarms
	doses       DoseRecorder
	idGenerator func() string
	logger      *slog.Logger
}

// NewMedicationService wires dependencies for medication operations.
func NewMedicationService(medications MedicationRepository, alarms MedicationAlarms, doses DoseRecorder, idGenerator func() string, logger *slog.Logger) *MedicationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &MedicationService{
		medications: medications,
		alarms:      alarms,
		doses:       doses,
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

// List returns every medication.
func (s *MedicationService) List(ctx context.Context) []domain.Medication {
	meds := s.medications.Medications(ctx)
	if meds == nil {
		return []domain.Medication{}
	}
	return meds
}

// Get returns one medication.
func (s *MedicationService) Get(ctx context.Context, id string) (domain.Medication, error) {
	med, err := s.medications.Medication(ctx, id)
	if err != nil {
		return domain.Medication{}, notFound(err)
	}
	return med, nil
}

// Create validates input, stores the medication and schedules its alarms.
// When only the alarms fail, the stored medication is returned with the error.
func (s *MedicationService) Create(ctx context.Context, input MedicationInput) (domain.Medication, alarm.Result, error) {
	logger := serviceLogger(ctx, s.logger, "MedicationService", "Create")

	med := domain.Medication{ID: s.idGenerator(), Active: true}
	if err := applyMedicationInput(&med, input); err != nil {
		logger.WarnContext(ctx, "medication rejected", "error_kind", ErrorKind(err))
		return domain.Medication{}, alarm.Result{}, err
	}
	if err := s.medications.SaveMedication(ctx, med); err != nil {
		logger.ErrorContext(ctx, "save medication", "error", err)
		return domain.Medication{}, alarm.Result{}, err
	}
	logger.InfoContext(ctx, "medication created", "medication_id", med.ID)
	result, err := s.sync(ctx, logger, med)
	return med, result, err
}

// Update replaces the editable fields of a medication and reschedules it.
func (s *MedicationService) Update(ctx context.Context, id string, input MedicationInput) (domain.Medication, alarm.Result, error) {
	logger := serviceLogger(ctx, s.logger, "MedicationService", "Update", "medication_id", id)

	med, err := s.Get(ctx, id)
	if err != nil {
		return domain.Medication{}, alarm.Result{}, err
	}
	if err := applyMedicationInput(&med, input); err != nil {
		logger.WarnContext(ctx, "medication rejected", "error_kind", ErrorKind(err))
		return domain.Medication{}, alarm.Result{}, err
	}
	if err := s.medications.SaveMedication(ctx, med); err != nil {
		logger.ErrorContext(ctx, "save medication", "error", err)
		return domain.Medication{}, alarm.Result{}, err
	}
	result, err := s.sync(ctx, logger, med)
	return med, result, err
}

// SetActive toggles a medication and schedules or cancels its alarms.
func (s *MedicationService) SetActive(ctx context.Context, id string, active bool) (domain.Medication, alarm.Result, error) {
	logger := serviceLogger(ctx, s.logger, "MedicationService", "SetActive", "medication_id", id)

	med, err := s.Get(ctx, id)
	if err != nil {
		return domain.Medication{}, alarm.Result{}, err
	}
	med.Active = active
	if err := s.medications.SaveMedication(ctx, med); err != nil {
		logger.ErrorContext(ctx, "save medication", "error", err)
		return domain.Medication{}, alarm.Result{}, err
	}
	result, err := s.sync(ctx, logger, med)
	return med, result, err
}

// Delete cancels a medication's alarms and removes it.
func (s *MedicationService) Delete(ctx context.Context, id string) error {
	logger := serviceLogger(ctx, s.logger, "MedicationService", "Delete", "medication_id", id)

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.alarms.CancelMedicationAlarms(ctx, id); err != nil {
		logger.WarnContext(ctx, "cancel alarms", "error", err)
	}
	if err := s.medications.DeleteMedication(ctx, id); err != nil {
		return notFound(err)
	}
	logger.InfoContext(ctx, "medication deleted")
	return nil
}

// RecordDose marks a dose as taken or untaken. Alarms are not rescheduled:
// the taken check only applies to the next scheduling pass.
func (s *MedicationService) RecordDose(ctx context.Context, id string, input DoseInput) (domain.DoseLogEntry, error) {
	med, err := s.Get(ctx, id)
	if err != nil {
		return domain.DoseLogEntry{}, err
	}

	vErr := &ValidationError{}
	clock, err := recurrence.ParseClock(input.ScheduleTime)
	if err != nil {
		vErr.add("scheduleTime", "must be HH:MM")
	}
	if input.Date != "" {
		if _, err := time.Parse("2006-01-02", input.Date); err != nil {
			vErr.add("date", "must be YYYY-MM-DD")
		}
	}
	if vErr.HasErrors() {
		return domain.DoseLogEntry{}, vErr
	}

	status := domain.DoseUntaken
	if input.Taken {
		status = domain.DoseTaken
	}
	entry, err := s.doses.Record(ctx, domain.DoseLogEntry{
		MedicationID: med.ID,
		Date:         input.Date,
		ScheduleTime: clock.String(),
		Status:       status,
	})
	if err != nil {
		return domain.DoseLogEntry{}, err
	}
	serviceLogger(ctx, s.logger, "MedicationService", "RecordDose", "medication_id", id).
		InfoContext(ctx, "dose recorded", "schedule_time", entry.ScheduleTime, "status", string(entry.Status))
	return entry, nil
}

func (s *MedicationService) sync(ctx context.Context, logger *slog.Logger, med domain.Medication) (alarm.Result, error) {
	if !med.Active {
		if _, err := s.alarms.CancelMedicationAlarms(ctx, med.ID); err != nil {
			logger.WarnContext(ctx, "cancel alarms", "error", err)
			return alarm.Result{}, alarmError(err)
		}
		return alarm.Result{EntityKey: med.ID}, nil
	}
	result, err := s.alarms.ScheduleMedicationAlarms(ctx, med)
	if err != nil {
		err = alarmError(err)
		logger.WarnContext(ctx, "schedule alarms", "error", err, "error_kind", ErrorKind(err))
		return result, err
	}
	logger.InfoContext(ctx, "alarms scheduled", "references", len(result.References), "failures", len(result.Failures))
	return result, nil
}

func applyMedicationInput(med *domain.Medication, input MedicationInput) error {
	vErr := &ValidationError{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "is required")
	}

	var schedules []string
	if input.IntervalHours != 0 {
		if input.IntervalHours < 1 || input.IntervalHours > 24 {
			vErr.add("intervalHours", "must be between 1 and 24")
		} else if generated, err := recurrence.IntervalSchedule(input.StartTime, input.IntervalHours); err != nil {
			vErr.add("startTime", "must be HH:MM")
		} else {
			schedules = generated
		}
	} else {
		if len(input.Schedules) == 0 {
			vErr.add("schedules", "at least one time is required")
		}
		for _, value := range input.Schedules {
			clock, err := recurrence.ParseClock(value)
			if err != nil {
				vErr.add("schedules", fmt.Sprintf("%q must be HH:MM", value))
				continue
			}
			schedules = append(schedules, clock.String())
		}
	}

	weekdays, err := recurrence.NormalizeWeekdays(input.Weekdays)
	if err != nil {
		vErr.add("weekdays", "days must be between 0 (Sunday) and 6 (Saturday)")
	}

	if vErr.HasErrors() {
		return vErr
	}

	med.Name = name
	med.Dosage = strings.TrimSpace(input.Dosage)
	med.Schedules = schedules
	med.Weekdays = weekdays
	med.Fasting = input.Fasting
	med.IntervalHours = input.IntervalHours
	med.StartTime = ""
	if input.IntervalHours != 0 {
		med.StartTime = input.StartTime
	}
	med.Notes = input.Notes
	if input.Active != nil {
		med.Active = *input.Active
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
