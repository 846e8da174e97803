package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/care-alarms/internal/alarm"
	"github.com/example/care-alarms/internal/domain"
)

// VaccineRecordInput updates the user's record of one calendar vaccine.
type VaccineRecordInput struct {
	Status        domain.VaccineStatus `json:"status"`
	AppliedDate   string               `json:"appliedDate"`
	ScheduledDate string               `json:"scheduledDate"`
	Notes         string               `json:"notes"`
}

// VaccineService manages the vaccine calendar, the user's records and the
// follow-up reminders of applied vaccines.
type VaccineService struct {
	vaccines VaccineRepository
	alarms   VaccineAlarms
	logger   *slog.Logger
}

// NewVaccineService wires dependencies for vaccine operations.
func NewVaccineService(vaccines VaccineRepository, alarms VaccineAlarms, logger *slog.Logger) *VaccineService {
	return &VaccineService{
		vaccines: vaccines,
		alarms:   alarms,
		logger:   defaultLogger(logger),
	}
}

// Calendar returns the vaccine calendar.
func (s *VaccineService) Calendar(ctx context.Context) []domain.VaccineInfo {
	calendar := s.vaccines.VaccineCalendar(ctx)
	if calendar == nil {
		return []domain.VaccineInfo{}
	}
	return calendar
}

// SaveCalendar replaces the calendar and reschedules reminders of applied
// records, since their frequency may have changed.
func (s *VaccineService) SaveCalendar(ctx context.Context, calendar []domain.VaccineInfo) error {
	logger := serviceLogger(ctx, s.logger, "VaccineService", "SaveCalendar")

	vErr := &ValidationError{}
	seen := make(map[string]bool, len(calendar))
	for i, info := range calendar {
		id := strings.TrimSpace(info.ID)
		switch {
		case id == "":
			vErr.add(fmt.Sprintf("calendar[%d].id", i), "is required")
		case seen[id]:
			vErr.add(fmt.Sprintf("calendar[%d].id", i), "is duplicated")
		}
		seen[id] = true
		if strings.TrimSpace(info.Name) == "" {
			vErr.add(fmt.Sprintf("calendar[%d].name", i), "is required")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}

	if err := s.vaccines.SaveVaccineCalendar(ctx, calendar); err != nil {
		logger.ErrorContext(ctx, "save calendar", "error", err)
		return err
	}
	for id, record := range s.vaccines.VaccineRecords(ctx) {
		if record.Status != domain.VaccineApplied {
			continue
		}
		info, ok := s.vaccines.VaccineInfo(ctx, id)
		if !ok {
			continue
		}
		if _, err := s.alarms.ScheduleVaccineAlarms(ctx, record, info); err != nil {
			err = alarmError(err)
			logger.WarnContext(ctx, "reschedule vaccine", "vaccine_id", id, "error", err)
			return err
		}
	}
	logger.InfoContext(ctx, "calendar saved", "vaccines", len(calendar))
	return nil
}

// Records returns the user's records keyed by vaccine id.
func (s *VaccineService) Records(ctx context.Context) map[string]domain.VaccineRecord {
	return s.vaccines.VaccineRecords(ctx)
}

// SaveRecord stores the record of a calendar vaccine. Applied records get
// follow-up reminders; any other status cancels them.
func (s *VaccineService) SaveRecord(ctx context.Context, vaccineID string, input VaccineRecordInput) (domain.VaccineRecord, alarm.Result, error) {
	logger := serviceLogger(ctx, s.logger, "VaccineService", "SaveRecord", "vaccine_id", vaccineID)

	info, ok := s.vaccines.VaccineInfo(ctx, vaccineID)
	if !ok {
		return domain.VaccineRecord{}, alarm.Result{}, fmt.Errorf("%w: vaccine %s", ErrNotFound, vaccineID)
	}

	vErr := &ValidationError{}
	if !input.Status.Valid() {
		vErr.add("status", "must be pending, scheduled or applied")
	}
	if input.Status == domain.VaccineApplied && input.AppliedDate == "" {
		vErr.add("appliedDate", "is required when applied")
	}
	if input.AppliedDate != "" && !validDate(input.AppliedDate) {
		vErr.add("appliedDate", "must be YYYY-MM-DD")
	}
	if input.ScheduledDate != "" && !validDate(input.ScheduledDate) {
		vErr.add("scheduledDate", "must be YYYY-MM-DD")
	}
	if vErr.HasErrors() {
		logger.WarnContext(ctx, "record rejected", "error_kind", ErrorKind(vErr))
		return domain.VaccineRecord{}, alarm.Result{}, vErr
	}

	record := domain.VaccineRecord{
		VaccineID:     vaccineID,
		Status:        input.Status,
		AppliedDate:   input.AppliedDate,
		ScheduledDate: input.ScheduledDate,
		Notes:         input.Notes,
	}
	if err := s.vaccines.SaveVaccineRecord(ctx, record); err != nil {
		logger.ErrorContext(ctx, "save record", "error", err)
		return domain.VaccineRecord{}, alarm.Result{}, err
	}

	if record.Status != domain.VaccineApplied {
		if _, err := s.alarms.CancelVaccineAlarms(ctx, vaccineID); err != nil {
			return record, alarm.Result{}, alarmError(err)
		}
		return record, alarm.Result{}, nil
	}
	result, err := s.alarms.ScheduleVaccineAlarms(ctx, record, info)
	if err != nil {
		err = alarmError(err)
		logger.WarnContext(ctx, "schedule reminders", "error", err, "error_kind", ErrorKind(err))
		return record, result, err
	}
	logger.InfoContext(ctx, "record saved", "status", string(record.Status), "reminders", len(result.References))
	return record, result, nil
}

// DeleteRecord cancels a vaccine's reminders and removes its record.
func (s *VaccineService) DeleteRecord(ctx context.Context, vaccineID string) error {
	logger := serviceLogger(ctx, s.logger, "VaccineService", "DeleteRecord", "vaccine_id", vaccineID)

	if _, err := s.alarms.CancelVaccineAlarms(ctx, vaccineID); err != nil {
		logger.WarnContext(ctx, "cancel reminders", "error", err)
	}
	if err := s.vaccines.DeleteVaccineRecord(ctx, vaccineID); err != nil {
		return notFound(err)
	}
	return nil
}

func validDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
