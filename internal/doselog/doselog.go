// Package doselog reads and writes the per-day log of confirmed doses.
package doselog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/care-alarms/internal/domain"
	"github.com/example/care-alarms/internal/persistence"
)

const dateLayout = "2006-01-02"

// EntryKey is where a single slot's entry for date is stored.
func EntryKey(date, medicationID, scheduleTime string) string {
	return fmt.Sprintf("dose_log:%s:%s:%s", date, medicationID, scheduleTime)
}

// DayKey is where the list of all entries of date is stored.
func DayKey(date string) string {
	return "dose_log:" + date
}

// Log answers whether a dose was already taken today.
type Log struct {
	store    persistence.Store
	now      func() time.Time
	location *time.Location
	logger   *slog.Logger
}

// New creates a Log. Dates are evaluated in loc.
func New(store persistence.Store, now func() time.Time, loc *time.Location, logger *slog.Logger) *Log {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		store:    store,
		now:      now,
		location: loc,
		logger:   logger.With(slog.String("component", "doselog")),
	}
}

// Today returns the current date as YYYY-MM-DD.
func (l *Log) Today() string {
	return l.now().In(l.location).Format(dateLayout)
}

// AlreadyTaken reports whether the dose of medicationID at scheduleTime is
// marked taken today. Read failures count as not taken.
func (l *Log) AlreadyTaken(ctx context.Context, medicationID, scheduleTime string) bool {
	today := l.Today()

	var entry domain.DoseLogEntry
	found, err := persistence.GetJSON(ctx, l.store, EntryKey(today, medicationID, scheduleTime), &entry)
	if err != nil {
		l.logger.WarnContext(ctx, "read dose entry", slog.String("medication_id", medicationID), slog.Any("error", err))
	}
	if found {
		return entry.Status == domain.DoseTaken
	}

	for _, item := range l.Day(ctx, today) {
		if item.MedicationID == medicationID && item.ScheduleTime == scheduleTime {
			return item.Status == domain.DoseTaken
		}
	}
	return false
}

// Day returns every entry recorded for date.
func (l *Log) Day(ctx context.Context, date string) []domain.DoseLogEntry {
	var entries []domain.DoseLogEntry
	if _, err := persistence.GetJSON(ctx, l.store, DayKey(date), &entries); err != nil {
		l.logger.WarnContext(ctx, "read dose day", slog.String("date", date), slog.Any("error", err))
		return nil
	}
	return entries
}

// Record stores entry under its slot key and upserts it into the day list.
// A missing date defaults to today.
func (l *Log) Record(ctx context.Context, entry domain.DoseLogEntry) (domain.DoseLogEntry, error) {
	if entry.Date == "" {
		entry.Date = l.Today()
	}
	if entry.Status == domain.DoseTaken && entry.TakenAt == "" {
		entry.TakenAt = l.now().In(l.location).Format(time.RFC3339)
	}
	if entry.Status != domain.DoseTaken {
		entry.TakenAt = ""
	}

	key := EntryKey(entry.Date, entry.MedicationID, entry.ScheduleTime)
	if err := persistence.SetJSON(ctx, l.store, key, entry); err != nil {
		return entry, fmt.Errorf("doselog: record %s: %w", key, err)
	}

	day := l.Day(ctx, entry.Date)
	replaced := false
	for i, item := range day {
		if item.MedicationID == entry.MedicationID && item.ScheduleTime == entry.ScheduleTime {
			day[i] = entry
			replaced = true
		}
	}
	if !replaced {
		day = append(day, entry)
	}
	if err := persistence.SetJSON(ctx, l.store, DayKey(entry.Date), day); err != nil {
		return entry, fmt.Errorf("doselog: record day %s: %w", entry.Date, err)
	}
	return entry, nil
}
