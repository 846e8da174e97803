package notifier

import (
	"fmt"
	"time"
)

// TriggerKind selects how a trigger fires.
type TriggerKind string

const (
	// TriggerDaily repeats every day at Hour:Minute.
	TriggerDaily TriggerKind = "daily"
	// TriggerWeekly repeats every week on Weekday at Hour:Minute.
	TriggerWeekly TriggerKind = "weekly"
	// TriggerTimeInterval fires once, Seconds after scheduling.
	TriggerTimeInterval TriggerKind = "timeInterval"
	// TriggerDate fires once at Date.
	TriggerDate TriggerKind = "date"
)

// Trigger describes when a notification fires. Weekday uses 1=Monday..7=Sunday.
type Trigger struct {
	Kind    TriggerKind `json:"type"`
	Hour    int         `json:"hour,omitempty"`
	Minute  int         `json:"minute,omitempty"`
	Weekday int         `json:"weekday,omitempty"`
	Seconds int64       `json:"seconds,omitempty"`
	Date    time.Time   `json:"date,omitempty"`
	Repeats bool        `json:"repeats"`
}

// Daily returns a repeating time-of-day trigger.
func Daily(hour, minute int) Trigger {
	return Trigger{Kind: TriggerDaily, Hour: hour, Minute: minute, Repeats: true}
}

// Weekly returns a repeating weekday trigger; weekday is 1=Monday..7=Sunday.
func Weekly(weekday, hour, minute int) Trigger {
	return Trigger{Kind: TriggerWeekly, Weekday: weekday, Hour: hour, Minute: minute, Repeats: true}
}

// AfterSeconds returns a one-shot trigger relative to scheduling time.
func AfterSeconds(seconds int64) Trigger {
	return Trigger{Kind: TriggerTimeInterval, Seconds: seconds}
}

// AtDate returns a one-shot trigger at an absolute instant.
func AtDate(at time.Time) Trigger {
	return Trigger{Kind: TriggerDate, Date: at}
}

// Validate checks field ranges for the trigger kind.
func (t Trigger) Validate() error {
	switch t.Kind {
	case TriggerDaily, TriggerWeekly:
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return fmt.Errorf("%w: time %02d:%02d", ErrInvalidTrigger, t.Hour, t.Minute)
		}
		if t.Kind == TriggerWeekly && (t.Weekday < 1 || t.Weekday > 7) {
			return fmt.Errorf("%w: weekday %d", ErrInvalidTrigger, t.Weekday)
		}
	case TriggerTimeInterval:
		if t.Seconds <= 0 {
			return fmt.Errorf("%w: seconds must be positive", ErrInvalidTrigger)
		}
	case TriggerDate:
		if t.Date.IsZero() {
			return fmt.Errorf("%w: missing date", ErrInvalidTrigger)
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidTrigger, t.Kind)
	}
	return nil
}

// Next returns the first fire instant strictly after after, evaluating
// wall-clock triggers in loc. For time-interval triggers after is taken as
// the scheduling instant. It reports false when the trigger never fires
// again.
func (t Trigger) Next(after time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	after = after.In(loc)
	switch t.Kind {
	case TriggerDaily:
		candidate := atClock(after, t.Hour, t.Minute, loc)
		if !candidate.After(after) {
			candidate = atClock(after.AddDate(0, 0, 1), t.Hour, t.Minute, loc)
		}
		return candidate, true
	case TriggerWeekly:
		target := time.Weekday(t.Weekday % 7)
		ahead := (int(target) - int(after.Weekday()) + 7) % 7
		candidate := atClock(after.AddDate(0, 0, ahead), t.Hour, t.Minute, loc)
		if !candidate.After(after) {
			candidate = atClock(after.AddDate(0, 0, ahead+7), t.Hour, t.Minute, loc)
		}
		return candidate, true
	case TriggerTimeInterval:
		if t.Seconds <= 0 {
			return time.Time{}, false
		}
		return after.Add(time.Duration(t.Seconds) * time.Second), true
	case TriggerDate:
		if !t.Date.After(after) {
			return time.Time{}, false
		}
		return t.Date.In(loc), true
	default:
		return time.Time{}, false
	}
}

// String renders the trigger for logs.
func (t Trigger) String() string {
	switch t.Kind {
	case TriggerDaily:
		return fmt.Sprintf("daily %02d:%02d", t.Hour, t.Minute)
	case TriggerWeekly:
		return fmt.Sprintf("weekly day %d %02d:%02d", t.Weekday, t.Hour, t.Minute)
	case TriggerTimeInterval:
		return fmt.Sprintf("in %ds", t.Seconds)
	case TriggerDate:
		return "at " + t.Date.Format(time.RFC3339)
	default:
		return string(t.Kind)
	}
}

func atClock(day time.Time, hour, minute int, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}
