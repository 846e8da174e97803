package recurrence

import (
	"errors"
	"time"
)

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily fires every day at the rule's clock.
	FrequencyDaily
	// FrequencyWeekly fires on the selected weekdays only.
	FrequencyWeekly
)

// Rule describes a repeating time-of-day rule for one medication slot.
type Rule struct {
	Clock     Clock
	Frequency Frequency
	// Weekdays uses 0=Sunday..6=Saturday.
	Weekdays []int
}

// DailyRule is the expansion of a fixed daily time.
type DailyRule struct {
	Clock      Clock
	FirstFire  time.Time
	FiresToday bool
}

// WeeklyRule is one weekday of a weekday-constrained expansion.
type WeeklyRule struct {
	Clock Clock
	// DayOfWeek is the source weekday, 0=Sunday..6=Saturday.
	DayOfWeek int
	// Weekday is the scheduler convention, 1=Monday..7=Sunday.
	Weekday   int
	FirstFire time.Time
}

// Engine evaluates recurrence rules in a fixed wall-clock location.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine for loc. If loc is nil, time.Local is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{location: loc}
}

// Location returns the engine's wall-clock location.
func (e *Engine) Location() *time.Location {
	return e.location
}

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// Daily expands a fixed daily time. The first occurrence is today when the
// time has not yet passed at now, otherwise tomorrow.
func (e *Engine) Daily(clock Clock, now time.Time) DailyRule {
	now = now.In(e.location)
	first := e.At(now, clock)
	today := first.After(now)
	if !today {
		first = e.At(now.AddDate(0, 0, 1), clock)
	}
	return DailyRule{Clock: clock, FirstFire: first, FiresToday: today}
}

// Weekly expands a time of day over a set of weekdays (0=Sunday..6=Saturday),
// one rule per distinct weekday in ascending order.
func (e *Engine) Weekly(clock Clock, days []int, now time.Time) ([]WeeklyRule, error) {
	normalized, err := NormalizeWeekdays(days)
	if err != nil {
		return nil, err
	}
	rules := make([]WeeklyRule, 0, len(normalized))
	for _, day := range normalized {
		rules = append(rules, WeeklyRule{
			Clock:     clock,
			DayOfWeek: day,
			Weekday:   SchedulerWeekday(day),
			FirstFire: e.nextOnWeekday(clock, time.Weekday(day), now),
		})
	}
	return rules, nil
}

// At returns the instant of clock on the calendar date of day, in the
// engine's location.
func (e *Engine) At(day time.Time, clock Clock) time.Time {
	y, m, d := day.In(e.location).Date()
	return time.Date(y, m, d, clock.Hour, clock.Minute, 0, 0, e.location)
}

// Upcoming returns the next limit fire instants of rule strictly after from.
func (e *Engine) Upcoming(rule Rule, from time.Time, limit int) ([]time.Time, error) {
	if limit <= 0 {
		return nil, nil
	}
	var allowed map[time.Weekday]bool
	switch rule.Frequency {
	case FrequencyDaily:
	case FrequencyWeekly:
		days, err := NormalizeWeekdays(rule.Weekdays)
		if err != nil {
			return nil, err
		}
		if len(days) == 0 {
			return nil, nil
		}
		allowed = make(map[time.Weekday]bool, len(days))
		for _, day := range days {
			allowed[time.Weekday(day)] = true
		}
	default:
		return nil, ErrInvalidFrequency
	}

	from = from.In(e.location)
	fires := make([]time.Time, 0, limit)
	for offset := 0; len(fires) < limit; offset++ {
		candidate := e.At(from.AddDate(0, 0, offset), rule.Clock)
		if !candidate.After(from) {
			continue
		}
		if allowed != nil && !allowed[candidate.Weekday()] {
			continue
		}
		fires = append(fires, candidate)
	}
	return fires, nil
}

func (e *Engine) nextOnWeekday(clock Clock, weekday time.Weekday, now time.Time) time.Time {
	now = now.In(e.location)
	ahead := (int(weekday) - int(now.Weekday()) + 7) % 7
	candidate := e.At(now.AddDate(0, 0, ahead), clock)
	if !candidate.After(now) {
		candidate = e.At(now.AddDate(0, 0, ahead+7), clock)
	}
	return candidate
}
