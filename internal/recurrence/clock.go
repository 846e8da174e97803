package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidClock indicates a time of day that is not HH:MM.
var ErrInvalidClock = errors.New("recurrence: invalid time of day")

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (a single-digit hour is accepted).
func ParseClock(value string) (Clock, error) {
	hourPart, minutePart, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(minutePart) != 2 || hourPart == "" || len(hourPart) > 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// MustParseClock is ParseClock for literals known to be valid.
func MustParseClock(value string) Clock {
	clock, err := ParseClock(value)
	if err != nil {
		panic(err)
	}
	return clock
}

// String formats the clock as zero-padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func clockFromMinutes(minutes int) Clock {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return Clock{Hour: minutes / 60, Minute: minutes % 60}
}

const minutesPerDay = 24 * 60
