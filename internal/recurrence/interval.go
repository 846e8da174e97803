package recurrence

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidInterval indicates an interval outside 1..24 hours.
var ErrInvalidInterval = errors.New("recurrence: interval must be between 1 and 24 hours")

// IntervalSlots expands "every hours from start" into the sorted distinct
// times of day it visits, stopping when start would recur. At most 24 slots
// are produced.
func IntervalSlots(start Clock, hours int) ([]Clock, error) {
	if hours < 1 || hours > 24 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterval, hours)
	}

	seen := make(map[int]bool, 24)
	slots := make([]Clock, 0, 24)
	current := start.Minutes()
	for i := 0; i < 24; i++ {
		if i > 0 && current == start.Minutes() {
			break
		}
		if !seen[current] {
			seen[current] = true
			slots = append(slots, clockFromMinutes(current))
		}
		current = (current + hours*60) % minutesPerDay
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Minutes() < slots[j].Minutes()
	})
	return slots, nil
}

// IntervalSchedule is IntervalSlots over HH:MM strings.
func IntervalSchedule(start string, hours int) ([]string, error) {
	clock, err := ParseClock(start)
	if err != nil {
		return nil, err
	}
	slots, err := IntervalSlots(clock, hours)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(slots))
	for i, slot := range slots {
		out[i] = slot.String()
	}
	return out, nil
}
