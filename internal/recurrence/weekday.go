package recurrence

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidWeekday indicates a weekday outside 0..6.
var ErrInvalidWeekday = errors.New("recurrence: weekday must be between 0 and 6")

// SchedulerWeekday maps 0=Sunday..6=Saturday onto the 1..7 convention of the
// notification scheduler, where Sunday becomes 7.
func SchedulerWeekday(dayOfWeek int) int {
	if dayOfWeek == 0 {
		return 7
	}
	return dayOfWeek
}

// NormalizeWeekdays validates days and returns them sorted without duplicates.
func NormalizeWeekdays(days []int) ([]int, error) {
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, day := range days {
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidWeekday, day)
		}
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	sort.Ints(out)
	return out, nil
}

// IsEveryDay reports whether days selects every day of the week. An empty
// selection is treated as every day.
func IsEveryDay(days []int) bool {
	if len(days) == 0 {
		return true
	}
	normalized, err := NormalizeWeekdays(days)
	return err == nil && len(normalized) == 7
}
