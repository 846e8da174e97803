package recurrence

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedule(t *testing.T) {
	cases := []struct {
		start string
		hours int
		want  []string
	}{
		{"08:00", 8, []string{"00:00", "08:00", "16:00"}},
		{"06:30", 6, []string{"00:30", "06:30", "12:30", "18:30"}},
		{"22:00", 12, []string{"10:00", "22:00"}},
		{"07:15", 24, []string{"07:15"}},
	}
	for _, tc := range cases {
		got, err := IntervalSchedule(tc.start, tc.hours)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s every %dh", tc.start, tc.hours)
	}
}

func TestIntervalSlotsRejectsOutOfRange(t *testing.T) {
	for _, hours := range []int{0, -1, 25} {
		_, err := IntervalSlots(Clock{Hour: 8}, hours)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	}
	_, err := IntervalSchedule("8h", 4)
	assert.ErrorIs(t, err, ErrInvalidClock)
}

// Every slot is start + k*hours (mod 24h), sorted and unique, for every
// start hour and interval.
func TestIntervalSlotsProperty(t *testing.T) {
	for hours := 1; hours <= 24; hours++ {
		for startHour := 0; startHour < 24; startHour++ {
			start := Clock{Hour: startHour, Minute: 45}
			slots, err := IntervalSlots(start, hours)
			require.NoError(t, err)
			require.NotEmpty(t, slots)
			require.LessOrEqual(t, len(slots), 24)

			minutes := make([]int, len(slots))
			for i, slot := range slots {
				minutes[i] = slot.Minutes()
			}
			assert.True(t, sort.IntsAreSorted(minutes))

			reachable := make(map[int]bool)
			for k := 0; k < 24; k++ {
				reachable[(start.Minutes()+k*hours*60)%minutesPerDay] = true
			}
			seen := make(map[int]bool)
			for _, m := range minutes {
				assert.False(t, seen[m], "duplicate slot")
				seen[m] = true
				assert.True(t, reachable[m], "unreachable slot")
			}
			assert.Len(t, slots, len(reachable))
		}
	}
}
