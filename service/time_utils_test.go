package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDailyRun(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		hour     int
		expected time.Time
	}{
		{
			name:     "later today",
			now:      time.Date(2026, 5, 10, 1, 30, 0, 0, time.UTC),
			hour:     2,
			expected: time.Date(2026, 5, 10, 2, 0, 0, 0, time.UTC),
		},
		{
			name:     "already passed today",
			now:      time.Date(2026, 5, 10, 2, 0, 1, 0, time.UTC),
			hour:     2,
			expected: time.Date(2026, 5, 11, 2, 0, 0, 0, time.UTC),
		},
		{
			name:     "exactly on the hour schedules tomorrow",
			now:      time.Date(2026, 5, 10, 2, 0, 0, 0, time.UTC),
			hour:     2,
			expected: time.Date(2026, 5, 11, 2, 0, 0, 0, time.UTC),
		},
		{
			// 22:00 EST is 03:00 UTC the next day, past that day's run
			name:     "non UTC input",
			now:      time.Date(2026, 5, 10, 22, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			hour:     2,
			expected: time.Date(2026, 5, 12, 2, 0, 0, 0, time.UTC),
		},
		{
			name:     "non UTC input before the UTC run",
			now:      time.Date(2026, 5, 10, 20, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			hour:     2,
			expected: time.Date(2026, 5, 11, 2, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(NextDailyRun(tt.now, tt.hour)))
		})
	}
}

func TestPurgeCutoff(t *testing.T) {
	now := time.Date(2026, 5, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 3, 2, 0, 0, 0, time.UTC), PurgeCutoff(now, 7*24*time.Hour))
}
