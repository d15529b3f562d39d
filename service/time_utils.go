package service

import (
	"time"
)

// NextDailyRun returns the next hour:00 UTC strictly after now
func NextDailyRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)

	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

// PurgeCutoff returns the end date before which finished lots are eligible for purge
func PurgeCutoff(now time.Time, retention time.Duration) time.Time {
	return now.Add(-retention)
}
