package models

import "time"

// SweepResult summarises one pass of a scheduled sweep
type SweepResult struct {
	Candidates int           `json:"candidates"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}
