package domain

import "time"

// AutomationReport summarises one batch-resolution run. Every checked bet
// lands in exactly one of Resolved, Skipped or Failed.
type AutomationReport struct {
	Checked     int           `json:"checked"`     // pending bets looked at
	Resolved    int           `json:"resolved"`    // settled in this run
	Skipped     int           `json:"skipped"`     // left pending: no result yet or source unavailable
	Unavailable int           `json:"unavailable"` // part of Skipped: source errored or timed out
	Failed      int           `json:"failed"`      // resolution rejected or not persisted
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
}
