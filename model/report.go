package model

import "time"

// RunReport summarizes one generate invocation.
type RunReport struct {
	ID        string
	Seed      uint64
	Attempts  int
	Succeeded bool
	Failures  map[string]int
	// NOTE: keys are "from->to" harmony IDs
	Transitions map[string]int
	Notes       int
	CreatedAt   time.Time
}
