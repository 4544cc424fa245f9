package app

import "time"

// Operation tracks one CLI invocation for logging. Its ID tags every log
// line written while the command runs.
type Operation struct {
	ID      string
	Command string
	Started time.Time
	Status  string // "success" or "error"
}

// NewOperation starts an operation at the given time.
func NewOperation(command string, started time.Time) *Operation {
	return &Operation{
		ID:      started.UTC().Format("20060102T150405Z"),
		Command: command,
		Started: started,
		Status:  "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.Started)
}
