package domain

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord describes one pipeline invocation.
type RunRecord struct {
	RunID      string
	Start      time.Time // requested observation window start
	End        time.Time // requested observation window end
	Status     RunStatus
	TableHash  string   // empty until succeeded
	RowCount   int      // rows in the aligned table
	Columns    int      // columns excluding date
	Warnings   []string // sparse-column warnings
	Error      string   // set when failed
	StartedAt  time.Time
	FinishedAt *time.Time
}
