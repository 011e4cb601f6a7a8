// internal/model/run_outcome.go
package model

import "time"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Pipeline task names, used as FailingTask on a failed run.
const (
	TaskCreateTable = "create_table"
	TaskExtract     = "extract"
	TaskTransform   = "transform"
	TaskLoad        = "load"
)

// RunOutcome is emitted once per pipeline run and consumed by notifiers.
type RunOutcome struct {
	RunID         string    `json:"run_id"`
	PipelineName  string    `json:"pipeline_name"`
	Outcome       Outcome   `json:"outcome"`
	FailingTask   string    `json:"failing_task,omitempty"`
	Error         string    `json:"error,omitempty"`
	RowsExtracted int       `json:"rows_extracted"`
	RowsLoaded    int       `json:"rows_loaded"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

func (o *RunOutcome) Succeeded() bool { return o.Outcome == OutcomeSuccess }
