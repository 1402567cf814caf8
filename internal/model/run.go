package model

import "time"

// RunState tracks the orchestrator state machine for one batch run.
type RunState string

const (
	RunStateSelecting  RunState = "selecting"
	RunStateProcessing RunState = "processing"
	RunStateRetrying   RunState = "retrying"
	RunStateReporting  RunState = "reporting"
	RunStateDone       RunState = "done"
	RunStateAborted    RunState = "aborted"
)

// TargetStatus records the outcome of processing one target.
type TargetStatus string

const (
	StatusSucceeded    TargetStatus = "succeeded"
	StatusFetchFailed  TargetStatus = "fetch_failed"
	StatusLLMFailed    TargetStatus = "llm_failed"
	StatusSchemaFailed TargetStatus = "schema_failed"
	StatusUpsertFailed TargetStatus = "upsert_failed"
	StatusSkipped      TargetStatus = "skipped"
)

// Failed reports whether the status is a failure to record. Skips are not
// failures: the target stays eligible for the next run.
func (s TargetStatus) Failed() bool {
	switch s {
	case StatusFetchFailed, StatusLLMFailed, StatusSchemaFailed, StatusUpsertFailed:
		return true
	}
	return false
}

// Retryable reports whether the failure is worth a second pass. Schema
// failures are permanent: the same content produces the same malformed
// response, so retrying only spends budget.
func (s TargetStatus) Retryable() bool {
	switch s {
	case StatusFetchFailed, StatusLLMFailed, StatusUpsertFailed:
		return true
	}
	return false
}

// TargetResult holds the per-target outcome, aggregated by target ID rather
// than completion order.
type TargetResult struct {
	Target       Target        `json:"target"`
	Status       TargetStatus  `json:"status"`
	Error        string        `json:"error,omitempty"`
	PagesFetched int           `json:"pages_fetched"`
	Retried      bool          `json:"retried"`
	Duration     time.Duration `json:"duration"`
}

// EnrichmentRun is the aggregate report for one batch. Created at orchestrator
// start, finalized at end; not persisted.
type EnrichmentRun struct {
	ID               string         `json:"id"`
	State            RunState       `json:"state"`
	TargetsTotal     int            `json:"targets_total"`
	Succeeded        int            `json:"succeeded"`
	FailedAfterRetry int            `json:"failed_after_retry"`
	TotalCost        float64        `json:"total_cost"`
	CallCount        int            `json:"call_count"`
	Duration         time.Duration  `json:"duration"`
	Results          []TargetResult `json:"results"`
	StartedAt        time.Time      `json:"started_at"`
}
