package entity

import "time"

// RecordDetails is the optional payload attached to a progress record.
type RecordDetails struct {
	Verification *VerificationReport `json:"verification,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Artifact     string              `json:"artifact,omitempty"`
}

type ProgressRecord struct {
	TaskID
	Status    TaskStatus     `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Details   *RecordDetails `json:"details,omitempty"`
}

// RunSummary is what the orchestrator reports after walking a queue.
type RunSummary struct {
	RunID       string
	Total       int
	Succeeded   int
	Skipped     int
	Failed      []TaskID
	Interrupted bool
	// Aborted is set when the loop itself failed outside a task boundary.
	Aborted string
	Results []TaskResult
}

// Completed counts tasks that ran successfully plus those skipped as already done.
func (s *RunSummary) Completed() int {
	return s.Succeeded + s.Skipped
}
