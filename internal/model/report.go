package model

import (
	"time"

	"github.com/google/uuid"
)

// RunOutcome classifies a selection run.
type RunOutcome string

const (
	// RunOutcomeCompleted means every selected winner was paid.
	RunOutcomeCompleted RunOutcome = "COMPLETED"
	// RunOutcomePartial means a transfer failed; winners before it stay paid.
	RunOutcomePartial RunOutcome = "PARTIAL"
	// RunOutcomeNoop means nobody was selected.
	RunOutcomeNoop RunOutcome = "NOOP"
)

// Report is the result of one selection run.
type Report struct {
	RunID           uuid.UUID  `json:"run_id"`
	ProgramID       int64      `json:"program_id"`
	TriggeredBy     string     `json:"triggered_by"`
	Outcome         RunOutcome `json:"outcome"`
	Paid            []string   `json:"paid"`
	Failed          []string   `json:"failed"`
	AmountDisbursed int64      `json:"amount_disbursed"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	RanAt           time.Time  `json:"ran_at"`
}

// RunListQuery pages through a program's selection history.
type RunListQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}
