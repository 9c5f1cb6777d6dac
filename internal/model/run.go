package model

import "time"

// RunStatus tracks an analysis run through its lifecycle.
type RunStatus string

// Run statuses.
const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted analysis run.
type Run struct {
	ID         string          `json:"id"`
	ContractID string          `json:"contract_id"`
	Status     RunStatus       `json:"status"`
	Result     *AnalysisResult `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
