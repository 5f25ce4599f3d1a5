package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Database      string `json:"database,omitempty"`
	SchemaVersion int64  `json:"schema_version,omitempty"`
}

// RunResponse represents a reconciliation run in API responses.
type RunResponse struct {
	ID              string `json:"id"`
	StartedAt       string `json:"started_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
	DryRun          bool   `json:"dry_run"`
	Status          string `json:"status"`
	CategoryVersion string `json:"category_version"`
	ErrorMessage    string `json:"error_message,omitempty"`
	Orders          int    `json:"orders"`
	Refunds         int    `json:"refunds"`
	Transactions    int    `json:"transactions"`
	Matched         int    `json:"matched"`
	Unmatched       int    `json:"unmatched"`
	Retags          int    `json:"retags"`
	Splits          int    `json:"splits"`
	NoOps           int    `json:"noops"`
	Skipped         int    `json:"skipped"`
	Applied         int    `json:"applied"`
	Failed          int    `json:"failed"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// SubTransactionResponse is one line of a proposed split.
type SubTransactionResponse struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
}

// EntryResponse represents one plan entry of a run.
type EntryResponse struct {
	TransactionID string                   `json:"transaction_id"`
	SourceKind    string                   `json:"source_kind"`
	SourceKey     string                   `json:"source_key"`
	Action        string                   `json:"action"`
	Amount        string                   `json:"amount"`
	Category      string                   `json:"category,omitempty"`
	Description   string                   `json:"description,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	Rationale     string                   `json:"rationale"`
	Outcome       string                   `json:"outcome"`
	Error         string                   `json:"error,omitempty"`
	Splits        []SubTransactionResponse `json:"splits,omitempty"`
}

// EntryListResponse is returned when listing the entries of a run.
type EntryListResponse struct {
	RunID   string          `json:"run_id"`
	Entries []EntryResponse `json:"entries"`
	Count   int             `json:"count"`
}

// MutationResponse represents one ledger call.
type MutationResponse struct {
	RunID         string `json:"run_id"`
	TransactionID string `json:"transaction_id"`
	Op            string `json:"op"`
	Request       string `json:"request"`
	Error         string `json:"error,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
	CreatedAt     string `json:"created_at"`
}

// MutationListResponse is returned when listing ledger calls.
type MutationListResponse struct {
	Mutations []MutationResponse `json:"mutations"`
	Count     int                `json:"count"`
}

// LedgerTransactionResponse represents a local ledger transaction.
type LedgerTransactionResponse struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Merchant     string `json:"merchant"`
	Amount       string `json:"amount"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Notes        string `json:"notes,omitempty"`
	Pending      bool   `json:"pending"`
	IsSplit      bool   `json:"is_split"`
	EditedByTool bool   `json:"edited_by_tool"`
	ParentID     string `json:"parent_id,omitempty"`
}

// LedgerListResponse is returned when listing ledger transactions.
type LedgerListResponse struct {
	Transactions []LedgerTransactionResponse `json:"transactions"`
	TotalCount   int                         `json:"total_count"`
	Limit        int                         `json:"limit"`
	Offset       int                         `json:"offset"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	TotalRuns          int    `json:"total_runs"`
	AppliedRuns        int    `json:"applied_runs"`
	DryRuns            int    `json:"dry_runs"`
	FailedRuns         int    `json:"failed_runs"`
	TotalMatched       int    `json:"total_matched"`
	TotalRetags        int    `json:"total_retags"`
	TotalSplits        int    `json:"total_splits"`
	TotalApplyFailures int    `json:"total_apply_failures"`
	LedgerTransactions int    `json:"ledger_transactions"`
	EditedTransactions int    `json:"edited_transactions"`
	LastRunAt          string `json:"last_run_at,omitempty"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
