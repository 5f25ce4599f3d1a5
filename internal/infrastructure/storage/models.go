package storage

import (
	"time"

	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
)

// Run statuses
const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
	RunStatusFailed              = "failed"
)

// Entry outcomes
const (
	OutcomePlanned = "planned" // dry run, or not yet applied
	OutcomeApplied = "applied"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Run is one reconciliation run
type Run struct {
	ID              string `json:"id"`
	StartedAt       string `json:"started_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
	DryRun          bool   `json:"dry_run"`
	Status          string `json:"status"`
	CategoryVersion string `json:"category_version"`
	ErrorMessage    string `json:"error_message,omitempty"`

	// Plan summary
	Orders       int `json:"orders"`
	Refunds      int `json:"refunds"`
	Transactions int `json:"transactions"`
	Matched      int `json:"matched"`
	Unmatched    int `json:"unmatched"`
	Retags       int `json:"retags"`
	Splits       int `json:"splits"`
	NoOps        int `json:"noops"`
	Skipped      int `json:"skipped"`

	// Apply outcome
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}

// RunResult is what CompleteRun records
type RunResult struct {
	Summary plan.Summary
	Applied int
	Failed  int
	Err     error
}

// EntryRecord is a persisted plan entry
type EntryRecord struct {
	ID            int64                 `json:"id"`
	RunID         string                `json:"run_id"`
	TransactionID string                `json:"transaction_id"`
	SourceKind    string                `json:"source_kind"`
	SourceKey     string                `json:"source_key"`
	Action        string                `json:"action"`
	Amount        string                `json:"amount"`
	Category      string                `json:"category,omitempty"`
	Description   string                `json:"description,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	SplitCount    int                   `json:"split_count"`
	Rationale     string                `json:"rationale"`
	Outcome       string                `json:"outcome"`
	Error         string                `json:"error,omitempty"`
	Subs          []plan.SubTransaction `json:"subs,omitempty"`
	SubsJSON      string                `json:"-"` // For DB storage
}

// Mutation is one call made to the ledger while applying a plan
type Mutation struct {
	RunID         string
	TransactionID string
	Op            string // "retag" or "split"
	RequestJSON   string
	Error         string
	DurationMs    int64
	CreatedAt     string
}

// Stats aggregates run history and the local ledger
type Stats struct {
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

// LedgerFilters defines filters for listing local ledger transactions
type LedgerFilters struct {
	Start    time.Time    // zero = no lower bound
	End      time.Time    // zero = no upper bound
	Merchant string       // substring, case insensitive (empty = all)
	Unedited bool         // only transactions not yet edited or split
	Amount   *money.Money // exact amount, either sign (nil = any)
	Limit    int          // Max results (0 = default 50)
	Offset   int          // Pagination offset
}
