package storage

import (
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	RunRepository
	MutationRepository
	LedgerRepository
	Close() error
}

// RunRepository handles run history. It is an audit trail only; matching
// never reads it.
type RunRepository interface {
	// StartRun records the start of a run
	StartRun(run *Run) error

	// CompleteRun records the plan summary and apply outcome of a run
	CompleteRun(runID string, result RunResult) error

	// SaveEntries stores the plan entries of a run
	SaveEntries(runID string, entries []plan.Entry) error

	// UpdateEntryOutcome records what happened when an entry was applied
	UpdateEntryOutcome(runID, transactionID, outcome, errMsg string) error

	// ListRuns returns recent runs, newest first
	ListRuns(limit int) ([]Run, error)

	// GetRun retrieves a run by ID
	GetRun(runID string) (*Run, error)

	// ListEntries returns the plan entries of a run ordered by transaction id
	ListEntries(runID string) ([]EntryRecord, error)

	// GetStats returns aggregate statistics
	GetStats() (*Stats, error)
}

// MutationRepository handles the ledger mutation log
type MutationRepository interface {
	// LogMutation logs one ledger call
	LogMutation(m *Mutation) error

	// GetMutationsByRunID retrieves all ledger calls of a run
	GetMutationsByRunID(runID string) ([]Mutation, error)

	// GetMutationsByTransactionID retrieves all ledger calls for a transaction
	GetMutationsByTransactionID(transactionID string) ([]Mutation, error)
}

// LedgerRepository handles the local ledger
type LedgerRepository interface {
	// UpsertLedgerTransactions imports transactions. New ids are inserted;
	// existing ids keep any edits made by this tool. Returns the number inserted.
	UpsertLedgerTransactions(txns []model.LedgerTransaction) (int, error)

	// ListLedgerTransactions returns transactions matching the given filters
	ListLedgerTransactions(filters LedgerFilters) (*LedgerListResult, error)
}

// LedgerListResult contains paginated ledger transactions
type LedgerListResult struct {
	Transactions []model.LedgerTransaction `json:"transactions"`
	TotalCount   int                       `json:"total_count"`
	Limit        int                       `json:"limit"`
	Offset       int                       `json:"offset"`
}
