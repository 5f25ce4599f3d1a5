package storage

import (
	"sort"
	"strings"
	"sync"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu        sync.Mutex
	runs      map[string]*Run
	runOrder  []string
	entries   map[string][]EntryRecord // Keyed by run_id
	mutations []Mutation
	ledger    map[string]model.LedgerTransaction

	// Hooks for test assertions
	StartRunCalled    bool
	CompleteRunCalled bool
	LastRunResult     *RunResult
	LogMutationCalled bool

	// Error injection for testing error paths
	StartRunErr    error
	CompleteRunErr error
	SaveEntriesErr error
	LogMutationErr error
	GetStatsErr    error
	ListRunsErr    error
	SchemaErr      error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:    make(map[string]*Run),
		entries: make(map[string][]EntryRecord),
		ledger:  make(map[string]model.LedgerTransaction),
	}
}

// Close is a no-op for the mock
func (m *MockRepository) Close() error {
	return nil
}

// SchemaVersion reports a fixed version, or SchemaErr when set
func (m *MockRepository) SchemaVersion() (int64, error) {
	if m.SchemaErr != nil {
		return 0, m.SchemaErr
	}
	return 1, nil
}

// StartRun records a new run
func (m *MockRepository) StartRun(run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return m.StartRunErr
	}

	r := *run
	r.Status = RunStatusRunning
	m.runs[run.ID] = &r
	m.runOrder = append(m.runOrder, run.ID)
	run.Status = RunStatusRunning
	return nil
}

// CompleteRun marks a run as complete
func (m *MockRepository) CompleteRun(runID string, result RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteRunCalled = true
	m.LastRunResult = &result
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}

	r, ok := m.runs[runID]
	if !ok {
		return nil
	}

	sum := result.Summary
	r.Orders = sum.Orders
	r.Refunds = sum.Refunds
	r.Transactions = sum.Transactions
	r.Matched = sum.Matched
	r.Unmatched = sum.Unmatched
	r.Retags = sum.Retags
	r.Splits = sum.Splits
	r.NoOps = sum.NoOps
	r.Skipped = sum.Skipped
	r.Applied = result.Applied
	r.Failed = result.Failed
	r.CompletedAt = "now"
	switch {
	case result.Err != nil:
		r.Status = RunStatusFailed
		r.ErrorMessage = result.Err.Error()
	case result.Failed > 0:
		r.Status = RunStatusCompletedWithErrors
	default:
		r.Status = RunStatusCompleted
	}
	return nil
}

// SaveEntries stores plan entries
func (m *MockRepository) SaveEntries(runID string, entries []plan.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveEntriesErr != nil {
		return m.SaveEntriesErr
	}

	for _, e := range entries {
		outcome := OutcomePlanned
		if e.Action == plan.ActionNoOp {
			outcome = OutcomeSkipped
		}
		m.entries[runID] = append(m.entries[runID], EntryRecord{
			ID:            int64(len(m.entries[runID]) + 1),
			RunID:         runID,
			TransactionID: e.TransactionID,
			SourceKind:    string(e.SourceKind),
			SourceKey:     e.SourceKey,
			Action:        string(e.Action),
			Amount:        e.Amount.Plain(),
			Category:      e.Category,
			Description:   e.Description,
			Notes:         e.Notes,
			SplitCount:    len(e.Subs),
			Rationale:     e.Rationale,
			Outcome:       outcome,
			Subs:          e.Subs,
		})
	}
	return nil
}

// UpdateEntryOutcome records an apply outcome
func (m *MockRepository) UpdateEntryOutcome(runID, transactionID, outcome, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.entries[runID]
	for i := range entries {
		if entries[i].TransactionID == transactionID {
			entries[i].Outcome = outcome
			entries[i].Error = errMsg
		}
	}
	return nil
}

// ListRuns returns runs, newest first
func (m *MockRepository) ListRuns(limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	if limit <= 0 {
		limit = 20
	}

	runs := []Run{}
	for i := len(m.runOrder) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, *m.runs[m.runOrder[i]])
	}
	return runs, nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

// ListEntries returns the entries of a run ordered by transaction id
func (m *MockRepository) ListEntries(runID string) ([]EntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := append([]EntryRecord{}, m.entries[runID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].TransactionID < entries[j].TransactionID })
	return entries, nil
}

// GetStats returns statistics computed from the in-memory data
func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetStatsErr != nil {
		return nil, m.GetStatsErr
	}

	stats := &Stats{}
	for _, r := range m.runs {
		stats.TotalRuns++
		if r.DryRun {
			stats.DryRuns++
		} else {
			stats.AppliedRuns++
		}
		if r.Status == RunStatusFailed {
			stats.FailedRuns++
		}
		stats.TotalMatched += r.Matched
		stats.TotalApplyFailures += r.Failed
	}
	for _, entries := range m.entries {
		for _, e := range entries {
			if e.Outcome != OutcomeApplied {
				continue
			}
			switch e.Action {
			case string(plan.ActionRetag):
				stats.TotalRetags++
			case string(plan.ActionSplit):
				stats.TotalSplits++
			}
		}
	}
	for _, t := range m.ledger {
		stats.LedgerTransactions++
		if t.IsEditedByTool || t.IsSplit {
			stats.EditedTransactions++
		}
	}
	return stats, nil
}

// LogMutation logs a ledger call
func (m *MockRepository) LogMutation(mut *Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LogMutationCalled = true
	if m.LogMutationErr != nil {
		return m.LogMutationErr
	}
	m.mutations = append(m.mutations, *mut)
	return nil
}

// GetMutationsByRunID retrieves ledger calls of a run
func (m *MockRepository) GetMutationsByRunID(runID string) ([]Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Mutation
	for _, mut := range m.mutations {
		if mut.RunID == runID {
			result = append(result, mut)
		}
	}
	return result, nil
}

// GetMutationsByTransactionID retrieves ledger calls for a transaction
func (m *MockRepository) GetMutationsByTransactionID(transactionID string) ([]Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Mutation
	for _, mut := range m.mutations {
		if mut.TransactionID == transactionID {
			result = append(result, mut)
		}
	}
	return result, nil
}

// UpsertLedgerTransactions inserts transactions not yet present
func (m *MockRepository) UpsertLedgerTransactions(txns []model.LedgerTransaction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for _, t := range txns {
		if _, ok := m.ledger[t.ID]; ok {
			continue
		}
		m.ledger[t.ID] = t
		inserted++
	}
	return inserted, nil
}

// ListLedgerTransactions filters the in-memory ledger
func (m *MockRepository) ListLedgerTransactions(filters LedgerFilters) (*LedgerListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	var matched []model.LedgerTransaction
	for _, t := range m.ledger {
		if !filters.Start.IsZero() && t.Date.Before(filters.Start) {
			continue
		}
		if !filters.End.IsZero() && t.Date.After(filters.End) {
			continue
		}
		if filters.Merchant != "" && !strings.Contains(strings.ToLower(t.MerchantName), strings.ToLower(filters.Merchant)) {
			continue
		}
		if filters.Unedited && (t.IsEditedByTool || t.IsSplit) {
			continue
		}
		if filters.Amount != nil && !t.Amount.Abs().Equal(filters.Amount.Abs()) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID < matched[j].ID
	})

	result := &LedgerListResult{
		Transactions: []model.LedgerTransaction{},
		TotalCount:   len(matched),
		Limit:        limit,
		Offset:       filters.Offset,
	}
	for i := filters.Offset; i < len(matched) && i < filters.Offset+limit; i++ {
		result.Transactions = append(result.Transactions, matched[i])
	}
	return result, nil
}

// Helper methods for test setup

// AddRun adds a run directly (for test setup)
func (m *MockRepository) AddRun(run Run) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs[run.ID] = &run
	m.runOrder = append(m.runOrder, run.ID)
}

// AddEntry adds a plan entry record directly (for test setup)
func (m *MockRepository) AddEntry(e EntryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[e.RunID] = append(m.entries[e.RunID], e)
}

// GetAllMutations returns every logged mutation
func (m *MockRepository) GetAllMutations() []Mutation {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Mutation{}, m.mutations...)
}
