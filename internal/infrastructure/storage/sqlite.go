package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
)

// Storage provides SQLite database access for run history and the local
// ledger. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// A single connection keeps SQLite writes serialized across goroutines
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run
func (s *Storage) StartRun(run *Run) error {
	query := `
		INSERT INTO runs (id, dry_run, status, category_version)
		VALUES (?, ?, 'running', ?)
	`

	_, err := s.db.Exec(query, run.ID, run.DryRun, run.CategoryVersion)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	run.Status = RunStatusRunning
	return nil
}

// CompleteRun records the completion of a run
func (s *Storage) CompleteRun(runID string, result RunResult) error {
	status := RunStatusCompleted
	errMsg := ""
	switch {
	case result.Err != nil:
		status = RunStatusFailed
		errMsg = result.Err.Error()
	case result.Failed > 0:
		status = RunStatusCompletedWithErrors
	}

	sum := result.Summary
	query := `
		UPDATE runs
		SET completed_at = CURRENT_TIMESTAMP,
		    status = ?,
		    error_message = ?,
		    orders = ?,
		    refunds = ?,
		    transactions = ?,
		    matched = ?,
		    unmatched = ?,
		    retags = ?,
		    splits = ?,
		    noops = ?,
		    skipped = ?,
		    applied = ?,
		    failed = ?
		WHERE id = ?
	`

	_, err := s.db.Exec(query,
		status,
		errMsg,
		sum.Orders,
		sum.Refunds,
		sum.Transactions,
		sum.Matched,
		sum.Unmatched,
		sum.Retags,
		sum.Splits,
		sum.NoOps,
		sum.Skipped,
		result.Applied,
		result.Failed,
		runID,
	)
	return err
}

// SaveEntries stores the plan entries of a run in one transaction
func (s *Storage) SaveEntries(runID string, entries []plan.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO plan_entries
		(run_id, transaction_id, source_kind, source_key, action, amount,
		 category, description, notes, split_count, rationale, outcome, subs_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		subs := e.Subs
		if subs == nil {
			subs = []plan.SubTransaction{}
		}
		subsJSON, err := json.Marshal(subs)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		outcome := OutcomePlanned
		if e.Action == plan.ActionNoOp {
			outcome = OutcomeSkipped
		}

		_, err = stmt.Exec(
			runID,
			e.TransactionID,
			string(e.SourceKind),
			e.SourceKey,
			string(e.Action),
			e.Amount.Plain(),
			e.Category,
			e.Description,
			e.Notes,
			len(e.Subs),
			e.Rationale,
			outcome,
			string(subsJSON),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save entry for %s: %w", e.TransactionID, err)
		}
	}

	return tx.Commit()
}

// UpdateEntryOutcome records what happened when an entry was applied
func (s *Storage) UpdateEntryOutcome(runID, transactionID, outcome, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE plan_entries SET outcome = ?, error = ?
		WHERE run_id = ? AND transaction_id = ?
	`, outcome, errMsg, runID, transactionID)
	return err
}

const runColumns = `
	id, started_at, COALESCE(completed_at, ''), dry_run, status, category_version,
	error_message, orders, refunds, transactions, matched, unmatched, retags,
	splits, noops, skipped, applied, failed`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	err := row.Scan(
		&r.ID,
		&r.StartedAt,
		&r.CompletedAt,
		&r.DryRun,
		&r.Status,
		&r.CategoryVersion,
		&r.ErrorMessage,
		&r.Orders,
		&r.Refunds,
		&r.Transactions,
		&r.Matched,
		&r.Unmatched,
		&r.Retags,
		&r.Splits,
		&r.NoOps,
		&r.Skipped,
		&r.Applied,
		&r.Failed,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by ID. Returns nil, nil when the run does not exist.
func (s *Storage) GetRun(runID string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// ListEntries returns the plan entries of a run ordered by transaction id
func (s *Storage) ListEntries(runID string) ([]EntryRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, transaction_id, source_kind, source_key, action, amount,
		       category, description, notes, split_count, rationale, outcome, error, subs_json
		FROM plan_entries
		WHERE run_id = ?
		ORDER BY transaction_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := []EntryRecord{}
	for rows.Next() {
		var e EntryRecord
		err := rows.Scan(
			&e.ID,
			&e.RunID,
			&e.TransactionID,
			&e.SourceKind,
			&e.SourceKey,
			&e.Action,
			&e.Amount,
			&e.Category,
			&e.Description,
			&e.Notes,
			&e.SplitCount,
			&e.Rationale,
			&e.Outcome,
			&e.Error,
			&e.SubsJSON,
		)
		if err != nil {
			return nil, err
		}
		if e.SubsJSON != "" {
			if err := json.Unmarshal([]byte(e.SubsJSON), &e.Subs); err != nil {
				return nil, fmt.Errorf("corrupt subs for entry %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetStats returns statistics over all runs and the local ledger
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{}

	query := `
	SELECT
		COUNT(*),
		COUNT(CASE WHEN dry_run = 0 THEN 1 END),
		COUNT(CASE WHEN dry_run = 1 THEN 1 END),
		COUNT(CASE WHEN status = 'failed' THEN 1 END),
		COALESCE(SUM(matched), 0),
		COALESCE(SUM(failed), 0),
		COALESCE(MAX(started_at), '')
	FROM runs
	`
	err := s.db.QueryRow(query).Scan(
		&stats.TotalRuns,
		&stats.AppliedRuns,
		&stats.DryRuns,
		&stats.FailedRuns,
		&stats.TotalMatched,
		&stats.TotalApplyFailures,
		&stats.LastRunAt,
	)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRow(`
	SELECT
		COALESCE(SUM(CASE WHEN e.action = 'retag' AND e.outcome = 'applied' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN e.action = 'split' AND e.outcome = 'applied' THEN 1 ELSE 0 END), 0)
	FROM plan_entries e
	`).Scan(&stats.TotalRetags, &stats.TotalSplits)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRow(`
	SELECT COUNT(*), COUNT(CASE WHEN edited_by_tool = 1 OR is_split = 1 THEN 1 END)
	FROM ledger_transactions
	`).Scan(&stats.LedgerTransactions, &stats.EditedTransactions)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// LogMutation logs one ledger call
func (s *Storage) LogMutation(m *Mutation) error {
	var runID interface{}
	if m.RunID != "" {
		runID = m.RunID
	}

	_, err := s.db.Exec(`
		INSERT INTO mutation_log (run_id, transaction_id, op, request_json, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, m.TransactionID, m.Op, m.RequestJSON, m.Error, m.DurationMs)
	return err
}

// GetMutationsByRunID retrieves all ledger calls of a run
func (s *Storage) GetMutationsByRunID(runID string) ([]Mutation, error) {
	return s.queryMutations(`WHERE run_id = ?`, runID)
}

// GetMutationsByTransactionID retrieves all ledger calls for a transaction
func (s *Storage) GetMutationsByTransactionID(transactionID string) ([]Mutation, error) {
	return s.queryMutations(`WHERE transaction_id = ?`, transactionID)
}

func (s *Storage) queryMutations(where string, arg string) ([]Mutation, error) {
	rows, err := s.db.Query(`
		SELECT COALESCE(run_id, ''), transaction_id, op, request_json, error, duration_ms, created_at
		FROM mutation_log `+where+`
		ORDER BY id ASC
	`, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Mutation
	for rows.Next() {
		var m Mutation
		err := rows.Scan(
			&m.RunID,
			&m.TransactionID,
			&m.Op,
			&m.RequestJSON,
			&m.Error,
			&m.DurationMs,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
