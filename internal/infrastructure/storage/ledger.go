package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/amazon-tagger/internal/adapters/ledger"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
)

const dateLayout = "2006-01-02"

const ledgerColumns = `id, posted_on, merchant, amount, category, description, notes,
	is_split, edited_by_tool, pending, parent_id`

func scanLedgerTransaction(row rowScanner) (model.LedgerTransaction, error) {
	var t model.LedgerTransaction
	var postedOn, amount string
	err := row.Scan(
		&t.ID,
		&postedOn,
		&t.MerchantName,
		&amount,
		&t.Category,
		&t.Description,
		&t.Notes,
		&t.IsSplit,
		&t.IsEditedByTool,
		&t.Pending,
		&t.ParentID,
	)
	if err != nil {
		return t, err
	}

	t.Date, err = time.Parse(dateLayout, postedOn)
	if err != nil {
		return t, fmt.Errorf("corrupt date for transaction %s: %w", t.ID, err)
	}
	t.Amount, err = money.Parse(amount)
	if err != nil {
		return t, fmt.Errorf("corrupt amount for transaction %s: %w", t.ID, err)
	}
	return t, nil
}

// UpsertLedgerTransactions imports transactions into the local ledger.
// Transactions already present are left untouched so re-importing a
// statement never undoes an edit.
func (s *Storage) UpsertLedgerTransactions(txns []model.LedgerTransaction) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO ledger_transactions
		(id, posted_on, merchant, amount, amount_cents, category, description, notes, pending)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, t := range txns {
		res, err := stmt.Exec(
			t.ID,
			t.Date.Format(dateLayout),
			t.MerchantName,
			t.Amount.Plain(),
			t.Amount.Cents(),
			t.Category,
			t.Description,
			t.Notes,
			t.Pending,
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to import transaction %s: %w", t.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListLedgerTransactions returns local ledger transactions matching the filters
func (s *Storage) ListLedgerTransactions(filters LedgerFilters) (*LedgerListResult, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	var where []string
	var args []interface{}
	if !filters.Start.IsZero() {
		where = append(where, "posted_on >= ?")
		args = append(args, filters.Start.Format(dateLayout))
	}
	if !filters.End.IsZero() {
		where = append(where, "posted_on <= ?")
		args = append(args, filters.End.Format(dateLayout))
	}
	if filters.Merchant != "" {
		where = append(where, "LOWER(merchant) LIKE ?")
		args = append(args, "%"+strings.ToLower(filters.Merchant)+"%")
	}
	if filters.Unedited {
		where = append(where, "edited_by_tool = 0 AND is_split = 0")
	}
	if filters.Amount != nil {
		c := filters.Amount.Abs().Cents()
		where = append(where, "amount_cents IN (?, ?)")
		args = append(args, c, -c)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	result := &LedgerListResult{
		Transactions: []model.LedgerTransaction{},
		Limit:        limit,
		Offset:       filters.Offset,
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ledger_transactions`+clause, args...).Scan(&result.TotalCount); err != nil {
		return nil, err
	}

	query := `SELECT ` + ledgerColumns + ` FROM ledger_transactions` + clause +
		` ORDER BY posted_on DESC, id ASC LIMIT ? OFFSET ?`
	rows, err := s.db.Query(query, append(args, limit, filters.Offset)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		t, err := scanLedgerTransaction(rows)
		if err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, t)
	}
	return result, rows.Err()
}

// LedgerStore is a ledger.Ledger backed by the local SQLite ledger. It is
// filled by statement imports and lets the whole pipeline run offline.
type LedgerStore struct {
	db *sql.DB
}

// Compile-time check that LedgerStore implements ledger.Ledger
var _ ledger.Ledger = (*LedgerStore)(nil)

// NewLedgerStore creates a ledger on top of an open storage
func NewLedgerStore(s *Storage) *LedgerStore {
	return &LedgerStore{db: s.db}
}

// Transactions returns transactions posted within [start, end]
func (l *LedgerStore) Transactions(ctx context.Context, start, end time.Time) ([]model.LedgerTransaction, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_transactions
		WHERE posted_on >= ? AND posted_on <= ?
		ORDER BY posted_on, id
	`, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.LedgerTransaction
	for rows.Next() {
		t, err := scanLedgerTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Retag replaces the category, description and notes of a transaction
func (l *LedgerStore) Retag(ctx context.Context, id, category, description, notes string) error {
	var isSplit bool
	err := l.db.QueryRowContext(ctx, `SELECT is_split FROM ledger_transactions WHERE id = ?`, id).Scan(&isSplit)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	if isSplit {
		return fmt.Errorf("transaction %s is split and cannot be retagged", id)
	}

	_, err = l.db.ExecContext(ctx, `
		UPDATE ledger_transactions
		SET category = ?, description = ?, notes = ?, edited_by_tool = 1
		WHERE id = ?
	`, category, description, notes, id)
	return err
}

// Split replaces a transaction with child transactions. Children get
// deterministic ids derived from the parent id, and splitting an already
// split transaction is a no-op.
func (l *LedgerStore) Split(ctx context.Context, id string, subs []plan.SubTransaction) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	parent, err := scanLedgerTransaction(tx.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	if parent.IsSplit {
		return nil
	}

	if len(subs) < 2 {
		return fmt.Errorf("split of %s needs at least two lines, got %d", id, len(subs))
	}
	total := money.Zero
	for _, sub := range subs {
		total = total.Add(sub.Amount)
	}
	if !total.Equal(parent.Amount) {
		return fmt.Errorf("split lines of %s sum to %s, transaction amount is %s", id, total, parent.Amount)
	}

	for i, sub := range subs {
		childID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s#%d", id, i))).String()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_transactions
			(id, posted_on, merchant, amount, amount_cents, category, description, notes, edited_by_tool, parent_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		`, childID, parent.Date.Format(dateLayout), parent.MerchantName, sub.Amount.Plain(), sub.Amount.Cents(),
			sub.Category, sub.Description, sub.Notes, id)
		if err != nil {
			return fmt.Errorf("failed to insert split line %d of %s: %w", i, id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE ledger_transactions SET is_split = 1, edited_by_tool = 1 WHERE id = ?
	`, id); err != nil {
		return err
	}

	return tx.Commit()
}
