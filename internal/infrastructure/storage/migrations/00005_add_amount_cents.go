package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

func init() {
	goose.AddMigrationContext(upAddAmountCents, downAddAmountCents)
}

// upAddAmountCents adds an integer cents column to the local ledger so
// transactions can be looked up by exact amount. Existing rows are
// backfilled from the decimal text, which SQL cannot parse reliably
// ("$-19.99", "-19.9").
func upAddAmountCents(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		`ALTER TABLE ledger_transactions ADD COLUMN amount_cents INTEGER NOT NULL DEFAULT 0`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_ledger_amount_cents ON ledger_transactions(amount_cents)`); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, amount FROM ledger_transactions`)
	if err != nil {
		return err
	}

	cents := make(map[string]int64)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			_ = rows.Close()
			return err
		}
		m, err := money.Parse(raw)
		if err != nil {
			_ = rows.Close()
			return fmt.Errorf("transaction %s: %w", id, err)
		}
		cents[id] = m.Cents()
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for id, c := range cents {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ledger_transactions SET amount_cents = ? WHERE id = ?`, c, id); err != nil {
			return err
		}
	}
	return nil
}

func downAddAmountCents(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_ledger_amount_cents`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `ALTER TABLE ledger_transactions DROP COLUMN amount_cents`)
	return err
}
