// Package ledger defines the contract of the financial ledger that plans are
// applied to, and provides a REST client and statement importers for it.
package ledger

import (
	"context"
	"time"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
)

// Ledger is the ledger service collaborator. Retag and Split must be
// idempotent: repeating a call with the same arguments leaves the ledger
// unchanged. Both mark the transaction as edited by this tool.
//
//go:generate mockgen -destination=mocks/mock_ledger.go -package=mocks -source=ledger.go Ledger
type Ledger interface {
	// Transactions returns the snapshot of transactions dated within [start, end]
	Transactions(ctx context.Context, start, end time.Time) ([]model.LedgerTransaction, error)

	// Retag replaces the category, description and notes of one transaction
	Retag(ctx context.Context, id, category, description, notes string) error

	// Split replaces one transaction with child transactions summing to its amount
	Split(ctx context.Context, id string, subs []plan.SubTransaction) error
}
