// Package splitter turns a matched order or refund into a plan entry: a retag
// for single-item shipments and refunds, a split for multi-item shipments.
package splitter

import (
	"fmt"
	"strings"
	"time"

	"github.com/eshaffer321/amazon-tagger/internal/domain/allocator"
	"github.com/eshaffer321/amazon-tagger/internal/domain/categorizer"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
	"github.com/eshaffer321/amazon-tagger/internal/domain/validator"
)

// Options controls descriptions and refund categorization.
type Options struct {
	DescriptionPrefix     string // prepended to item descriptions, e.g. "Amazon.com: "
	RefundPrefix          string // prepended to refund descriptions
	RefundCategory        string // category for matched refunds
	RetagDescription      bool   // replace the description on single-item retags
	InheritRefundCategory bool   // resolve the refunded item's category instead of RefundCategory
	TitleLength           int
}

// DefaultOptions returns the standard Amazon prefixes.
func DefaultOptions() Options {
	return Options{
		DescriptionPrefix: "Amazon.com: ",
		RefundPrefix:      "Amazon.com refund: ",
		RefundCategory:    "Returned Purchase",
		RetagDescription:  true,
		TitleLength:       DefaultTitleLength,
	}
}

// Splitter builds plan entries.
type Splitter struct {
	resolver categorizer.Resolver
	opts     Options
}

// NewSplitter creates a new splitter
func NewSplitter(resolver categorizer.Resolver, opts Options) *Splitter {
	if opts.TitleLength <= 0 {
		opts.TitleLength = DefaultTitleLength
	}
	return &Splitter{resolver: resolver, opts: opts}
}

// ForOrder builds the entry for an order shipment matched to txn.
//
// A single item retags the transaction in place. Several items split it, one
// line per item, with tax, shipping and any other difference between the
// item subtotals and the transaction amount spread by item subtotal.
func (s *Splitter) ForOrder(order model.Order, txn model.LedgerTransaction) (plan.Entry, error) {
	entry := plan.Entry{
		TransactionID:      txn.ID,
		Amount:             txn.Amount,
		SourceKind:         plan.SourceOrder,
		SourceKey:          order.Key(),
		Notes:              OrderNotes(order),
		CurrentCategory:    txn.Category,
		CurrentDescription: txn.Description,
	}

	if len(order.Items) == 1 {
		item := order.Items[0]
		entry.Action = plan.ActionRetag
		entry.Category = s.resolver.Resolve(item.CategoryRaw)
		entry.Description = txn.Description
		if s.opts.RetagDescription {
			entry.Description = s.opts.DescriptionPrefix + ItemTitle(item.Title, item.Quantity, s.opts.TitleLength)
		}
		entry.Rationale = fmt.Sprintf("single item shipment %s", order.Key())
		s.markNoOp(&entry, txn)
		return entry, nil
	}

	base := make([]money.Money, len(order.Items))
	for i, item := range order.Items {
		base[i] = item.ItemTotal
	}
	amounts, err := allocator.Spread(base, txn.Amount.Abs())
	if err != nil {
		return plan.Entry{}, &model.InvariantViolation{Key: order.Key(), Reason: err.Error()}
	}
	if txn.IsDebit() {
		for i := range amounts {
			amounts[i] = amounts[i].Neg()
		}
	}

	check := validator.ValidateSplit(amounts, txn.Amount)
	if !check.Valid {
		return plan.Entry{}, &model.InvariantViolation{Key: order.Key(), Reason: check.Reason}
	}

	entry.Action = plan.ActionSplit
	entry.Subs = make([]plan.SubTransaction, len(order.Items))
	for i, item := range order.Items {
		entry.Subs[i] = plan.SubTransaction{
			Amount:      amounts[i],
			Category:    s.resolver.Resolve(item.CategoryRaw),
			Description: s.opts.DescriptionPrefix + ItemTitle(item.Title, item.Quantity, s.opts.TitleLength),
			Notes:       entry.Notes,
		}
	}
	entry.Rationale = fmt.Sprintf("%d items in shipment %s", len(order.Items), order.Key())
	return entry, nil
}

// ForRefund builds the retag entry for a refund matched to txn. linked is the
// shipment the refund belongs to, or nil when the order is not in the reports.
func (s *Splitter) ForRefund(refund model.Refund, linked *model.Order, txn model.LedgerTransaction) plan.Entry {
	entry := plan.Entry{
		TransactionID:      txn.ID,
		Amount:             txn.Amount,
		SourceKind:         plan.SourceRefund,
		SourceKey:          refund.Key(),
		Action:             plan.ActionRetag,
		Category:           s.refundCategory(refund, linked),
		Notes:              RefundNotes(refund),
		CurrentCategory:    txn.Category,
		CurrentDescription: txn.Description,
	}

	if linked != nil {
		title := refund.Title
		if title == "" && len(linked.Items) == 1 {
			title = linked.Items[0].Title
		}
		if title != "" {
			entry.Description = fmt.Sprintf("%s%s (order %s)", s.opts.RefundPrefix,
				ItemTitle(title, refund.Quantity, s.opts.TitleLength), refund.OrderID)
		} else {
			entry.Description = fmt.Sprintf("%sorder %s", s.opts.RefundPrefix, refund.OrderID)
		}
		entry.Rationale = fmt.Sprintf("refund for order %s", refund.OrderID)
	} else {
		entry.Description = strings.TrimRight(s.opts.RefundPrefix, ": ")
		entry.Rationale = fmt.Sprintf("refund for order %s not present in the order reports", refund.OrderID)
	}

	s.markNoOp(&entry, txn)
	return entry
}

func (s *Splitter) refundCategory(refund model.Refund, linked *model.Order) string {
	if s.opts.InheritRefundCategory {
		if refund.CategoryRaw != "" {
			return s.resolver.Resolve(refund.CategoryRaw)
		}
		if linked != nil && len(linked.Items) == 1 {
			return s.resolver.Resolve(linked.Items[0].CategoryRaw)
		}
	}
	return s.opts.RefundCategory
}

// markNoOp downgrades a retag that would not change anything.
func (s *Splitter) markNoOp(entry *plan.Entry, txn model.LedgerTransaction) {
	if entry.Category == txn.Category && entry.Description == txn.Description {
		entry.Action = plan.ActionNoOp
		entry.Rationale += "; already up to date"
	}
}

// OrderNotes is the note header attached to every edit made for a shipment.
func OrderNotes(o model.Order) string {
	return fmt.Sprintf("Amazon order id: %s\nOrder date: %s\nShip date: %s\nTracking: %s",
		o.OrderID, formatDate(o.OrderDate), formatDate(o.ShipmentDate), o.Tracking)
}

// RefundNotes is the note header attached to refund edits.
func RefundNotes(r model.Refund) string {
	return fmt.Sprintf("Amazon refund for order id: %s\nOrder date: %s\nRefund date: %s\nRefund reason: %s",
		r.OrderID, formatDate(r.OrderDate), formatDate(r.RefundDate), r.Reason)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
