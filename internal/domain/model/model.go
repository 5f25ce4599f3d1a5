// Package model defines the order, refund and ledger entities the reconciliation
// engine works on. Entities are built once per run and treated as read-only.
package model

import (
	"strings"
	"time"

	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

// Item is one purchased line from the items report.
type Item struct {
	OrderID     string
	Title       string
	CategoryRaw string
	Quantity    int
	UnitPrice   money.Money
	ItemTotal   money.Money // pre-tax line subtotal
	ItemTax     money.Money

	// Shipment attribution; not part of the item's identity.
	ShipmentDate time.Time
	Tracking     string
}

// Order is one shipment of an order. An order with several shipments becomes
// several Orders sharing an OrderID.
type Order struct {
	OrderID        string
	OrderDate      time.Time
	ShipmentDate   time.Time
	Tracking       string
	Items          []Item
	Subtotal       money.Money // report subtotal, used for partial shipment attribution
	ShippingCharge money.Money
	Promotions     money.Money // positive amount taken off the total
	Tax            money.Money
	TotalCharged   money.Money
}

// Key identifies the shipment: order id plus tracking number, or shipment
// date when no tracking is present.
func (o Order) Key() string {
	if o.Tracking != "" {
		return o.OrderID + "|" + o.Tracking
	}
	return o.OrderID + "|" + o.ShipmentDate.Format("2006-01-02")
}

// ItemsSubtotal sums the pre-tax line totals.
func (o Order) ItemsSubtotal() money.Money {
	total := money.Zero
	for _, item := range o.Items {
		total = total.Add(item.ItemTotal)
	}
	return total
}

// ItemsTax sums the per-item tax.
func (o Order) ItemsTax() money.Money {
	total := money.Zero
	for _, item := range o.Items {
		total = total.Add(item.ItemTax)
	}
	return total
}

// TaxTotal returns the shipment tax, preferring the shipment-level figure and
// falling back to the sum of item tax.
func (o Order) TaxTotal() money.Money {
	if !o.Tax.IsZero() {
		return o.Tax
	}
	return o.ItemsTax()
}

// ExpectedTotal is what the items, tax and shipping add up to.
func (o Order) ExpectedTotal() money.Money {
	return o.ItemsSubtotal().Add(o.TaxTotal()).Add(o.ShippingCharge).Sub(o.Promotions)
}

// Refund is one reimbursement event.
type Refund struct {
	OrderID     string
	OrderDate   time.Time
	RefundDate  time.Time
	Amount      money.Money // refund plus refunded tax, always positive
	Reason      string
	Title       string
	CategoryRaw string
	Quantity    int
}

// Key is order id, refund date and amount. Identical refund rows share a key.
func (r Refund) Key() string {
	return r.OrderID + "|" + r.RefundDate.Format("2006-01-02") + "|" + r.Amount.Plain()
}

// LedgerTransaction is a snapshot of one entry in the user's ledger.
// Amount is signed: debits are negative, credits positive.
type LedgerTransaction struct {
	ID             string      `json:"id"`
	Date           time.Time   `json:"date"`
	MerchantName   string      `json:"merchant_name"`
	Amount         money.Money `json:"amount"`
	Category       string      `json:"category"`
	Description    string      `json:"description"`
	Notes          string      `json:"notes,omitempty"`
	IsSplit        bool        `json:"is_split"`
	IsEditedByTool bool        `json:"is_edited_by_tool"`
	Pending        bool        `json:"pending"`
	ParentID       string      `json:"parent_id,omitempty"`
}

// IsDebit reports whether the transaction takes money out of the account.
func (t LedgerTransaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// MerchantContains reports whether the merchant name contains needle,
// ignoring case. An empty needle always matches.
func (t LedgerTransaction) MerchantContains(needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.MerchantName), strings.ToLower(needle))
}

// DaysBetween returns the whole-day difference b - a using calendar dates.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
