// Package plan holds the reconciliation plan: the proposed ledger edits
// produced by a matcher run.
package plan

import (
	"encoding/json"
	"sort"

	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

// Action is what to do with a matched transaction.
type Action string

const (
	ActionNoOp  Action = "noop"
	ActionRetag Action = "retag"
	ActionSplit Action = "split"
)

// SourceKind tells whether an entry came from an order shipment or a refund.
type SourceKind string

const (
	SourceOrder  SourceKind = "order"
	SourceRefund SourceKind = "refund"
)

// SubTransaction is one line of a split.
type SubTransaction struct {
	Amount      money.Money `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Notes       string      `json:"notes,omitempty"`
}

// Entry is the decision for one ledger transaction.
type Entry struct {
	TransactionID string           `json:"transaction_id"`
	Amount        money.Money      `json:"amount"`
	SourceKind    SourceKind       `json:"source_kind"`
	SourceKey     string           `json:"source_key"`
	Action        Action           `json:"action"`
	Category      string           `json:"category,omitempty"`
	Description   string           `json:"description,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Subs          []SubTransaction `json:"subs,omitempty"`
	DateDelta     int              `json:"date_delta"`
	Rationale     string           `json:"rationale"`

	// Current values, kept for the dry-run diff.
	CurrentCategory    string `json:"current_category,omitempty"`
	CurrentDescription string `json:"current_description,omitempty"`
}

// Unmatched is an order or refund that found no transaction.
type Unmatched struct {
	SourceKind SourceKind  `json:"source_kind"`
	SourceKey  string      `json:"source_key"`
	Date       string      `json:"date"`
	Amount     money.Money `json:"amount"`
}

// WarningKind classifies a skipped record.
type WarningKind string

const (
	WarnMalformed WarningKind = "malformed_input"
	WarnInvariant WarningKind = "invariant_violation"
)

// Warning records a skipped row, order, refund or transaction.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Key     string      `json:"key"`
	Message string      `json:"message"`
}

// Summary counts the outcome of a match.
type Summary struct {
	Orders              int `json:"orders"`
	Refunds             int `json:"refunds"`
	Transactions        int `json:"transactions"`
	EligibleTxns        int `json:"eligible_transactions"`
	Matched             int `json:"matched"`
	Unmatched           int `json:"unmatched"`
	Retags              int `json:"retags"`
	Splits              int `json:"splits"`
	NoOps               int `json:"noops"`
	Skipped             int `json:"skipped"`
	UntouchedLedgerTxns int `json:"untouched_transactions"`
}

// Plan is the full result of a matcher run.
type Plan struct {
	Entries   []Entry     `json:"entries"`
	Unmatched []Unmatched `json:"unmatched"`
	Warnings  []Warning   `json:"warnings"`
	Summary   Summary     `json:"summary"`
}

// New returns an empty plan with non-nil slices so it serializes as [] not null.
func New() *Plan {
	return &Plan{
		Entries:   []Entry{},
		Unmatched: []Unmatched{},
		Warnings:  []Warning{},
	}
}

// Warn appends a warning.
func (p *Plan) Warn(kind WarningKind, key, message string) {
	p.Warnings = append(p.Warnings, Warning{Kind: kind, Key: key, Message: message})
}

// Actionable returns the entries that require a ledger mutation.
func (p *Plan) Actionable() []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Action != ActionNoOp {
			out = append(out, e)
		}
	}
	return out
}

// Finalize sorts every list into its canonical order and recomputes the
// entry-derived summary counts.
func (p *Plan) Finalize() {
	sort.SliceStable(p.Entries, func(i, j int) bool {
		return p.Entries[i].TransactionID < p.Entries[j].TransactionID
	})
	sort.SliceStable(p.Unmatched, func(i, j int) bool {
		a, b := p.Unmatched[i], p.Unmatched[j]
		if a.SourceKind != b.SourceKind {
			return a.SourceKind < b.SourceKind
		}
		return a.SourceKey < b.SourceKey
	})
	sort.SliceStable(p.Warnings, func(i, j int) bool {
		a, b := p.Warnings[i], p.Warnings[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.Message < b.Message
	})

	p.Summary.Matched = len(p.Entries)
	p.Summary.Unmatched = len(p.Unmatched)
	p.Summary.Skipped = len(p.Warnings)
	p.Summary.Retags, p.Summary.Splits, p.Summary.NoOps = 0, 0, 0
	for _, e := range p.Entries {
		switch e.Action {
		case ActionRetag:
			p.Summary.Retags++
		case ActionSplit:
			p.Summary.Splits++
		case ActionNoOp:
			p.Summary.NoOps++
		}
	}
}

// JSON renders the plan as indented JSON. Output is byte-identical for
// identical plans.
func (p *Plan) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// SumSubs adds the sub-transaction amounts of an entry.
func (e Entry) SumSubs() money.Money {
	total := money.Zero
	for _, s := range e.Subs {
		total = total.Add(s.Amount)
	}
	return total
}
