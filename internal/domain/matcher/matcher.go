// Package matcher pairs ledger transactions with Amazon order shipments and
// refunds and decides how each matched transaction should change.
//
// A transaction is a candidate for a shipment when:
//   - its amount is a debit equal to the shipment total (a credit equal to the
//     refund amount for refunds), within one cent
//   - it posted between DaysBefore days before and DaysAfter days after the
//     shipment (or refund) date
//
// Candidates are assigned greedily, closest date first, then smallest
// transaction id, then source key. Transactions already edited by this tool,
// already split, or pending never become candidates.
//
// Several refund rows of one order may settle a single credit: the rows of
// one refund date, or all refunds of the order, are offered as combined
// candidates next to the individual rows.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig(), resolver)
//	p := m.Match(orders, refunds, transactions)
//	for _, entry := range p.Actionable() {
//		// retag or split entry.TransactionID
//	}
package matcher

import (
	"fmt"
	"sort"

	"github.com/eshaffer321/amazon-tagger/internal/domain/categorizer"
	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/plan"
	"github.com/eshaffer321/amazon-tagger/internal/domain/splitter"
	"github.com/eshaffer321/amazon-tagger/internal/domain/validator"
)

// Matcher matches orders and refunds with ledger transactions
type Matcher struct {
	config   Config
	splitter *splitter.Splitter
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config, resolver categorizer.Resolver) *Matcher {
	return &Matcher{
		config:   config,
		splitter: splitter.NewSplitter(resolver, config.Splitter),
	}
}

// source is an order shipment or refund taking part in one Match call.
type source struct {
	kind    plan.SourceKind
	key     string
	order   *model.Order
	refund  *model.Refund
	members []string // source ids settled together with this one
}

// run holds the working state of one Match call.
type run struct {
	plan    *plan.Plan
	txns    map[string]model.LedgerTransaction
	sources map[string]*source // by kind + key

	pairs          map[string]MatchCandidate // by transaction id
	assignedTxn    map[string]bool
	assignedSource map[string]bool
	blockedSource  map[string]bool
}

func sourceID(kind plan.SourceKind, key string) string {
	return string(kind) + ":" + key
}

// Match computes the reconciliation plan. It performs no I/O and does not
// modify its inputs; identical inputs always produce an identical plan.
func (m *Matcher) Match(orders []model.Order, refunds []model.Refund, txns []model.LedgerTransaction) *plan.Plan {
	r := &run{
		plan:           plan.New(),
		txns:           make(map[string]model.LedgerTransaction),
		sources:        make(map[string]*source),
		pairs:          make(map[string]MatchCandidate),
		assignedTxn:    make(map[string]bool),
		assignedSource: make(map[string]bool),
		blockedSource:  make(map[string]bool),
	}
	r.plan.Summary.Orders = len(orders)
	r.plan.Summary.Refunds = len(refunds)
	r.plan.Summary.Transactions = len(txns)

	eligible := m.eligibleTransactions(r, txns)
	r.plan.Summary.EligibleTxns = len(eligible)

	validOrders := m.validOrders(r, orders)
	validRefunds := m.validRefunds(r, refunds)
	combined := m.combinedRefunds(r, validRefunds)

	candidates := m.findCandidates(validOrders, append(append([]*model.Refund{}, validRefunds...), combined...), eligible)
	m.assign(r, candidates)

	linked := make(map[string]*model.Order)
	for i := range validOrders {
		if _, ok := linked[validOrders[i].OrderID]; !ok {
			linked[validOrders[i].OrderID] = validOrders[i]
		}
	}
	m.buildEntries(r, linked)
	m.collectUnmatched(r, validOrders, validRefunds)

	r.plan.Summary.UntouchedLedgerTxns = len(eligible) - len(r.plan.Entries)
	r.plan.Finalize()
	return r.plan
}

// eligibleTransactions applies the idempotency guard and filters before any
// amount or date is compared.
func (m *Matcher) eligibleTransactions(r *run, txns []model.LedgerTransaction) []model.LedgerTransaction {
	counts := make(map[string]int, len(txns))
	for _, t := range txns {
		counts[t.ID]++
	}

	var eligible []model.LedgerTransaction
	duplicateWarned := make(map[string]bool)
	for _, t := range txns {
		if t.IsEditedByTool || t.IsSplit {
			continue
		}
		if t.ID == "" {
			r.plan.Warn(plan.WarnMalformed, "", "ledger transaction without id")
			continue
		}
		if counts[t.ID] > 1 {
			if !duplicateWarned[t.ID] {
				duplicateWarned[t.ID] = true
				r.plan.Warn(plan.WarnInvariant, t.ID, fmt.Sprintf("transaction id appears %d times in the ledger snapshot", counts[t.ID]))
			}
			continue
		}
		if m.config.SkipPending && t.Pending {
			continue
		}
		if t.Amount.IsZero() {
			continue
		}
		if !t.MerchantContains(m.config.MerchantFilter) {
			continue
		}
		eligible = append(eligible, t)
		r.txns[t.ID] = t
	}

	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })
	return eligible
}

func (m *Matcher) validOrders(r *run, orders []model.Order) []*model.Order {
	var valid []*model.Order
	for i := range orders {
		o := &orders[i]
		key := o.Key()
		id := sourceID(plan.SourceOrder, key)
		if _, dup := r.sources[id]; dup {
			r.plan.Warn(plan.WarnInvariant, key, "duplicate order shipment")
			r.blockedSource[id] = true
			continue
		}
		if v := validator.ValidateOrder(*o); !v.Valid {
			r.plan.Warn(plan.WarnInvariant, key, v.Reason)
			r.sources[id] = &source{kind: plan.SourceOrder, key: key, order: o}
			r.blockedSource[id] = true
			continue
		}
		r.sources[id] = &source{kind: plan.SourceOrder, key: key, order: o}
		valid = append(valid, o)
	}
	return valid
}

func (m *Matcher) validRefunds(r *run, refunds []model.Refund) []*model.Refund {
	var valid []*model.Refund
	for i := range refunds {
		rf := &refunds[i]
		key := rf.Key()
		id := sourceID(plan.SourceRefund, key)
		if _, dup := r.sources[id]; dup {
			continue
		}
		if !rf.Amount.IsPositive() {
			r.plan.Warn(plan.WarnMalformed, key, "refund amount is not positive")
			continue
		}
		r.sources[id] = &source{kind: plan.SourceRefund, key: key, refund: rf}
		valid = append(valid, rf)
	}
	return valid
}

// combinedRefunds registers the refund groups as sources of their own.
func (m *Matcher) combinedRefunds(r *run, refunds []*model.Refund) []*model.Refund {
	var out []*model.Refund
	for _, g := range groupRefunds(refunds) {
		rf := g.refund
		id := sourceID(plan.SourceRefund, rf.Key())
		if _, dup := r.sources[id]; dup {
			continue
		}
		members := make([]string, len(g.members))
		for i, mem := range g.members {
			members[i] = sourceID(plan.SourceRefund, mem.Key())
		}
		r.sources[id] = &source{kind: plan.SourceRefund, key: rf.Key(), refund: &rf, members: members}
		out = append(out, &rf)
	}
	return out
}

// findCandidates returns every amount and date compatible pairing, sorted
// by absolute date delta, transaction id, then source.
func (m *Matcher) findCandidates(orders []*model.Order, refunds []*model.Refund, txns []model.LedgerTransaction) []MatchCandidate {
	var out []MatchCandidate

	for _, t := range txns {
		if t.IsDebit() {
			charge := t.Amount.Neg()
			for _, o := range orders {
				if !charge.WithinEpsilon(o.TotalCharged) {
					continue
				}
				delta := model.DaysBetween(o.ShipmentDate, t.Date)
				if !m.inWindow(delta) {
					continue
				}
				out = append(out, MatchCandidate{
					TransactionID: t.ID,
					SourceKind:    plan.SourceOrder,
					SourceKey:     o.Key(),
					AmountDelta:   charge.Sub(o.TotalCharged),
					DateDelta:     delta,
				})
			}
			continue
		}

		for _, rf := range refunds {
			if !t.Amount.WithinEpsilon(rf.Amount) {
				continue
			}
			delta := model.DaysBetween(rf.RefundDate, t.Date)
			if !m.inWindow(delta) {
				continue
			}
			out = append(out, MatchCandidate{
				TransactionID: t.ID,
				SourceKind:    plan.SourceRefund,
				SourceKey:     rf.Key(),
				AmountDelta:   t.Amount.Sub(rf.Amount),
				DateDelta:     delta,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.absDelta() != b.absDelta() {
			return a.absDelta() < b.absDelta()
		}
		if a.TransactionID != b.TransactionID {
			return a.TransactionID < b.TransactionID
		}
		if a.SourceKind != b.SourceKind {
			return a.SourceKind < b.SourceKind
		}
		return a.SourceKey < b.SourceKey
	})
	return out
}

func (m *Matcher) inWindow(delta int) bool {
	return delta >= -m.config.DaysBefore && delta <= m.config.DaysAfter
}

// assign walks the sorted candidates and takes every pairing whose
// transaction and source are both still free. Source keys are unique, so the
// candidate order is total and no tie is left to guess.
func (m *Matcher) assign(r *run, candidates []MatchCandidate) {
	for _, c := range candidates {
		if r.assignedTxn[c.TransactionID] {
			continue
		}
		id := sourceID(c.SourceKind, c.SourceKey)
		if !r.sourceOpen(id) {
			continue
		}
		r.assignedTxn[c.TransactionID] = true
		r.assignedSource[id] = true
		for _, member := range r.sources[id].members {
			r.assignedSource[member] = true
		}
		r.pairs[c.TransactionID] = c
	}
}

// sourceOpen reports whether a source, and every refund it combines, is
// still unassigned.
func (r *run) sourceOpen(id string) bool {
	if r.assignedSource[id] || r.blockedSource[id] {
		return false
	}
	for _, member := range r.sources[id].members {
		if r.assignedSource[member] {
			return false
		}
	}
	return true
}

// buildEntries turns assignments into plan entries.
func (m *Matcher) buildEntries(r *run, linked map[string]*model.Order) {
	txnIDs := make([]string, 0, len(r.pairs))
	for id := range r.pairs {
		txnIDs = append(txnIDs, id)
	}
	sort.Strings(txnIDs)

	for _, txnID := range txnIDs {
		c := r.pairs[txnID]
		txn := r.txns[txnID]
		src := r.sources[sourceID(c.SourceKind, c.SourceKey)]

		var entry plan.Entry
		switch src.kind {
		case plan.SourceOrder:
			e, err := m.splitter.ForOrder(*src.order, txn)
			if err != nil {
				r.plan.Warn(plan.WarnInvariant, src.key, err.Error())
				continue
			}
			entry = e
		case plan.SourceRefund:
			entry = m.splitter.ForRefund(*src.refund, linked[src.refund.OrderID], txn)
			if n := len(src.members); n > 0 {
				entry.Rationale = fmt.Sprintf("%d refunds combined; %s", n, entry.Rationale)
			}
		}
		entry.DateDelta = c.DateDelta
		r.plan.Entries = append(r.plan.Entries, entry)
	}
}

// collectUnmatched reports valid orders and refunds that found no transaction.
func (m *Matcher) collectUnmatched(r *run, orders []*model.Order, refunds []*model.Refund) {
	for _, o := range orders {
		id := sourceID(plan.SourceOrder, o.Key())
		if r.assignedSource[id] || r.blockedSource[id] {
			continue
		}
		r.plan.Unmatched = append(r.plan.Unmatched, plan.Unmatched{
			SourceKind: plan.SourceOrder,
			SourceKey:  o.Key(),
			Date:       o.ShipmentDate.Format("2006-01-02"),
			Amount:     o.TotalCharged,
		})
	}
	for _, rf := range refunds {
		id := sourceID(plan.SourceRefund, rf.Key())
		if r.assignedSource[id] || r.blockedSource[id] {
			continue
		}
		r.plan.Unmatched = append(r.plan.Unmatched, plan.Unmatched{
			SourceKind: plan.SourceRefund,
			SourceKey:  rf.Key(),
			Date:       rf.RefundDate.Format("2006-01-02"),
			Amount:     rf.Amount,
		})
	}
}
