package matcher

import (
	"sort"
	"strings"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
	"github.com/eshaffer321/amazon-tagger/internal/domain/splitter"
)

// refundGroup is several refunds of one order that the bank may have posted
// as a single credit. Amazon reports a multi-item return as one row per item.
type refundGroup struct {
	refund  model.Refund
	members []*model.Refund
}

// groupRefunds returns the combined refunds of each order: one per refund
// date with more than one row, and one for the whole order when its refunds
// span several dates. refunds must be sorted by key.
func groupRefunds(refunds []*model.Refund) []refundGroup {
	byOrder := make(map[string][]*model.Refund)
	var orderIDs []string
	for _, rf := range refunds {
		if _, ok := byOrder[rf.OrderID]; !ok {
			orderIDs = append(orderIDs, rf.OrderID)
		}
		byOrder[rf.OrderID] = append(byOrder[rf.OrderID], rf)
	}
	sort.Strings(orderIDs)

	var groups []refundGroup
	for _, id := range orderIDs {
		members := byOrder[id]
		if len(members) < 2 {
			continue
		}

		byDate := make(map[string][]*model.Refund)
		var dates []string
		for _, rf := range members {
			d := rf.RefundDate.Format("2006-01-02")
			if _, ok := byDate[d]; !ok {
				dates = append(dates, d)
			}
			byDate[d] = append(byDate[d], rf)
		}
		sort.Strings(dates)

		for _, d := range dates {
			if len(byDate[d]) > 1 {
				groups = append(groups, combineRefunds(byDate[d]))
			}
		}
		if len(dates) > 1 {
			groups = append(groups, combineRefunds(members))
		}
	}
	return groups
}

// combineRefunds sums the members into one refund dated on the latest member.
func combineRefunds(members []*model.Refund) refundGroup {
	combined := model.Refund{
		OrderID:  members[0].OrderID,
		Quantity: 1,
	}

	amounts := make([]money.Money, 0, len(members))
	var titles, reasons []string
	seenReason := make(map[string]bool)
	category := members[0].CategoryRaw
	for _, rf := range members {
		amounts = append(amounts, rf.Amount)
		if rf.RefundDate.After(combined.RefundDate) {
			combined.RefundDate = rf.RefundDate
		}
		if combined.OrderDate.IsZero() {
			combined.OrderDate = rf.OrderDate
		}
		if rf.Title != "" {
			titles = append(titles, splitter.ItemTitle(rf.Title, rf.Quantity, len(rf.Title)+8))
		}
		if rf.Reason != "" && !seenReason[rf.Reason] {
			seenReason[rf.Reason] = true
			reasons = append(reasons, rf.Reason)
		}
		if rf.CategoryRaw != category {
			category = ""
		}
	}

	combined.Amount = money.Sum(amounts...)
	combined.Title = strings.Join(titles, ", ")
	combined.Reason = strings.Join(reasons, "; ")
	combined.CategoryRaw = category

	return refundGroup{refund: combined, members: members}
}
