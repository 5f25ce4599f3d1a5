// Package allocator distributes an amount across order items in proportion
// to their pre-tax subtotals.
//
// Every share is truncated to whole cents toward zero and whatever is left
// over goes to the last item, so the shares always add up to the total exactly:
//
//	share_i = trunc(total * weight_i / sum(weights))   for i < n-1
//	share_n = total - sum(share_1 .. share_n-1)
package allocator

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

// Item is a weighted recipient of an allocation.
type Item struct {
	Name   string
	Weight money.Money
}

// Allocation is the share assigned to one item.
type Allocation struct {
	Name      string
	Weight    money.Money
	Allocated money.Money
}

// Result contains the allocation results.
type Result struct {
	Allocations    []Allocation
	TotalAllocated money.Money
}

// Allocate distributes total across items proportionally to their weights.
// A negative total is allowed and every share carries its sign. When all
// weights are zero the total is split evenly.
func Allocate(items []Item, total money.Money) (*Result, error) {
	if len(items) == 0 {
		return nil, errors.New("no items to allocate")
	}

	sumWeights := decimal.Zero
	for _, item := range items {
		if item.Weight.IsNegative() {
			return nil, errors.New("item weight cannot be negative")
		}
		sumWeights = sumWeights.Add(item.Weight.Decimal())
	}

	allocations := make([]Allocation, len(items))
	allocated := money.Zero
	last := len(items) - 1

	for i, item := range items {
		allocations[i] = Allocation{Name: item.Name, Weight: item.Weight}
		if i == last {
			break
		}

		var share decimal.Decimal
		if sumWeights.IsZero() {
			share = total.Decimal().Div(decimal.NewFromInt(int64(len(items))))
		} else {
			share = total.Decimal().Mul(item.Weight.Decimal()).Div(sumWeights)
		}
		allocations[i].Allocated = money.New(share.Truncate(2))
		allocated = allocated.Add(allocations[i].Allocated)
	}

	// Remainder to the last item
	allocations[last].Allocated = total.Sub(allocated)

	return &Result{
		Allocations:    allocations,
		TotalAllocated: total,
	}, nil
}

// Spread returns base[i] plus a proportional share of (total - sum(base)),
// weighted by base. The returned amounts add up to total exactly.
func Spread(base []money.Money, total money.Money) ([]money.Money, error) {
	items := make([]Item, len(base))
	sum := money.Zero
	for i, b := range base {
		items[i] = Item{Weight: b}
		sum = sum.Add(b)
	}

	result, err := Allocate(items, total.Sub(sum))
	if err != nil {
		return nil, err
	}

	out := make([]money.Money, len(base))
	for i, a := range result.Allocations {
		out[i] = base[i].Add(a.Allocated)
	}
	return out, nil
}
