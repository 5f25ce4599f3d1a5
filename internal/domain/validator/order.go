// Package validator checks order totals and split amounts before the matcher
// or applier acts on them.
//
// An order shipment is only itemized when its parts reconcile:
//
//	sum(item subtotal) + tax + shipping - promotions ≈ total charged
//
// Tax is the shipment-level tax when the report has one, otherwise the sum of
// per-item tax.
package validator

import (
	"fmt"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

// OrderValidation contains the result of validating an order shipment.
type OrderValidation struct {
	// Valid is true if the parts add up to the charged total
	Valid bool

	ItemsSum   money.Money
	Tax        money.Money
	Shipping   money.Money
	Promotions money.Money

	// Expected is what the parts add up to
	Expected money.Money

	// Charged is the total from the report
	Charged money.Money

	// Difference is Charged - Expected
	Difference money.Money

	// Reason explains why validation failed (empty if valid)
	Reason string
}

// ValidateOrder checks the order invariant within money.Epsilon.
func ValidateOrder(order model.Order) *OrderValidation {
	v := &OrderValidation{
		ItemsSum:   order.ItemsSubtotal(),
		Tax:        order.TaxTotal(),
		Shipping:   order.ShippingCharge,
		Promotions: order.Promotions,
		Expected:   order.ExpectedTotal(),
		Charged:    order.TotalCharged,
	}
	v.Difference = v.Charged.Sub(v.Expected)

	switch {
	case len(order.Items) == 0:
		v.Reason = "shipment has no items"
	case !order.TotalCharged.IsPositive():
		v.Reason = fmt.Sprintf("total charged %s is not positive", order.TotalCharged)
	case v.Charged.WithinEpsilon(v.Expected):
		v.Valid = true
	case v.Difference.IsNegative():
		v.Reason = fmt.Sprintf("total charged (%s) is less than items+tax+shipping (%s) by %s",
			v.Charged, v.Expected, v.Difference.Neg())
	default:
		v.Reason = fmt.Sprintf("total charged (%s) exceeds items+tax+shipping (%s) by %s",
			v.Charged, v.Expected, v.Difference)
	}

	return v
}

// Err returns an InvariantViolation for a failed validation, nil otherwise.
func (v *OrderValidation) Err(key string) error {
	if v.Valid {
		return nil
	}
	return &model.InvariantViolation{Key: key, Reason: v.Reason}
}

// SplitValidation is the result of checking split amounts against the
// transaction they replace.
type SplitValidation struct {
	Valid      bool
	SubsSum    money.Money
	Expected   money.Money
	Difference money.Money
	Reason     string
}

// ValidateSplit checks that the sub-amounts add up to the transaction
// amount exactly and carry its sign. No tolerance is applied.
func ValidateSplit(subs []money.Money, txnAmount money.Money) *SplitValidation {
	sum := money.Sum(subs...)
	v := &SplitValidation{
		SubsSum:    sum,
		Expected:   txnAmount,
		Difference: txnAmount.Sub(sum),
	}

	if len(subs) < 2 {
		v.Reason = fmt.Sprintf("a split needs at least 2 lines, got %d", len(subs))
		return v
	}
	for i, s := range subs {
		if s.Sign() != 0 && s.Sign() != txnAmount.Sign() {
			v.Reason = fmt.Sprintf("line %d amount %s has the wrong sign for %s", i+1, s, txnAmount)
			return v
		}
	}
	if !sum.Equal(txnAmount) {
		v.Reason = fmt.Sprintf("split lines sum to %s, transaction is %s", sum, txnAmount)
		return v
	}

	v.Valid = true
	return v
}
