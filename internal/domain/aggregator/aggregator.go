// Package aggregator groups report rows into order shipments and refunds.
//
// One Order is produced per (order id, shipment). A shipment is identified by
// its tracking number, or by its shipment date when the report has no
// tracking. Items attach to the shipment with the same tracking number, then
// the same shipment date, then the only shipment of the order.
//
// Rows that cannot be used are skipped and reported as warnings; aggregation
// never fails as a whole.
package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

// Stats summarizes what was aggregated.
type Stats struct {
	ItemRows         int
	OrderRows        int
	RefundRows       int
	Orders           int
	Items            int
	Refunds          int
	QuantityAdjusted int
	FirstOrderDate   time.Time
	LastOrderDate    time.Time
	TotalCharged     money.Money
	TotalRefunded    money.Money
}

// Result is the output of Aggregate.
type Result struct {
	Orders   []model.Order
	Refunds  []model.Refund
	Warnings []error
	Stats    Stats
}

// Aggregate builds orders and refunds from parsed report rows.
func Aggregate(items []ItemRow, orders []OrderRow, refunds []RefundRow) *Result {
	res := &Result{}
	res.Stats.ItemRows = len(items)
	res.Stats.OrderRows = len(orders)
	res.Stats.RefundRows = len(refunds)

	shipments, byOrder := res.collectShipments(orders)
	res.attachItems(items, shipments, byOrder)
	res.finishShipments(shipments, byOrder)
	res.collectRefunds(refunds)

	res.Stats.Orders = len(res.Orders)
	res.Stats.Refunds = len(res.Refunds)
	for _, o := range res.Orders {
		res.Stats.Items += len(o.Items)
		res.Stats.TotalCharged = res.Stats.TotalCharged.Add(o.TotalCharged)
		if res.Stats.FirstOrderDate.IsZero() || o.OrderDate.Before(res.Stats.FirstOrderDate) {
			res.Stats.FirstOrderDate = o.OrderDate
		}
		if o.OrderDate.After(res.Stats.LastOrderDate) {
			res.Stats.LastOrderDate = o.OrderDate
		}
	}
	for _, r := range res.Refunds {
		res.Stats.TotalRefunded = res.Stats.TotalRefunded.Add(r.Amount)
	}

	return res
}

func (res *Result) warn(err error) {
	res.Warnings = append(res.Warnings, err)
}

func malformed(source string, line int, field string, msg string) error {
	return &model.MalformedInputError{Source: source, Row: line, Field: field, Err: errors.New(msg)}
}

// collectShipments turns order rows into keyed shipments. Identical duplicate
// rows collapse; a conflicting duplicate is skipped.
func (res *Result) collectShipments(rows []OrderRow) (map[string]*model.Order, map[string][]string) {
	shipments := make(map[string]*model.Order)
	byOrder := make(map[string][]string)

	for _, row := range rows {
		if row.OrderID == "" {
			res.warn(malformed("orders", row.Line, "Order ID", "missing order id"))
			continue
		}
		if row.Total.IsZero() {
			res.warn(malformed("orders", row.Line, "Total Charged", "zero total"))
			continue
		}
		if row.ShipmentDate.IsZero() && row.Tracking == "" {
			res.warn(malformed("orders", row.Line, "Shipment Date", "shipment has neither a date nor tracking"))
			continue
		}

		o := &model.Order{
			OrderID:        row.OrderID,
			OrderDate:      row.OrderDate,
			ShipmentDate:   row.ShipmentDate,
			Tracking:       row.Tracking,
			Subtotal:       row.Subtotal,
			ShippingCharge: row.Shipping,
			Promotions:     row.Promotions.Abs(),
			Tax:            row.Tax,
			TotalCharged:   row.Total,
		}
		if o.ShipmentDate.IsZero() {
			o.ShipmentDate = o.OrderDate
		}

		key := o.Key()
		if existing, ok := shipments[key]; ok {
			if !sameShipment(existing, o) {
				res.warn(malformed("orders", row.Line, "", fmt.Sprintf("conflicting duplicate shipment %s", key)))
			}
			continue
		}
		shipments[key] = o
		byOrder[o.OrderID] = append(byOrder[o.OrderID], key)
	}

	return shipments, byOrder
}

func sameShipment(a, b *model.Order) bool {
	return a.TotalCharged.Equal(b.TotalCharged) &&
		a.Subtotal.Equal(b.Subtotal) &&
		a.ShippingCharge.Equal(b.ShippingCharge) &&
		a.Tax.Equal(b.Tax) &&
		a.Promotions.Equal(b.Promotions)
}

func (res *Result) attachItems(rows []ItemRow, shipments map[string]*model.Order, byOrder map[string][]string) {
	for _, row := range rows {
		if row.OrderID == "" {
			res.warn(malformed("items", row.Line, "Order ID", "missing order id"))
			continue
		}
		keys, ok := byOrder[row.OrderID]
		if !ok {
			res.warn(malformed("items", row.Line, "Order ID", fmt.Sprintf("unknown order id %s", row.OrderID)))
			continue
		}
		if row.Quantity <= 0 {
			res.warn(malformed("items", row.Line, "Quantity", fmt.Sprintf("invalid quantity %d", row.Quantity)))
			continue
		}
		if row.Subtotal.IsNegative() {
			res.warn(malformed("items", row.Line, "Item Subtotal", "negative subtotal"))
			continue
		}

		target := pickShipment(row, keys, shipments)
		if target == nil {
			res.warn(malformed("items", row.Line, "Carrier Name & Tracking Number",
				fmt.Sprintf("cannot attribute item to one of %d shipments of order %s", len(keys), row.OrderID)))
			continue
		}

		target.Items = append(target.Items, model.Item{
			OrderID:      row.OrderID,
			Title:        row.Title,
			CategoryRaw:  row.Category,
			Quantity:     row.Quantity,
			UnitPrice:    row.UnitPrice,
			ItemTotal:    row.Subtotal,
			ItemTax:      row.Tax,
			ShipmentDate: row.ShipmentDate,
			Tracking:     row.Tracking,
		})
	}
}

func pickShipment(row ItemRow, keys []string, shipments map[string]*model.Order) *model.Order {
	if row.Tracking != "" {
		for _, k := range keys {
			if shipments[k].Tracking == row.Tracking {
				return shipments[k]
			}
		}
	}
	if !row.ShipmentDate.IsZero() {
		var match *model.Order
		for _, k := range keys {
			if shipments[k].ShipmentDate.Equal(row.ShipmentDate) {
				if match != nil {
					match = nil
					break
				}
				match = shipments[k]
			}
		}
		if match != nil {
			return match
		}
	}
	if len(keys) == 1 {
		return shipments[keys[0]]
	}
	return nil
}

// finishShipments repairs partial shipments, then emits orders in a stable order.
func (res *Result) finishShipments(shipments map[string]*model.Order, byOrder map[string][]string) {
	keys := make([]string, 0, len(shipments))
	for k := range shipments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Items as reported, before any shipment is scaled down
	reported := make(map[string][]model.Item, len(byOrder))
	for _, k := range keys {
		o := shipments[k]
		reported[o.OrderID] = append(reported[o.OrderID], o.Items...)
	}

	for _, k := range keys {
		o := shipments[k]
		if !o.Subtotal.IsZero() && !o.ItemsSubtotal().Equal(o.Subtotal) {
			if res.adjustPartialShipment(o, reported[o.OrderID]) {
				res.Stats.QuantityAdjusted++
			}
		}
	}

	for _, k := range keys {
		o := shipments[k]
		if len(o.Items) == 0 {
			res.warn(&model.InvariantViolation{Key: k, Reason: "shipment has no items"})
			continue
		}
		res.Orders = append(res.Orders, *o)
	}

	sort.SliceStable(res.Orders, func(i, j int) bool {
		a, b := res.Orders[i], res.Orders[j]
		if a.OrderID != b.OrderID {
			return a.OrderID < b.OrderID
		}
		if !a.ShipmentDate.Equal(b.ShipmentDate) {
			return a.ShipmentDate.Before(b.ShipmentDate)
		}
		return a.Tracking < b.Tracking
	})
}

// adjustPartialShipment handles one item whose quantity was split across
// shipments. The items report lists it once with the full quantity; the
// shipment that received k units is recognized by unit price * k == shipment
// subtotal, and gets a copy of the item scaled to k units. An empty shipment
// picks from every item reported for the order, whichever shipment holds it.
func (res *Result) adjustPartialShipment(o *model.Order, reported []model.Item) bool {
	var candidates []model.Item
	switch len(o.Items) {
	case 0:
		candidates = reported
	case 1:
		candidates = o.Items
	default:
		return false
	}

	for _, item := range candidates {
		adjusted, ok := scaleItem(item, o.Subtotal)
		if !ok {
			continue
		}
		adjusted.ShipmentDate = o.ShipmentDate
		adjusted.Tracking = o.Tracking
		o.Items = []model.Item{adjusted}
		return true
	}
	return false
}

// scaleItem finds k in [1, quantity) with unitPrice * k == target.
func scaleItem(item model.Item, target money.Money) (model.Item, bool) {
	if item.Quantity <= 1 || item.UnitPrice.IsZero() {
		return model.Item{}, false
	}
	for k := 1; k < item.Quantity; k++ {
		if !item.UnitPrice.Mul(int64(k)).Equal(target) {
			continue
		}
		scaled := item
		scaled.Quantity = k
		scaled.ItemTotal = item.UnitPrice.Mul(int64(k))
		scaled.ItemTax = item.ItemTax.Scale(int64(k), int64(item.Quantity))
		return scaled, true
	}
	return model.Item{}, false
}

// collectRefunds builds one Refund per (order id, refund date, amount).
func (res *Result) collectRefunds(rows []RefundRow) {
	seen := make(map[string]bool)

	for _, row := range rows {
		if row.OrderID == "" {
			res.warn(malformed("refunds", row.Line, "Order ID", "missing order id"))
			continue
		}
		if row.RefundDate.IsZero() {
			res.warn(malformed("refunds", row.Line, "Refund Date", "missing refund date"))
			continue
		}
		amount := row.Amount.Add(row.Tax).Abs()
		if amount.IsZero() {
			res.warn(malformed("refunds", row.Line, "Refund Amount", "zero refund amount"))
			continue
		}

		quantity := row.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		r := model.Refund{
			OrderID:     row.OrderID,
			OrderDate:   row.OrderDate,
			RefundDate:  row.RefundDate,
			Amount:      amount,
			Reason:      row.Reason,
			Title:       row.Title,
			CategoryRaw: row.Category,
			Quantity:    quantity,
		}
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		res.Refunds = append(res.Refunds, r)
	}

	sort.SliceStable(res.Refunds, func(i, j int) bool {
		return res.Refunds[i].Key() < res.Refunds[j].Key()
	})
}
