package aggregator

import (
	"time"

	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

// ItemRow is one line of the items report with amounts already parsed.
type ItemRow struct {
	Line         int
	OrderID      string
	OrderDate    time.Time
	Title        string
	Category     string
	Quantity     int
	UnitPrice    money.Money
	Subtotal     money.Money
	Tax          money.Money
	ShipmentDate time.Time
	Tracking     string
}

// OrderRow is one line of the orders and shipments report.
type OrderRow struct {
	Line         int
	OrderID      string
	OrderDate    time.Time
	ShipmentDate time.Time
	Tracking     string
	Subtotal     money.Money
	Shipping     money.Money
	Tax          money.Money
	Promotions   money.Money
	Total        money.Money
}

// RefundRow is one line of the refunds report.
type RefundRow struct {
	Line       int
	OrderID    string
	OrderDate  time.Time
	Title      string
	Category   string
	Quantity   int
	RefundDate time.Time
	Amount     money.Money
	Tax        money.Money
	Reason     string
}
