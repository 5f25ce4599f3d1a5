package amazon

// Column names of the Amazon order history reports
const (
	ColOrderID      = "Order ID"
	ColOrderDate    = "Order Date"
	ColShipmentDate = "Shipment Date"
	ColTracking     = "Carrier Name & Tracking Number"

	// Items report
	ColTitle        = "Title"
	ColCategory     = "Category"
	ColQuantity     = "Quantity"
	ColUnitPrice    = "Purchase Price Per Unit"
	ColItemSubtotal = "Item Subtotal"
	ColItemTax      = "Item Subtotal Tax"

	// Orders and shipments report
	ColSubtotal   = "Subtotal"
	ColShipping   = "Shipping Charge"
	ColTaxCharged = "Tax Charged"
	ColPromotions = "Total Promotions"
	ColTotal      = "Total Charged"

	// Refunds report
	ColRefundDate   = "Refund Date"
	ColRefundAmount = "Refund Amount"
	ColRefundTax    = "Refund Tax Amount"
	ColRefundReason = "Refund Reason"
)

// Report sources, as used in MalformedInputError.Source
const (
	SourceItems   = "items"
	SourceOrders  = "orders"
	SourceRefunds = "refunds"
)

var (
	itemColumns   = []string{ColOrderID, ColOrderDate, ColTitle, ColQuantity, ColItemSubtotal}
	orderColumns  = []string{ColOrderID, ColOrderDate, ColTotal}
	refundColumns = []string{ColOrderID, ColRefundDate, ColRefundAmount}
)

// ProviderConfig holds the report file locations
type ProviderConfig struct {
	ItemsPath   string
	OrdersPath  string
	RefundsPath string // optional
}
