package model

import "time"

// OrderKind distinguishes how an order is fulfilled.
type OrderKind string

const (
	KindDelivery OrderKind = "Delivery"
	KindDineIn   OrderKind = "Dine-in"
	KindTakeaway OrderKind = "Takeaway"
)

// ValidKind reports whether k is one of the known order kinds.
func ValidKind(k OrderKind) bool {
	switch k {
	case KindDelivery, KindDineIn, KindTakeaway:
		return true
	}
	return false
}

// PaymentMethod selects the payment path chosen at order time.
type PaymentMethod string

const (
	PayOnline   PaymentMethod = "OnlineCheckout" // hosted checkout session, settled asynchronously
	PayInPerson PaymentMethod = "PayInPerson"    // cash at the counter, collected later by staff
)

// ValidPaymentMethod reports whether m is one of the known payment methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PayOnline || m == PayInPerson
}

// OrderStatus is the order state machine's tagged state.  Paid and
// Cancelled are terminal.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusPreparing OrderStatus = "Preparing"
	StatusServed    OrderStatus = "Served"
	StatusPaid      OrderStatus = "Paid"
	StatusCancelled OrderStatus = "Cancelled"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusServed, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s OrderStatus) Terminal() bool { return s == StatusPaid || s == StatusCancelled }

// OrderItem is a line item embedded in an order.  Name and PriceCents are
// snapshots taken at order time; later menu price changes never affect a
// historical order.
type OrderItem struct {
	MenuItemID uint64 `json:"menu_item_id"` // references menu_items.id
	Name       string `json:"name"`         // name snapshot
	PriceCents int64  `json:"price_cents"`  // unit price snapshot
	Quantity   int64  `json:"quantity"`     // units ordered, always >= 1
}

// Order is the durable record of a placed order.  Status and Payment are
// mutated only by the lifecycle coordinator; StockReleased guards the
// compensation path so a reservation is never credited back twice.
type Order struct {
	ID            uint64        `json:"id"`
	UserID        uint64        `json:"user_id"`
	BranchID      *uint64       `json:"branch_id,omitempty"` // nil for orders not tied to a branch
	TableID       *uint64       `json:"table_id,omitempty"`  // nil unless dine-in with a chosen table
	Kind          OrderKind     `json:"order_type"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Items         []OrderItem   `json:"items"`
	AmountCents   int64         `json:"amount_cents"` // total, snapshot prices times quantities
	Address       string        `json:"address,omitempty"`
	Status        OrderStatus   `json:"status"`
	Payment       bool          `json:"payment"`        // true once settlement is captured
	StockReleased bool          `json:"stock_released"` // true once the reservation has been compensated
	CreatedAt     time.Time     `json:"created_at"`
}
