package orders

import "time"

// Status enumerates order lifecycle states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// CanTransition reports whether moving from s to next is legal.
// PENDING -> {SHIPPED, CANCELLED}; SHIPPED -> {DELIVERED, CANCELLED};
// DELIVERED and CANCELLED are terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered || next == StatusCancelled
	}
	return false
}

// Order owns a set of line items. TotalAmount is derived from the item price
// snapshots and never recomputed from current product prices.
type Order struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	CustomerName    string    `json:"customer_name"`
	TotalAmount     float64   `json:"total_amount"`
	Status          Status    `json:"status"`
	ShippingAddress string    `json:"shipping_address"`
	BillingAddress  string    `json:"billing_address"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Items           []Item    `json:"order_items"`
}

// Item captures the unit price at order-creation time; product price changes
// never retroactively affect historical orders.
type Item struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
}

// ProductRef is a locked product row read during placement.
type ProductRef struct {
	ID       int64
	Price    float64
	Quantity int64
}

// ListFilter filters order listings.
type ListFilter struct {
	UserID int64
	Status Status
	Limit  int
	Offset int
}
