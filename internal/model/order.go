package model

import "time"

// OrderStatus tracks fulfilment.  The lifecycle is driven outside this
// service; orders are only read here.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderItem is one purchased line, priced at order time.
type OrderItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Material       string `json:"material"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Order records a checkout.  ShippingAddress is a snapshot, not a
// reference, so later address edits do not rewrite history.
type Order struct {
	ID              string      `json:"id"`
	OwnerID         string      `json:"owner_id"`
	Items           []OrderItem `json:"items"`
	TotalCents      int64       `json:"total_cents"`
	ShippingAddress Address     `json:"shipping_address"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}
