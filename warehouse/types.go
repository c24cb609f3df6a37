// Package warehouse holds the DTOs the warehouse service consumes.
package warehouse

import (
	"iter"
	"time"
)

// Address is a shipping address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Customer is the warehouse view of a store customer.
type Customer struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Address  *Address `json:"address,omitempty"`
	IsActive bool     `json:"is_active"`
	Tags     []string `json:"tags,omitempty"`
	Segment  string   `json:"segment"`
}

// Order is a purchase to be picked and shipped.
type Order struct {
	ID         int64       `json:"id"`
	CustomerID int64       `json:"customer_id"`
	Status     string      `json:"status"` // e.g. "pending", "paid", "shipped", "cancelled"
	Items      []OrderItem `json:"items"`
	Shipping   Address     `json:"shipping"`
	TotalCents int64       `json:"total_cents"`
	OrderedAt  time.Time   `json:"ordered_at"`
}

// OrderItem is a line item within an order.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"` // in cents
	LineTotal int64  `json:"line_total"` // UnitPrice * Quantity
}

// Batch is a set of orders processed together. Orders are produced lazily.
type Batch struct {
	ID     string          `json:"-"`
	Orders iter.Seq[Order] `json:"-"`
}
