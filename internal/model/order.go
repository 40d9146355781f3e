package model

import "time"

// OrderStatus is the fixed lowercase status vocabulary.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderProcessing     OrderStatus = "processing"
	OrderPacked         OrderStatus = "packed"
	OrderShipped        OrderStatus = "shipped"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// OrderProgression is the forward path an order walks. Cancelled is terminal
// and sits outside it.
var OrderProgression = []OrderStatus{
	OrderPending,
	OrderProcessing,
	OrderPacked,
	OrderShipped,
	OrderOutForDelivery,
	OrderDelivered,
}

// Order is the canonical order record.
type Order struct {
	ID              string        `json:"id"`
	Status          OrderStatus   `json:"status"`
	PaymentStatus   string        `json:"payment_status,omitempty"`
	PaymentMethod   string        `json:"payment_method,omitempty"`
	Items           []OrderItem   `json:"items"`
	Total           Money         `json:"total"`
	Customer        Customer      `json:"customer"`
	ShippingAddress Address       `json:"shipping_address"`
	CreatedAt       *time.Time    `json:"created_at,omitempty"`
	StatusUpdatedAt *time.Time    `json:"status_updated_at,omitempty"`

	// Simulated marks a status that was advanced locally and never sent to the
	// backend. A reload reverts to the server-reported status.
	Simulated bool `json:"simulated,omitempty"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID    string `json:"product_id"`
	Title        string `json:"title"`
	Image        string `json:"image,omitempty"`
	SelectedSize string `json:"selected_size,omitempty"`
	Quantity     int    `json:"quantity"`
	Price        Money  `json:"price"`
}

// Customer identifies who placed an order.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Address is a shipping address.
type Address struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required,min=6"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code,omitempty"`
}

// CheckoutForm is what the checkout page submits.
type CheckoutForm struct {
	ShippingAddress Address `json:"shipping_address" validate:"required"`
	PaymentMethod   string  `json:"payment_method" validate:"required,oneof=cod bkash card"`
	Email           string  `json:"email,omitempty" validate:"omitempty,email"`
	Note            string  `json:"note,omitempty"`
}

// CustomerSummary aggregates orders per customer for the admin console.
type CustomerSummary struct {
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone,omitempty"`
	OrderCount  int        `json:"order_count"`
	TotalSpent  Money      `json:"total_spent"`
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`
}
