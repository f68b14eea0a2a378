package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order is the immutable record created at checkout. Item prices are captured
// by value so later catalog edits never alter historical orders.
type Order struct {
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Tax             decimal.Decimal `json:"tax"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ProductID      string            `json:"product_id"`
	ProductName    string            `json:"product_name"`
	Quantity       int               `json:"quantity"`
	UnitPrice      decimal.Decimal   `json:"unit_price"`
	LineTotal      decimal.Decimal   `json:"line_total"`
	Customizations map[string]string `json:"customizations,omitempty"`
}

// DeliveryInfo is the checkout form payload.
type DeliveryInfo struct {
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Notes           string `json:"notes"`
}

type CheckoutRequest struct {
	DeliveryInfo
}

type CheckoutResponse struct {
	OrderID     string          `json:"order_id"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Message     string          `json:"message"`
}

// POSOrderRequest is a walk-in order rung up on a register. Lines are taken
// from the register's in-memory cart; no delivery fee applies.
type POSOrderRequest struct {
	RegisterID string `json:"register_id" binding:"required"`
}

// Receipt summarizes a processed POS payment.
type Receipt struct {
	OrderNumber string          `json:"order_number"`
	Items       []OrderItem     `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Timestamp   time.Time       `json:"timestamp"`
}
