package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one product entry in a user's cart. A cart holds at most one
// line per product; adding the same product again merges quantities.
type CartLine struct {
	UserID          string            `json:"user_id"`
	ProductID       string            `json:"product_id"`
	ProductName     string            `json:"product_name"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options,omitempty"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type AddCartItemRequest struct {
	ProductID       string            `json:"product_id" binding:"required"`
	Quantity        int               `json:"quantity" binding:"required"`
	SelectedOptions map[string]string `json:"selected_options"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Lines       []CartLine      `json:"lines"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}
