package events

import (
	"time"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
)

type OrderCreatedEvent struct {
	EventID     string             `json:"event_id"`
	OrderID     string             `json:"order_id"`
	UserID      string             `json:"user_id"`
	TotalAmount string             `json:"total_amount"`
	Items       []domain.OrderItem `json:"items"`
	Status      string             `json:"status"`
	Timestamp   time.Time          `json:"timestamp"`
	RequestID   string             `json:"request_id"`
}

// StockRestoredEvent records a rollback of stock decrements after a checkout
// failed partway through.
type StockRestoredEvent struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// LowStockEvent fires when a stock mutation leaves a product at or below its
// reorder threshold.
type LowStockEvent struct {
	EventID   string    `json:"event_id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	InStock   int       `json:"in_stock"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}
