package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/cart"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/events"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/pricing"
)

// CatalogStore is the catalog surface checkout needs: current product state
// plus the conditional stock mutations.
type CatalogStore interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) (int, error)
	IncrementStock(ctx context.Context, productID string, quantity int) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

type OrderEventPublisher interface {
	PublishOrderCreated(event events.OrderCreatedEvent) error
}

type InventoryEventPublisher interface {
	PublishStockRestored(event events.StockRestoredEvent) error
	PublishLowStock(event events.LowStockEvent) error
}

// CheckoutService converts a cart into a persisted order: re-validate stock
// against the live catalog, decrement each line's stock, write the order with
// its items atomically, publish the created event, clear the cart. A failed
// decrement rolls back the ones already applied, so checkout never leaves a
// partial order behind.
type CheckoutService struct {
	cart          *cart.Service
	catalog       CatalogStore
	orders        OrderStore
	producer      OrderEventPublisher
	inventory     InventoryEventPublisher
	cfg           pricing.Config
	initialStatus domain.OrderStatus
	logger        *zap.Logger
}

func NewCheckoutService(
	cartService *cart.Service,
	catalog CatalogStore,
	orders OrderStore,
	producer OrderEventPublisher,
	inventory InventoryEventPublisher,
	cfg pricing.Config,
	initialStatus domain.OrderStatus,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		cart:          cartService,
		catalog:       catalog,
		orders:        orders,
		producer:      producer,
		inventory:     inventory,
		cfg:           cfg,
		initialStatus: initialStatus,
		logger:        logger,
	}
}

// checkoutLine pairs a cart line with the catalog state read at checkout time.
type checkoutLine struct {
	line    domain.CartLine
	product *domain.Product
	priced  pricing.Line
}

func (s *CheckoutService) Checkout(ctx context.Context, userID string, info domain.DeliveryInfo, requestID string) (*domain.Order, error) {
	lines, err := s.cart.Lines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Re-validate every line against current stock. Quantities were checked
	// at add time, but other sessions may have depleted the shelf since.
	staged := make([]checkoutLine, 0, len(lines))
	var conflicts []domain.StockConflict
	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}

		available := product.InStock
		if !product.IsAvailable {
			available = 0
		}
		if line.Quantity > available {
			conflicts = append(conflicts, domain.StockConflict{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: available,
			})
			continue
		}

		staged = append(staged, checkoutLine{
			line:    line,
			product: product,
			priced: pricing.Line{
				UnitPrice:    product.Price,
				OptionDeltas: pricing.Deltas(product.Customizations, line.SelectedOptions),
				Quantity:     line.Quantity,
			},
		})
	}
	if len(conflicts) > 0 {
		return nil, &domain.StockConflictError{Conflicts: conflicts}
	}

	// Conditional decrements, newest catalog state wins. On any failure the
	// earlier decrements are restored before reporting the conflict.
	decremented := make([]checkoutLine, 0, len(staged))
	for _, cl := range staged {
		newStock, err := s.catalog.DecrementStock(ctx, cl.line.ProductID, cl.line.Quantity)
		if err != nil {
			s.rollback(ctx, userID, decremented, "checkout stock conflict")
			var conflict *domain.StockConflictError
			if errors.As(err, &conflict) {
				return nil, conflict
			}
			return nil, fmt.Errorf("failed to decrement stock for %s: %w", cl.line.ProductID, err)
		}
		decremented = append(decremented, cl)

		if newStock <= cl.product.LowStockThreshold {
			s.publishLowStock(cl.product, newStock)
		}
	}

	order := s.buildOrder(userID, staged, info)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.rollback(ctx, userID, decremented, "order persistence failed")
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	event := events.OrderCreatedEvent{
		EventID:     uuid.New().String(),
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount.String(),
		Items:       order.Items,
		Status:      string(order.Status),
		Timestamp:   time.Now(),
		RequestID:   requestID,
	}
	if err := s.producer.PublishOrderCreated(event); err != nil {
		// Log only; the order is already durable.
		s.logger.Error("Failed to publish order created event",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}

	if err := s.cart.Clear(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("user_id", userID),
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}

	s.logger.Info("Order created successfully",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", order.UserID),
		zap.String("total_amount", order.TotalAmount.String()))

	return order, nil
}

func (s *CheckoutService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

func (s *CheckoutService) buildOrder(userID string, staged []checkoutLine, info domain.DeliveryInfo) *domain.Order {
	priced := make([]pricing.Line, 0, len(staged))
	items := make([]domain.OrderItem, 0, len(staged))
	for _, cl := range staged {
		priced = append(priced, cl.priced)
		items = append(items, domain.OrderItem{
			ProductID:      cl.line.ProductID,
			ProductName:    cl.product.Name,
			Quantity:       cl.line.Quantity,
			UnitPrice:      cl.product.Price,
			LineTotal:      pricing.LinePrice(cl.priced),
			Customizations: cl.line.SelectedOptions,
		})
	}

	totals := pricing.Compute(priced, s.cfg).Rounded()
	now := time.Now()
	return &domain.Order{
		OrderID:         uuid.New().String(),
		UserID:          userID,
		Items:           items,
		Subtotal:        totals.Subtotal,
		DeliveryFee:     totals.DeliveryFee,
		Tax:             totals.Tax,
		TotalAmount:     totals.Total,
		Status:          s.initialStatus,
		DeliveryAddress: info.DeliveryAddress,
		Phone:           info.Phone,
		Notes:           info.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *CheckoutService) rollback(ctx context.Context, userID string, decremented []checkoutLine, reason string) {
	for _, cl := range decremented {
		if err := s.catalog.IncrementStock(ctx, cl.line.ProductID, cl.line.Quantity); err != nil {
			s.logger.Error("Failed to restore stock during rollback",
				zap.String("product_id", cl.line.ProductID),
				zap.Int("quantity", cl.line.Quantity),
				zap.Error(err))
			continue
		}

		event := events.StockRestoredEvent{
			EventID:   uuid.New().String(),
			UserID:    userID,
			ProductID: cl.line.ProductID,
			Quantity:  cl.line.Quantity,
			Reason:    reason,
			Timestamp: time.Now(),
		}
		if err := s.inventory.PublishStockRestored(event); err != nil {
			s.logger.Error("Failed to publish stock restored event",
				zap.String("product_id", cl.line.ProductID),
				zap.Error(err))
		}
	}
}

func (s *CheckoutService) publishLowStock(product *domain.Product, newStock int) {
	event := events.LowStockEvent{
		EventID:   uuid.New().String(),
		ProductID: product.ProductID,
		Name:      product.Name,
		InStock:   newStock,
		Threshold: product.LowStockThreshold,
		Timestamp: time.Now(),
	}
	if err := s.inventory.PublishLowStock(event); err != nil {
		s.logger.Error("Failed to publish low stock event",
			zap.String("product_id", product.ProductID),
			zap.Error(err))
	}
}
