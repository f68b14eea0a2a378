// Package cart owns a user's staged selection: one line per product, quantity
// bounded by stock, merged on repeat adds. It never touches catalog stock;
// decrements happen at checkout.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/pricing"
)

// CatalogStore is the read side of the product catalog the cart depends on.
type CatalogStore interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// CartStore persists cart lines keyed by (user, product). The storefront uses
// a DynamoDB-backed store so carts survive session restarts; the POS screen
// uses an in-memory one scoped to a register.
type CartStore interface {
	ListLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	GetLine(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	PutLine(ctx context.Context, line *domain.CartLine) error
	DeleteLine(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type Service struct {
	catalog CatalogStore
	store   CartStore
	cfg     pricing.Config
	logger  *zap.Logger
}

func NewService(catalog CatalogStore, store CartStore, cfg pricing.Config, logger *zap.Logger) *Service {
	return &Service{
		catalog: catalog,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
}

// AddItem stages quantity units of a product. If the product is already in
// the cart the quantities merge into the existing line. The combined quantity
// must fit within current stock; over-asking is rejected rather than clamped
// so the caller learns the cart no longer matches the shelf.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int, selectedOptions map[string]string) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, domain.ErrProductUnavailable
	}

	line, err := s.store.GetLine(ctx, userID, productID)
	if err != nil && !errors.Is(err, domain.ErrLineNotFound) {
		return nil, fmt.Errorf("failed to read cart line: %w", err)
	}

	newQuantity := quantity
	if line != nil {
		newQuantity += line.Quantity
	}
	if newQuantity > product.InStock {
		return nil, domain.ErrInsufficientStock
	}

	if line == nil {
		line = &domain.CartLine{
			UserID:          userID,
			ProductID:       productID,
			SelectedOptions: selectedOptions,
		}
	}
	line.Quantity = newQuantity
	line.ProductName = product.Name
	line.UnitPrice = product.Price
	line.UpdatedAt = time.Now()

	if err := s.store.PutLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to persist cart line: %w", err)
	}

	s.logger.Info("Item added to cart",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", line.Quantity))

	return line, nil
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
// A quantity above current stock is clamped to stock, matching the POS
// increment buttons where silently capping beats failing the tap.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.CartLine, error) {
	line, err := s.store.GetLine(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.store.DeleteLine(ctx, userID, productID); err != nil {
			return nil, fmt.Errorf("failed to remove cart line: %w", err)
		}
		return nil, nil
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.InStock {
		s.logger.Info("Quantity clamped to stock",
			zap.String("user_id", userID),
			zap.String("product_id", productID),
			zap.Int("requested", quantity),
			zap.Int("stock", product.InStock))
		quantity = product.InStock
	}
	if quantity <= 0 {
		// Stock hit zero since the line was added.
		if err := s.store.DeleteLine(ctx, userID, productID); err != nil {
			return nil, fmt.Errorf("failed to remove cart line: %w", err)
		}
		return nil, nil
	}

	line.Quantity = quantity
	line.UnitPrice = product.Price
	line.UpdatedAt = time.Now()
	if err := s.store.PutLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to persist cart line: %w", err)
	}
	return line, nil
}

// RemoveItem deletes a line. Removing an absent product is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	err := s.store.DeleteLine(ctx, userID, productID)
	if errors.Is(err, domain.ErrLineNotFound) {
		return nil
	}
	return err
}

// Clear drops every line in the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}

// Lines returns the cart contents.
func (s *Service) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return s.store.ListLines(ctx, userID)
}

// Cart returns the lines plus the priced summary. Option deltas are resolved
// against the current catalog so a customization's price is never stale.
func (s *Service) Cart(ctx context.Context, userID string) ([]domain.CartLine, pricing.Totals, error) {
	lines, err := s.store.ListLines(ctx, userID)
	if err != nil {
		return nil, pricing.Totals{}, err
	}

	priced := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		product, err := s.catalog.GetProduct(ctx, l.ProductID)
		if err != nil {
			return nil, pricing.Totals{}, err
		}
		priced = append(priced, pricing.Line{
			UnitPrice:    product.Price,
			OptionDeltas: pricing.Deltas(product.Customizations, l.SelectedOptions),
			Quantity:     l.Quantity,
		})
	}

	return lines, pricing.Compute(priced, s.cfg), nil
}
