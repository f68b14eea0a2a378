package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/events"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/pricing"
)

// CatalogAdminStore extends the checkout view of the catalog with the
// operations the inventory dashboard uses.
type CatalogAdminStore interface {
	CatalogStore
	CreateProduct(ctx context.Context, product *domain.Product) error
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	SetStock(ctx context.Context, productID string, newStock int) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// CatalogService serves the storefront browse surface and the admin
// inventory dashboard.
type CatalogService struct {
	store     CatalogAdminStore
	inventory InventoryEventPublisher
	logger    *zap.Logger
}

func NewCatalogService(store CatalogAdminStore, inventory InventoryEventPublisher, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		store:     store,
		inventory: inventory,
		logger:    logger,
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.store.GetProduct(ctx, productID)
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, filter)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ProductID:         uuid.New().String(),
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		CategoryID:        req.CategoryID,
		InStock:           req.InStock,
		LowStockThreshold: req.LowStockThreshold,
		IsAvailable:       true,
		ImageURL:          req.ImageURL,
		Customizations:    req.Customizations,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// Old admin forms encoded option deltas in the label; fill the structured
	// field from the label when it was left unset.
	for gi, g := range product.Customizations {
		for oi, opt := range g.Options {
			if opt.PriceDelta.IsZero() {
				product.Customizations[gi].Options[oi].PriceDelta = pricing.ParseLabelDelta(opt.Label)
			}
		}
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ProductID),
		zap.String("name", product.Name),
		zap.Int("in_stock", product.InStock))

	return product, nil
}

// SetStock overwrites a product's stock counter and raises a low-stock alert
// when the new level sits at or below the reorder threshold.
func (s *CatalogService) SetStock(ctx context.Context, productID string, newStock int) (*domain.Product, error) {
	product, err := s.store.SetStock(ctx, productID, newStock)
	if err != nil {
		return nil, err
	}

	if product.LowStock() {
		event := events.LowStockEvent{
			EventID:   uuid.New().String(),
			ProductID: product.ProductID,
			Name:      product.Name,
			InStock:   product.InStock,
			Threshold: product.LowStockThreshold,
			Timestamp: time.Now(),
		}
		if err := s.inventory.PublishLowStock(event); err != nil {
			s.logger.Error("Failed to publish low stock event",
				zap.String("product_id", product.ProductID),
				zap.Error(err))
		}
	}

	s.logger.Info("Stock updated",
		zap.String("product_id", product.ProductID),
		zap.Int("in_stock", product.InStock))

	return product, nil
}
