package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/cart"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/events"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/pricing"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/repository"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeCatalogStore struct {
	products map[string]*domain.Product
	// conflictOn forces the next DecrementStock for a product to fail even if
	// the last read showed enough stock, simulating a concurrent checkout.
	conflictOn map[string]bool
}

func newFakeCatalog(products ...*domain.Product) *fakeCatalogStore {
	f := &fakeCatalogStore{
		products:   make(map[string]*domain.Product),
		conflictOn: make(map[string]bool),
	}
	for _, p := range products {
		f.products[p.ProductID] = p
	}
	return f
}

func (f *fakeCatalogStore) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeCatalogStore) DecrementStock(_ context.Context, productID string, quantity int) (int, error) {
	p, ok := f.products[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	if f.conflictOn[productID] || p.InStock < quantity {
		return 0, &domain.StockConflictError{Conflicts: []domain.StockConflict{{
			ProductID: productID,
			Requested: quantity,
			Available: p.InStock,
		}}}
	}
	p.InStock -= quantity
	return p.InStock, nil
}

func (f *fakeCatalogStore) IncrementStock(_ context.Context, productID string, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.InStock += quantity
	return nil
}

type fakeOrderStore struct {
	orders     map[string]*domain.Order
	failCreate bool
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	if f.failCreate {
		return errors.New("table unavailable")
	}
	f.orders[order.OrderID] = order
	return nil
}

func (f *fakeOrderStore) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

type fakePublisher struct {
	created  []events.OrderCreatedEvent
	restored []events.StockRestoredEvent
	lowStock []events.LowStockEvent
}

func (f *fakePublisher) PublishOrderCreated(e events.OrderCreatedEvent) error {
	f.created = append(f.created, e)
	return nil
}

func (f *fakePublisher) PublishStockRestored(e events.StockRestoredEvent) error {
	f.restored = append(f.restored, e)
	return nil
}

func (f *fakePublisher) PublishLowStock(e events.LowStockEvent) error {
	f.lowStock = append(f.lowStock, e)
	return nil
}

type checkoutFixture struct {
	catalog  *fakeCatalogStore
	orders   *fakeOrderStore
	events   *fakePublisher
	cart     *cart.Service
	checkout *CheckoutService
}

func newFixture(products ...*domain.Product) *checkoutFixture {
	catalog := newFakeCatalog(products...)
	orders := newFakeOrderStore()
	publisher := &fakePublisher{}
	cfg := pricing.Config{DeliveryFee: dec("150.00"), TaxRate: dec("0.08")}
	cartService := cart.NewService(catalog, repository.NewMemoryCartRepository(), cfg, zap.NewNop())
	checkout := NewCheckoutService(cartService, catalog, orders, publisher, publisher,
		cfg, domain.OrderStatusPending, zap.NewNop())
	return &checkoutFixture{
		catalog:  catalog,
		orders:   orders,
		events:   publisher,
		cart:     cartService,
		checkout: checkout,
	}
}

func nyamaChoma() *domain.Product {
	return &domain.Product{
		ProductID:         "p-nyama",
		Name:              "Nyama Choma",
		Price:             dec("850.00"),
		InStock:           25,
		LowStockThreshold: 5,
		IsAvailable:       true,
		Customizations: []domain.CustomizationGroup{
			{
				Name: "Portion",
				Options: []domain.CustomizationOption{
					{Label: "Regular", PriceDelta: decimal.Zero},
					{Label: "Large", PriceDelta: dec("50.00")},
				},
			},
		},
	}
}

func chapati() *domain.Product {
	return &domain.Product{
		ProductID:         "p-chapati",
		Name:              "Chapati",
		Price:             dec("80.00"),
		InStock:           35,
		LowStockThreshold: 10,
		IsAvailable:       true,
	}
}

var deliveryInfo = domain.DeliveryInfo{
	DeliveryAddress: "123 Moi Avenue, Nairobi",
	Phone:           "+254700000000",
	Notes:           "Call at the gate",
}

func TestCheckoutEmptyCart(t *testing.T) {
	fx := newFixture(nyamaChoma())

	_, err := fx.checkout.Checkout(context.Background(), "user-1", deliveryInfo, "req-1")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckoutSuccess(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nyamaChoma())

	_, err := fx.cart.AddItem(ctx, "user-1", "p-nyama", 2, map[string]string{"Portion": "Large"})
	require.NoError(t, err)

	order, err := fx.checkout.Checkout(ctx, "user-1", deliveryInfo, "req-1")
	require.NoError(t, err)

	// (850 + 50) x 2 = 1800; tax 144; delivery 150 => 2094.
	assert.True(t, order.Subtotal.Equal(dec("1800")), "subtotal %s", order.Subtotal)
	assert.True(t, order.Tax.Equal(dec("144")), "tax %s", order.Tax)
	assert.True(t, order.DeliveryFee.Equal(dec("150")), "delivery fee %s", order.DeliveryFee)
	assert.True(t, order.TotalAmount.Equal(dec("2094")), "total %s", order.TotalAmount)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "123 Moi Avenue, Nairobi", order.DeliveryAddress)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(dec("850.00")))
	assert.True(t, item.LineTotal.Equal(dec("1800")))
	assert.Equal(t, map[string]string{"Portion": "Large"}, item.Customizations)

	assert.Equal(t, 23, fx.catalog.products["p-nyama"].InStock, "stock must be decremented")

	lines, err := fx.cart.Lines(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, lines, "cart must be cleared after checkout")

	require.Len(t, fx.events.created, 1)
	assert.Equal(t, order.OrderID, fx.events.created[0].OrderID)
	assert.Equal(t, "req-1", fx.events.created[0].RequestID)

	persisted, err := fx.orders.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.True(t, persisted.TotalAmount.Equal(dec("2094")))
}

func TestCheckoutCapturesPriceAtCheckoutTime(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nyamaChoma())

	_, err := fx.cart.AddItem(ctx, "user-1", "p-nyama", 1, nil)
	require.NoError(t, err)

	// Admin edits the price after the item was added.
	fx.catalog.products["p-nyama"].Price = dec("900.00")

	order, err := fx.checkout.Checkout(ctx, "user-1", deliveryInfo, "req-1")
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(dec("900.00")),
		"captured unit price must be the price at checkout, got %s", order.Items[0].UnitPrice)
}

func TestCheckoutStockConflict(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nyamaChoma())
	fx.catalog.products["p-nyama"].InStock = 5

	_, err := fx.cart.AddItem(ctx, "user-1", "p-nyama", 3, nil)
	require.NoError(t, err)

	// Stock drops from 5 to 1 before checkout.
	fx.catalog.products["p-nyama"].InStock = 1

	_, err = fx.checkout.Checkout(ctx, "user-1", deliveryInfo, "req-1")
	var conflict *domain.StockConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, "p-nyama", conflict.Conflicts[0].ProductID)
	assert.Equal(t, 3, conflict.Conflicts[0].Requested)
	assert.Equal(t, 1, conflict.Conflicts[0].Available)

	assert.Equal(t, 1, fx.catalog.products["p-nyama"].InStock, "no decrement on conflict")
	assert.Empty(t, fx.orders.orders, "no partial order")

	lines, err := fx.cart.Lines(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity, "cart must remain unchanged")
}

func TestCheckoutUnavailableProductConflicts(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nyamaChoma())

	_, err := fx.cart.AddItem(ctx, "user-1", "p-nyama", 1, nil)
	require.NoError(t, err)

	fx.catalog.products["p-nyama"].IsAvailable = false

	_, err = fx.checkout.Checkout(ctx, "user-1", deliveryInfo, "req-1")
	var conflict *domain.StockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 0, conflict.Conflicts[0].Available)
}

func TestCheckoutRollsBackOnMidDecrementConflict(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nyamaChoma(), chapati())

	_, err := fx.cart.AddItem(ctx, "user-1", "p-nyama", 2, nil)
	require.NoError(t, err)
	_, err = fx.cart.AddItem(ctx, "user-1", "p-chapati", 5, nil)
	require.NoError(t, err)

	// Re-validation sees enough stock, but another session wins the race on
	// one of the decrements.
	fx.catalog.conflictOn["p-chapati"] = true

	_, err = fx.checkout.Checkout(ctx, "user-1", deliveryInfo, "req-1")
	var conflict *domain.StockConflictError
	require.ErrorAs(t, err, &conflict)

	assert.Equal(t, 25, fx.catalog.products["p-nyama"].InStock, "decremented stock must be restored")
	assert.Equal(t, 35, fx.catalog.products["p-chapati"].InStock)
	assert.Empty(t, fx.orders.orders, "no partial order")

	// Exactly one restore event, for the line that had been decremented.
	require.Len(t, fx.events.restored, 1)
	assert.Equal(t, "p-nyama", fx.events.restored[0].ProductID)
	assert.Equal(t, 2, fx.events.restored[0].Quantity)

	lines, err := fx.cart.Lines(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, lines, 2, "cart must remain intact")
}

func TestCheckoutRollsBackWhenOrderWriteFails(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nyamaChoma())
	fx.orders.failCreate = true

	_, err := fx.cart.AddItem(ctx, "user-1", "p-nyama", 2, nil)
	require.NoError(t, err)

	_, err = fx.checkout.Checkout(ctx, "user-1", deliveryInfo, "req-1")
	require.Error(t, err)

	assert.Equal(t, 25, fx.catalog.products["p-nyama"].InStock, "stock must be restored")
	require.Len(t, fx.events.restored, 1)

	lines, err := fx.cart.Lines(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, lines, 1, "cart must remain intact")
}

func TestCheckoutPublishesLowStockWhenThresholdCrossed(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(nyamaChoma())
	fx.catalog.products["p-nyama"].InStock = 7

	_, err := fx.cart.AddItem(ctx, "user-1", "p-nyama", 3, nil)
	require.NoError(t, err)

	_, err = fx.checkout.Checkout(ctx, "user-1", deliveryInfo, "req-1")
	require.NoError(t, err)

	require.Len(t, fx.events.lowStock, 1)
	assert.Equal(t, "p-nyama", fx.events.lowStock[0].ProductID)
	assert.Equal(t, 4, fx.events.lowStock[0].InStock)
	assert.Equal(t, 5, fx.events.lowStock[0].Threshold)
}

func TestPOSCheckoutHasNoDeliveryFee(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog(chapati())
	orders := newFakeOrderStore()
	publisher := &fakePublisher{}
	cfg := pricing.Config{DeliveryFee: decimal.Zero, TaxRate: dec("0.08")}
	cartService := cart.NewService(catalog, repository.NewMemoryCartRepository(), cfg, zap.NewNop())
	checkout := NewCheckoutService(cartService, catalog, orders, publisher, publisher,
		cfg, domain.OrderStatusConfirmed, zap.NewNop())

	_, err := cartService.AddItem(ctx, "register-1", "p-chapati", 5, nil)
	require.NoError(t, err)

	order, err := checkout.Checkout(ctx, "register-1", domain.DeliveryInfo{}, "req-pos")
	require.NoError(t, err)

	// 80 x 5 = 400; tax 32; no delivery fee => 432.
	assert.True(t, order.DeliveryFee.IsZero())
	assert.True(t, order.TotalAmount.Equal(dec("432")), "total %s", order.TotalAmount)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
}
