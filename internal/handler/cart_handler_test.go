package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/cart"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/pricing"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/repository"
)

type stubCatalog struct {
	products map[string]*domain.Product
}

func (s *stubCatalog) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func newCartRouter(t *testing.T) (*gin.Engine, *cart.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	price, err := decimal.NewFromString("850.00")
	require.NoError(t, err)
	catalog := &stubCatalog{products: map[string]*domain.Product{
		"p-nyama": {
			ProductID:   "p-nyama",
			Name:        "Nyama Choma",
			Price:       price,
			InStock:     5,
			IsAvailable: true,
		},
	}}

	fee, _ := decimal.NewFromString("150.00")
	rate, _ := decimal.NewFromString("0.08")
	cartService := cart.NewService(catalog, repository.NewMemoryCartRepository(),
		pricing.Config{DeliveryFee: fee, TaxRate: rate}, zap.NewNop())
	h := NewCartHandler(cartService, zap.NewNop())

	router := gin.New()
	router.GET("/cart", h.GetCart)
	router.POST("/cart/items", h.AddItem)
	router.PATCH("/cart/items/:productId", h.UpdateItem)
	router.DELETE("/cart/items/:productId", h.RemoveItem)
	return router, cartService
}

func doJSON(router *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAddItemEndpoint(t *testing.T) {
	router, _ := newCartRouter(t)

	t.Run("requires a user", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/cart/items", "", domain.AddCartItemRequest{ProductID: "p-nyama", Quantity: 1})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("creates a line", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/cart/items", "user-1", domain.AddCartItemRequest{ProductID: "p-nyama", Quantity: 2})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var line domain.CartLine
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &line))
		assert.Equal(t, 2, line.Quantity)
	})

	t.Run("unknown product maps to 404", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/cart/items", "user-1", domain.AddCartItemRequest{ProductID: "p-missing", Quantity: 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("over-stock maps to 409", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/cart/items", "user-2", domain.AddCartItemRequest{ProductID: "p-nyama", Quantity: 9})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/cart/items", bytes.NewBufferString("{"))
		req.Header.Set("X-User-ID", "user-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateItemEndpoint(t *testing.T) {
	router, cartService := newCartRouter(t)
	_, err := cartService.AddItem(context.Background(), "user-1", "p-nyama", 2, nil)
	require.NoError(t, err)

	t.Run("zero quantity removes the line", func(t *testing.T) {
		w := doJSON(router, http.MethodPatch, "/cart/items/p-nyama", "user-1", domain.UpdateCartItemRequest{Quantity: 0})
		assert.Equal(t, http.StatusNoContent, w.Code)

		lines, err := cartService.Lines(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("absent line maps to 404", func(t *testing.T) {
		w := doJSON(router, http.MethodPatch, "/cart/items/p-nyama", "user-9", domain.UpdateCartItemRequest{Quantity: 3})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetCartEndpoint(t *testing.T) {
	router, cartService := newCartRouter(t)
	_, err := cartService.AddItem(context.Background(), "user-1", "p-nyama", 2, nil)
	require.NoError(t, err)

	w := doJSON(router, http.MethodGet, "/cart", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.CartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.ItemCount)
	// 850 x 2 = 1700; tax 136; delivery 150 => 1986.
	assert.Equal(t, "1986", resp.Total.String())
}

func TestRemoveItemEndpointIdempotent(t *testing.T) {
	router, _ := newCartRouter(t)

	w := doJSON(router, http.MethodDelete, "/cart/items/p-missing", "user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
