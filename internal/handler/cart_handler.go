package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/cart"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
)

type CartHandler struct {
	cartService *cart.Service
	logger      *zap.Logger
}

func NewCartHandler(cartService *cart.Service, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	lines, totals, err := h.cartService.Cart(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("Failed to read cart", zap.String("user_id", uid), zap.Error(err))
		respondError(c, err)
		return
	}

	itemCount := 0
	for _, l := range lines {
		itemCount += l.Quantity
	}

	rounded := totals.Rounded()
	c.JSON(http.StatusOK, domain.CartResponse{
		Lines:       lines,
		ItemCount:   itemCount,
		Subtotal:    rounded.Subtotal,
		DeliveryFee: rounded.DeliveryFee,
		Tax:         rounded.Tax,
		Total:       rounded.Total,
	})
}

func (h *CartHandler) AddItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req domain.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	line, err := h.cartService.AddItem(c.Request.Context(), uid, req.ProductID, req.Quantity, req.SelectedOptions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req domain.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	line, err := h.cartService.UpdateQuantity(c.Request.Context(), uid, c.Param("productId"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if line == nil {
		// Quantity dropped to zero, line removed.
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, line)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), uid, c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
