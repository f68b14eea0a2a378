package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/cart"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/service"
)

// POSHandler drives the point-of-sale screen. A register's running order is
// a regular cart keyed by register id in an in-memory store; processing
// payment goes through the same checkout pipeline with no delivery fee and
// yields a receipt.
type POSHandler struct {
	cartService     *cart.Service
	checkoutService *service.CheckoutService
	logger          *zap.Logger
}

func NewPOSHandler(cartService *cart.Service, checkoutService *service.CheckoutService, logger *zap.Logger) *POSHandler {
	return &POSHandler{
		cartService:     cartService,
		checkoutService: checkoutService,
		logger:          logger,
	}
}

type posAddItemRequest struct {
	RegisterID string `json:"register_id" binding:"required"`
	ProductID  string `json:"product_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
}

func (h *POSHandler) AddItem(c *gin.Context) {
	var req posAddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	line, err := h.cartService.AddItem(c.Request.Context(), req.RegisterID, req.ProductID, req.Quantity, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

func (h *POSHandler) ProcessPayment(c *gin.Context) {
	var req domain.POSOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	requestID := c.GetString("request_id")
	order, err := h.checkoutService.Checkout(c.Request.Context(), req.RegisterID, domain.DeliveryInfo{}, requestID)
	if err != nil {
		h.logger.Error("POS payment failed",
			zap.String("register_id", req.RegisterID),
			zap.Error(err))
		respondError(c, err)
		return
	}

	receipt := domain.Receipt{
		OrderNumber: order.OrderID,
		Items:       order.Items,
		Subtotal:    order.Subtotal,
		Tax:         order.Tax,
		Total:       order.TotalAmount,
		Timestamp:   time.Now(),
	}
	c.JSON(http.StatusCreated, receipt)
}
