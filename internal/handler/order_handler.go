package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/service"
)

type OrderHandler struct {
	checkoutService *service.CheckoutService
	logger          *zap.Logger
}

func NewOrderHandler(checkoutService *service.CheckoutService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	requestID := c.GetString("request_id")
	order, err := h.checkoutService.Checkout(c.Request.Context(), uid, req.DeliveryInfo, requestID)
	if err != nil {
		h.logger.Error("Checkout failed",
			zap.String("user_id", uid),
			zap.String("request_id", requestID),
			zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, domain.CheckoutResponse{
		OrderID:     order.OrderID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Message:     "Order placed successfully",
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.checkoutService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
