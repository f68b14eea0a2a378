package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// productView adds the low-stock flag the dashboard badges on.
type productView struct {
	domain.Product
	LowStock bool `json:"low_stock"`
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter := domain.ProductFilter{
		CategoryID: c.Query("category"),
		SearchTerm: c.Query("q"),
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		respondError(c, err)
		return
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{Product: p, LowStock: p.LowStock()})
	}
	c.JSON(http.StatusOK, gin.H{"products": views})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, productView{Product: *product, LowStock: product.LowStock()})
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	if req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateStock(c *gin.Context) {
	var req domain.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalogService.SetStock(c.Request.Context(), c.Param("id"), req.InStock)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, productView{Product: *product, LowStock: product.LowStock()})
}
