package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry managed by the admin dashboard. The storefront
// only reads it; stock mutations go through the catalog repository.
type Product struct {
	ProductID         string               `json:"product_id"`
	Name              string               `json:"name"`
	Description       string               `json:"description,omitempty"`
	Price             decimal.Decimal      `json:"price"`
	CategoryID        string               `json:"category_id,omitempty"`
	InStock           int                  `json:"in_stock"`
	LowStockThreshold int                  `json:"low_stock_threshold"`
	IsAvailable       bool                 `json:"is_available"`
	ImageURL          string               `json:"image_url,omitempty"`
	Customizations    []CustomizationGroup `json:"customizations,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// LowStock reports whether the product has dropped to its reorder threshold.
func (p *Product) LowStock() bool {
	return p.InStock <= p.LowStockThreshold
}

// CustomizationGroup is a named set of mutually exclusive options, e.g.
// "Size" with options "Regular" and "Large".
type CustomizationGroup struct {
	Name    string                `json:"name"`
	Options []CustomizationOption `json:"options"`
}

// CustomizationOption carries a structured price delta alongside its display
// label. Legacy catalog rows encoded the delta inside the label text, e.g.
// "Extra Cheese (+$2.00)"; those are migrated at read time so PriceDelta is
// always the source of truth for pricing.
type CustomizationOption struct {
	Label      string          `json:"label"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

// Option looks up an option by label within the group.
func (g *CustomizationGroup) Option(label string) (CustomizationOption, bool) {
	for _, opt := range g.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return CustomizationOption{}, false
}

type Category struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	SortOrder  int    `json:"sort_order"`
}

type CreateProductRequest struct {
	Name              string               `json:"name" binding:"required"`
	Description       string               `json:"description"`
	Price             decimal.Decimal      `json:"price" binding:"required"`
	CategoryID        string               `json:"category_id"`
	InStock           int                  `json:"in_stock" binding:"min=0"`
	LowStockThreshold int                  `json:"low_stock_threshold" binding:"min=0"`
	ImageURL          string               `json:"image_url"`
	Customizations    []CustomizationGroup `json:"customizations"`
}

type UpdateStockRequest struct {
	InStock int `json:"in_stock" binding:"min=0"`
}

// ProductFilter narrows ListProducts; zero values mean no filtering.
type ProductFilter struct {
	CategoryID string
	SearchTerm string
}
