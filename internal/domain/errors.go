package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrLineNotFound       = errors.New("cart line not found")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInsufficientStock  = errors.New("requested quantity exceeds available stock")
	ErrEmptyCart          = errors.New("cannot check out an empty cart")
	ErrProductUnavailable = errors.New("product is not available for ordering")
)

// StockConflictError reports lines whose quantity is no longer satisfiable at
// checkout time. Every offending product is collected so the caller can fix
// the whole cart in one pass.
type StockConflictError struct {
	Conflicts []StockConflict
}

type StockConflict struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *StockConflictError) Error() string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, fmt.Sprintf("%s (requested %d, available %d)", c.ProductID, c.Requested, c.Available))
	}
	return "stock conflict: " + strings.Join(ids, ", ")
}
