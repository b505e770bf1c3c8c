package models

import (
	"github.com/shopspring/decimal"
)

type CartItem struct {
	Key       string          `json:"key"`
	ProductID string          `json:"product_id"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
	Product   Product         `json:"product"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SameLine reports whether the item holds the given product+variant identity.
func (ci *CartItem) SameLine(productID, variant string) bool {
	return ci.ProductID == productID && ci.Variant == variant
}
