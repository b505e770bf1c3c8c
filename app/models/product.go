package models

import "github.com/shopspring/decimal"

const DefaultCategoryName = "Sem Categoria"

// Product is the normalized catalog product. It is never mutated by the cart.
type Product struct {
	ID             string           `json:"id"`
	Slug           string           `json:"slug,omitempty"`
	Name           string           `json:"name"`
	Price          decimal.Decimal  `json:"price"`
	PriceOnRequest bool             `json:"price_on_request,omitempty"`
	Category       string           `json:"category"`
	InStock        bool             `json:"in_stock"`
	Image          string           `json:"image,omitempty"`
	Sku            string           `json:"sku,omitempty"`
	Description    string           `json:"description,omitempty"`
	Variants       []ProductVariant `json:"variants,omitempty"`
}

type ProductVariant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
