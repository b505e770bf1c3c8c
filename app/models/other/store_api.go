package other

import "encoding/json"

// StoreProduct is a product record as returned by the WooCommerce Store API
// (wc/store/v1) or, for older installs, the REST API (wc/v3).
type StoreProduct struct {
	ID               json.Number      `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Sku              string           `json:"sku"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description"`
	Prices           *StorePrices     `json:"prices,omitempty"`
	Price            json.RawMessage  `json:"price,omitempty"`
	IsInStock        *bool            `json:"is_in_stock,omitempty"`
	StockStatus      string           `json:"stock_status,omitempty"`
	Categories       []StoreCategory  `json:"categories"`
	Images           []StoreImage     `json:"images"`
	Attributes       []StoreAttribute `json:"attributes"`
}

// StorePrices carries prices in currency subunits (e.g. centavos).
type StorePrices struct {
	Price             json.RawMessage `json:"price"`
	RegularPrice      json.RawMessage `json:"regular_price"`
	SalePrice         json.RawMessage `json:"sale_price"`
	CurrencyCode      string          `json:"currency_code"`
	CurrencyMinorUnit *int            `json:"currency_minor_unit,omitempty"`
}

type StoreCategory struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent int    `json:"parent"`
	Count  int    `json:"count"`
}

type StoreImage struct {
	ID  int    `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type StoreAttribute struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Terms   []StoreTerm `json:"terms"`
	Options []string    `json:"options"`
}

type StoreTerm struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// AddToCartRequest is the body of POST cart/add-item.
type AddToCartRequest struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

// StoreError is the error envelope of the Store API.
type StoreError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
