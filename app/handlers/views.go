package handlers

import (
	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/utils/format"
	"github.com/shopspring/decimal"
)

type ProductView struct {
	models.Product
	DisplayPrice string `json:"display_price"`
}

type CartItemView struct {
	models.CartItem
	DisplayPrice    string `json:"display_price"`
	DisplaySubtotal string `json:"display_subtotal"`
}

type CartView struct {
	Items        []CartItemView  `json:"items"`
	ItemCount    int             `json:"item_count"`
	Total        decimal.Decimal `json:"total"`
	DisplayTotal string          `json:"display_total"`
}

func newProductView(p models.Product) ProductView {
	return ProductView{Product: p, DisplayPrice: format.Price(p.Price, p.PriceOnRequest)}
}

func newProductViews(products []models.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return views
}

func newCartView(cart models.Cart) CartView {
	items := make([]CartItemView, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemView{
			CartItem:        item,
			DisplayPrice:    format.Price(item.Product.Price, item.Product.PriceOnRequest),
			DisplaySubtotal: format.BRL(item.Subtotal),
		})
	}

	total := cart.Total()
	return CartView{
		Items:        items,
		ItemCount:    cart.ItemCount(),
		Total:        total,
		DisplayTotal: format.BRL(total),
	}
}
