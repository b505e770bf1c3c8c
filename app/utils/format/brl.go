package format

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

// PriceOnRequestLabel replaces the price of products sold by quote.
const PriceOnRequestLabel = "PREÇO SOB CONSULTA"

var brl = accounting.Accounting{
	Symbol:    "R$",
	Precision: 2,
	Thousand:  ".",
	Decimal:   ",",
	Format:    "%s %v",
}

// BRL formats amount as Brazilian reais, e.g. "R$ 1.234,56".
func BRL(amount decimal.Decimal) string {
	return brl.FormatMoneyDecimal(amount)
}

// Price is the display price of a product.
func Price(amount decimal.Decimal, onRequest bool) string {
	if onRequest {
		return PriceOnRequestLabel
	}
	return BRL(amount)
}
