package calc

import "github.com/shopspring/decimal"

// LineSubtotal is unit price × quantity. It is exact; rounding to centavos
// happens only when formatting for display.
func LineSubtotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty)))
}
