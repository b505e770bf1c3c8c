package services

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/arterio/storefront/app/models/other"
	"github.com/shopspring/decimal"
)

const defaultMinorUnit = 2

// NormalizePrice converts the remote price of a product to a decimal amount.
//
// The Store API (wc/store/v1) sends prices.price as an integer amount of
// currency subunits, as a JSON string or number, scaled by
// prices.currency_minor_unit. The REST API (wc/v3) sends a top-level price
// that is already a decimal string. ok is false when neither carries a
// usable price, which the storefront shows as "price on request".
func NormalizePrice(p other.StoreProduct) (price decimal.Decimal, ok bool) {
	if p.Prices != nil {
		minorUnit := defaultMinorUnit
		if p.Prices.CurrencyMinorUnit != nil && *p.Prices.CurrencyMinorUnit >= 0 {
			minorUnit = *p.Prices.CurrencyMinorUnit
		}
		subunits, ok := parseAmount(p.Prices.Price)
		if !ok {
			return decimal.Zero, false
		}
		return subunits.Shift(-int32(minorUnit)), true
	}

	amount, ok := parseAmount(p.Price)
	if !ok {
		return decimal.Zero, false
	}
	return amount, true
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, false
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
	} else {
		s = string(raw)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(s)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, false
	}
	return amount, true
}
