package services

import (
	"encoding/json"
	"testing"

	"github.com/arterio/storefront/app/models/other"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   string
		wantOK bool
	}{
		// Store API: integer subunits.
		{"subunits as string", `{"id":1,"prices":{"price":"1990","currency_minor_unit":2}}`, "19.90", true},
		{"subunits as number", `{"id":1,"prices":{"price":1990,"currency_minor_unit":2}}`, "19.90", true},
		{"minor unit defaults to 2", `{"id":1,"prices":{"price":"500"}}`, "5.00", true},
		{"zero minor unit", `{"id":1,"prices":{"price":"1990","currency_minor_unit":0}}`, "1990", true},
		{"three minor units", `{"id":1,"prices":{"price":"12345","currency_minor_unit":3}}`, "12.345", true},
		{"prices object wins over price", `{"id":1,"price":"99.00","prices":{"price":"1000","currency_minor_unit":2}}`, "10.00", true},
		{"empty subunits", `{"id":1,"prices":{"price":"","currency_minor_unit":2}}`, "0", false},
		{"null subunits", `{"id":1,"prices":{"price":null}}`, "0", false},

		// REST API: pre-divided decimal string.
		{"decimal string", `{"id":1,"price":"19.90"}`, "19.90", true},
		{"decimal number", `{"id":1,"price":19.9}`, "19.90", true},
		{"integer decimal string", `{"id":1,"price":"25"}`, "25", true},
		{"empty decimal string", `{"id":1,"price":""}`, "0", false},

		{"no price at all", `{"id":1}`, "0", false},
		{"garbage", `{"id":1,"price":"R$ 10"}`, "0", false},
		{"negative", `{"id":1,"prices":{"price":"-100"}}`, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p other.StoreProduct
			require.NoError(t, json.Unmarshal([]byte(tt.record), &p))

			got, ok := NormalizePrice(p)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}
