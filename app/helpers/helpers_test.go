package helpers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1,max=99"`
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"product_id":"12","quantity":2}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "unknown field", body: `{"product_id":"12","price":1}`, wantErr: true},
		{name: "trailing object", body: `{"product_id":"12"}{"product_id":"13"}`, wantErr: true},
		{name: "not json", body: `product_id=12`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst addRequest
			err := DecodeJSONBody(httptest.NewRecorder(), req, &dst)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, addRequest{ProductID: "12", Quantity: 2}, dst)
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	err := NewValidator().Struct(addRequest{Quantity: 0})

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	msgs := FormatValidationErrors(verrs)
	assert.Equal(t, "product_id é obrigatório.", msgs["product_id"])
	assert.Equal(t, "quantity deve ser no mínimo 1.", msgs["quantity"])
}

func TestGetBaseData_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	data := GetBaseData(req, map[string]interface{}{"title": "Produtos"})

	assert.Equal(t, "Produtos", data["title"])
	assert.Equal(t, 0, data["cart_count"])
	assert.Equal(t, false, data["cart_open"])
	assert.NotNil(t, data["breadcrumbs"])
}
