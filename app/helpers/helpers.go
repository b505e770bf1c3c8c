package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/arterio/storefront/app/services"
	"github.com/arterio/storefront/app/utils/breadcrumb"
	"github.com/go-playground/validator/v10"
)

type contextKey string

const (
	ContextKeyVisitorID contextKey = "visitorID"
	ContextKeyCart      contextKey = "cart"
	ContextKeyCartOpen  contextKey = "cartOpen"
)

const maxBodyBytes = 1 << 20

func WithVisitor(ctx context.Context, visitorID string, cart *services.CartService, open bool) context.Context {
	ctx = context.WithValue(ctx, ContextKeyVisitorID, visitorID)
	ctx = context.WithValue(ctx, ContextKeyCart, cart)
	return context.WithValue(ctx, ContextKeyCartOpen, open)
}

func VisitorIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyVisitorID).(string)
	return id
}

// CartFromContext returns the visitor's cart installed by the visitor
// middleware, or nil outside of it.
func CartFromContext(ctx context.Context) *services.CartService {
	cart, _ := ctx.Value(ContextKeyCart).(*services.CartService)
	return cart
}

func CartOpenFromContext(ctx context.Context) bool {
	open, _ := ctx.Value(ContextKeyCartOpen).(bool)
	return open
}

// GetBaseData adds the fields every storefront payload carries.
func GetBaseData(r *http.Request, data map[string]interface{}) map[string]interface{} {
	if data == nil {
		data = make(map[string]interface{})
	}

	if _, exists := data["cart_count"]; !exists {
		count := 0
		if cart := CartFromContext(r.Context()); cart != nil {
			count = cart.ItemCount()
		}
		data["cart_count"] = count
	}
	if _, exists := data["cart_open"]; !exists {
		data["cart_open"] = CartOpenFromContext(r.Context())
	}
	if _, exists := data["breadcrumbs"]; !exists {
		data["breadcrumbs"] = []breadcrumb.Breadcrumb{}
	}

	return data
}

// DecodeJSONBody decodes a single JSON object from r into dst, rejecting
// unknown fields.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}

// NewValidator reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMessages := make(map[string]string)
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errorMessages[field] = fmt.Sprintf("%s é obrigatório.", field)
		case "min":
			errorMessages[field] = fmt.Sprintf("%s deve ser no mínimo %s.", field, err.Param())
		case "max":
			errorMessages[field] = fmt.Sprintf("%s deve ser no máximo %s.", field, err.Param())
		default:
			errorMessages[field] = fmt.Sprintf("%s inválido (%s).", field, err.Tag())
		}
	}
	return errorMessages
}
