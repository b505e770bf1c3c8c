package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/arterio/storefront/app/helpers"
	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/services"
	"github.com/arterio/storefront/app/utils/breadcrumb"
	"github.com/arterio/storefront/app/utils/sessions"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"min=1,max=999"`
	Variant   string `json:"variant" validate:"max=200"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=999"`
}

type CartPanelRequest struct {
	Open *bool `json:"open" validate:"required"`
}

type CartHandler struct {
	render    *render.Render
	catalog   services.CatalogClient
	sessions  sessions.SessionStore
	validator *validator.Validate
	guard     *CheckoutGuard
	logger    *zap.Logger
}

func NewCartHandler(
	r *render.Render,
	catalog services.CatalogClient,
	sessionStore sessions.SessionStore,
	validator *validator.Validate,
	guard *CheckoutGuard,
	logger *zap.Logger,
) *CartHandler {
	return &CartHandler{
		render:    r,
		catalog:   catalog,
		sessions:  sessionStore,
		validator: validator,
		guard:     guard,
		logger:    logger,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.visitorCart(w, r)
	if !ok {
		return
	}

	flashes := h.sessions.Flashes(w, r)
	_ = h.render.JSON(w, http.StatusOK, helpers.GetBaseData(r, map[string]interface{}{
		"status":      "success",
		"title":       "Carrinho",
		"cart":        newCartView(cart.Cart()),
		"flashes":     flashes,
		"breadcrumbs": breadcrumb.Cart(),
	}))
}

func (h *CartHandler) GetCartCount(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.visitorCart(w, r)
	if !ok {
		return
	}
	_ = h.render.JSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"count":  cart.ItemCount(),
	})
}

// AddItem looks the product up in the catalog so price and stock come from
// the store, never from the request. Adding opens the cart panel.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.mutableCart(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), strings.TrimSpace(req.ProductID))
	if err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}
	if !product.InStock {
		writeError(h.render, h.logger, w, r, fmt.Errorf("add product %s: %w", product.ID, errOutOfStock))
		return
	}

	updated, err := cart.AddItem(r.Context(), *product, req.Quantity, strings.TrimSpace(req.Variant))
	if err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}

	h.setPanel(w, r, true)
	h.respondCart(w, r, http.StatusCreated, updated, true, "Produto adicionado ao carrinho")
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.mutableCart(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := cart.UpdateQuantity(r.Context(), mux.Vars(r)["key"], *req.Quantity)
	if err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}
	h.respondCart(w, r, http.StatusOK, updated, helpers.CartOpenFromContext(r.Context()), "")
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.mutableCart(w, r)
	if !ok {
		return
	}

	updated := cart.RemoveItem(r.Context(), mux.Vars(r)["key"])
	h.respondCart(w, r, http.StatusOK, updated, helpers.CartOpenFromContext(r.Context()), "Item removido")
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.mutableCart(w, r)
	if !ok {
		return
	}

	updated := cart.Clear(r.Context())
	h.respondCart(w, r, http.StatusOK, updated, helpers.CartOpenFromContext(r.Context()), "Carrinho esvaziado")
}

// TogglePanel records whether the cart panel is shown.
func (h *CartHandler) TogglePanel(w http.ResponseWriter, r *http.Request) {
	var req CartPanelRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.setPanel(w, r, *req.Open)
	_ = h.render.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"cart_open": *req.Open,
	})
}

func (h *CartHandler) visitorCart(w http.ResponseWriter, r *http.Request) (*services.CartService, bool) {
	cart := helpers.CartFromContext(r.Context())
	if cart == nil {
		writeError(h.render, h.logger, w, r, errNoVisitorCart)
		return nil, false
	}
	return cart, true
}

// mutableCart refuses changes while the visitor's cart is being checked out.
func (h *CartHandler) mutableCart(w http.ResponseWriter, r *http.Request) (*services.CartService, bool) {
	cart, ok := h.visitorCart(w, r)
	if !ok {
		return nil, false
	}
	if h.guard.active(helpers.VisitorIDFromContext(r.Context())) {
		writeError(h.render, h.logger, w, r, services.ErrCheckoutInProgress)
		return nil, false
	}
	return cart, true
}

func (h *CartHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := helpers.DecodeJSONBody(w, r, dst); err != nil {
		writeError(h.render, h.logger, w, r, newRequestError(err))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		writeError(h.render, h.logger, w, r, newRequestError(err))
		return false
	}
	return true
}

func (h *CartHandler) setPanel(w http.ResponseWriter, r *http.Request, open bool) {
	if err := h.sessions.SetCartPanelOpen(w, r, open); err != nil {
		h.logger.Warn("Failed to store cart panel state", zap.Error(err))
	}
}

func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, status int, cart models.Cart, open bool, message string) {
	body := map[string]interface{}{
		"status":     "success",
		"cart":       newCartView(cart),
		"cart_count": cart.ItemCount(),
		"cart_open":  open,
	}
	if message != "" {
		body["message"] = message
	}
	_ = h.render.JSON(w, status, body)
}
