package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/arterio/storefront/app/helpers"
	"github.com/arterio/storefront/app/services"
	"github.com/arterio/storefront/app/utils/breadcrumb"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

const productsPerPage = 24

type ProductHandler struct {
	render  *render.Render
	catalog services.CatalogClient
	logger  *zap.Logger
}

func NewProductHandler(r *render.Render, catalog services.CatalogClient, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		render:  r,
		catalog: catalog,
		logger:  logger,
	}
}

// Products lists the catalog narrowed by ?categoria= and ?q=.
func (h *ProductHandler) Products(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(h.render, h.logger, w, r, newRequestError(strconv.ErrSyntax))
			return
		}
		page = n
	}

	filter := services.ProductFilter{
		Category: strings.TrimSpace(query.Get("categoria")),
		Search:   strings.TrimSpace(query.Get("q")),
		PerPage:  productsPerPage,
		Page:     page,
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}

	_ = h.render.JSON(w, http.StatusOK, helpers.GetBaseData(r, map[string]interface{}{
		"status":      "success",
		"title":       "Produtos",
		"products":    newProductViews(products),
		"category":    filter.Category,
		"search":      filter.Search,
		"page":        page,
		"breadcrumbs": breadcrumb.Products(),
	}))
}

// ProductDetail resolves {slug} by slug, or by id when numeric.
func (h *ProductHandler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	product, err := h.catalog.GetProduct(r.Context(), slug)
	if err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}

	_ = h.render.JSON(w, http.StatusOK, helpers.GetBaseData(r, map[string]interface{}{
		"status":      "success",
		"title":       product.Name,
		"product":     newProductView(*product),
		"breadcrumbs": breadcrumb.ForProduct(*product),
	}))
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}

	_ = h.render.JSON(w, http.StatusOK, helpers.GetBaseData(r, map[string]interface{}{
		"status":     "success",
		"title":      "Categorias",
		"categories": categories,
	}))
}
