package handlers

import (
	"net/http"

	"github.com/arterio/storefront/app/helpers"
	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/services"
	"github.com/arterio/storefront/app/utils/breadcrumb"
	"github.com/unrolled/render"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const featuredCount = 8

type HomeHandler struct {
	render  *render.Render
	catalog services.CatalogClient
	logger  *zap.Logger
}

func NewHomeHandler(r *render.Render, catalog services.CatalogClient, logger *zap.Logger) *HomeHandler {
	return &HomeHandler{
		render:  r,
		catalog: catalog,
		logger:  logger,
	}
}

// Home loads featured products and the category tree concurrently.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	var (
		featured   []models.Product
		categories []models.Category
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		onlyFeatured := true
		var err error
		featured, err = h.catalog.ListProducts(ctx, services.ProductFilter{Featured: &onlyFeatured, PerPage: featuredCount})
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = h.catalog.ListCategories(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}

	_ = h.render.JSON(w, http.StatusOK, helpers.GetBaseData(r, map[string]interface{}{
		"status":      "success",
		"title":       "Início",
		"featured":    newProductViews(featured),
		"categories":  categories,
		"breadcrumbs": breadcrumb.Home(),
	}))
}
