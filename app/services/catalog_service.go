package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/models/other"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultPerPage = 100

// CatalogClient is the read-only view of the remote catalog used by the
// presentation layer.
type CatalogClient interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, idOrSlug string) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type ProductFilter struct {
	Category string
	Search   string
	Featured *bool
	PerPage  int `validate:"omitempty,min=1,max=100"`
	Page     int `validate:"omitempty,min=1"`
}

type CatalogService struct {
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	validate *validator.Validate
}

func NewCatalogService(baseURL string, client *http.Client, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		logger:   logger,
		validate: validator.New(),
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	if err := s.validate.Struct(filter); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	params := url.Values{}
	perPage := filter.PerPage
	if perPage == 0 {
		perPage = defaultPerPage
	}
	params.Set("per_page", strconv.Itoa(perPage))
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Category != "" {
		params.Set("category", filter.Category)
	}
	if filter.Search != "" {
		params.Set("search", filter.Search)
	}
	if filter.Featured != nil {
		params.Set("featured", strconv.FormatBool(*filter.Featured))
	}

	body, err := s.doRequest(ctx, "list products", "/products", params)
	if err != nil {
		return nil, err
	}

	var raw []other.StoreProduct
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &CatalogUnavailableError{Op: "list products", Cause: fmt.Errorf("failed to decode products: %w", err)}
	}

	products := MapStoreProducts(raw)
	if filter.Search != "" {
		products = matchSearch(products, filter.Search)
	}

	s.logger.Debug("Listed products",
		zap.String("category", filter.Category),
		zap.String("search", filter.Search),
		zap.Int("count", len(products)))
	return products, nil
}

// GetProduct looks a product up by numeric id or, failing that, by slug.
func (s *CatalogService) GetProduct(ctx context.Context, idOrSlug string) (*models.Product, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, ErrProductNotFound
	}

	if _, err := strconv.Atoi(idOrSlug); err == nil {
		body, err := s.doRequest(ctx, "get product", "/products/"+url.PathEscape(idOrSlug), nil)
		if err != nil {
			return nil, notFoundOn404(err)
		}
		var raw other.StoreProduct
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &CatalogUnavailableError{Op: "get product", Cause: fmt.Errorf("failed to decode product: %w", err)}
		}
		if raw.ID == "" || raw.ID == "0" {
			return nil, ErrProductNotFound
		}
		product := MapStoreProduct(raw)
		return &product, nil
	}

	body, err := s.doRequest(ctx, "get product", "/products", url.Values{"slug": {idOrSlug}})
	if err != nil {
		return nil, notFoundOn404(err)
	}
	var raw []other.StoreProduct
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &CatalogUnavailableError{Op: "get product", Cause: fmt.Errorf("failed to decode products: %w", err)}
	}
	if len(raw) == 0 {
		return nil, ErrProductNotFound
	}
	product := MapStoreProduct(raw[0])
	return &product, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	body, err := s.doRequest(ctx, "list categories", "/products/categories", nil)
	if err != nil {
		return nil, err
	}

	var raw []other.StoreCategory
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &CatalogUnavailableError{Op: "list categories", Cause: fmt.Errorf("failed to decode categories: %w", err)}
	}
	return BuildCategoryTree(raw), nil
}

func (s *CatalogService) doRequest(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	fullURL := s.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &CatalogUnavailableError{Op: op, Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("Catalog request failed", zap.String("op", op), zap.String("url", fullURL), zap.Error(err))
		return nil, &CatalogUnavailableError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &CatalogUnavailableError{Op: op, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("Catalog returned error status",
			zap.String("op", op),
			zap.String("url", fullURL),
			zap.Int("status", resp.StatusCode))
		return nil, &CatalogUnavailableError{Op: op, StatusCode: resp.StatusCode, Cause: storeErrorCause(resp.Status, body)}
	}

	return body, nil
}

func storeErrorCause(status string, body []byte) error {
	var storeErr other.StoreError
	if err := json.Unmarshal(body, &storeErr); err == nil && storeErr.Message != "" {
		return fmt.Errorf("%s: %s", storeErr.Code, storeErr.Message)
	}
	return errors.New(status)
}

func notFoundOn404(err error) error {
	var unavailable *CatalogUnavailableError
	if errors.As(err, &unavailable) && unavailable.StatusCode == http.StatusNotFound {
		return ErrProductNotFound
	}
	return err
}

func MapStoreProducts(raw []other.StoreProduct) []models.Product {
	products := make([]models.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, MapStoreProduct(p))
	}
	return products
}

func MapStoreProduct(p other.StoreProduct) models.Product {
	price, ok := NormalizePrice(p)

	product := models.Product{
		ID:             p.ID.String(),
		Slug:           p.Slug,
		Name:           html.UnescapeString(p.Name),
		Price:          price,
		PriceOnRequest: !ok || price.IsZero(),
		Category:       models.DefaultCategoryName,
		Sku:            p.Sku,
		Description:    p.ShortDescription,
	}
	if product.Description == "" {
		product.Description = p.Description
	}

	if len(p.Categories) > 0 && p.Categories[0].Name != "" {
		product.Category = html.UnescapeString(p.Categories[0].Name)
	}

	switch {
	case p.IsInStock != nil:
		product.InStock = *p.IsInStock
	default:
		product.InStock = p.StockStatus == "instock"
	}

	if len(p.Images) > 0 {
		product.Image = p.Images[0].Src
	}

	for _, attr := range p.Attributes {
		values := attr.Options
		if len(attr.Terms) > 0 {
			values = make([]string, 0, len(attr.Terms))
			for _, term := range attr.Terms {
				values = append(values, term.Name)
			}
		}
		product.Variants = append(product.Variants, models.ProductVariant{
			Name:  attr.Name,
			Value: strings.Join(values, ", "),
		})
	}

	return product
}

// BuildCategoryTree folds the flat remote category list into top-level
// categories, each listing the names of everything below it.
func BuildCategoryTree(raw []other.StoreCategory) []models.Category {
	byID := make(map[int]other.StoreCategory, len(raw))
	for _, c := range raw {
		byID[c.ID] = c
	}

	rootOf := func(c other.StoreCategory) int {
		current := c
		for hops := 0; hops < len(raw); hops++ {
			parent, ok := byID[current.Parent]
			if current.Parent == 0 || !ok {
				return current.ID
			}
			current = parent
		}
		return current.ID
	}

	var categories []models.Category
	index := make(map[int]int)
	for _, c := range raw {
		if rootOf(c) != c.ID {
			continue
		}
		index[c.ID] = len(categories)
		categories = append(categories, models.Category{
			ID:    c.ID,
			Name:  html.UnescapeString(c.Name),
			Slug:  c.Slug,
			Count: c.Count,
		})
	}

	for _, c := range raw {
		root := rootOf(c)
		if root == c.ID {
			continue
		}
		i, ok := index[root]
		if !ok {
			continue
		}
		categories[i].Subcategories = append(categories[i].Subcategories, html.UnescapeString(c.Name))
	}

	return categories
}

func matchSearch(products []models.Product, term string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Category), term) {
			matched = append(matched, p)
		}
	}
	return matched
}
