package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/utils/calc"
	"github.com/shopspring/decimal"
)

// CartStorageKey is the fixed key of the local cart record.
const CartStorageKey = "arterio_cart"

var ErrUnsupportedCartVersion = errors.New("unsupported cart record version")

type CartRepository interface {
	Load(ctx context.Context) (models.Cart, error)
	Save(ctx context.Context, cart models.Cart) error
}

type cartRepository struct {
	storage StorageRepository
	key     string
}

func NewCartRepository(storage StorageRepository, key string) CartRepository {
	if key == "" {
		key = CartStorageKey
	}
	return &cartRepository{storage: storage, key: key}
}

// VisitorCartKey scopes the cart record to one storefront visitor.
func VisitorCartKey(visitorID string) string {
	return CartStorageKey + ":" + visitorID
}

func (r *cartRepository) Load(ctx context.Context) (models.Cart, error) {
	data, err := r.storage.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return models.Cart{}, nil
		}
		return models.Cart{}, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return models.Cart{}, nil
	}

	if data[0] == '[' {
		items, err := decodeLegacyItems(data)
		if err != nil {
			return models.Cart{}, fmt.Errorf("failed to decode legacy cart %s: %w", r.key, err)
		}
		return models.Cart{Items: items}, nil
	}

	var record models.CartRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.Cart{}, fmt.Errorf("failed to decode cart %s: %w", r.key, err)
	}
	if record.Version != models.CartRecordVersion {
		return models.Cart{}, fmt.Errorf("cart %s has version %d: %w", r.key, record.Version, ErrUnsupportedCartVersion)
	}
	return models.Cart{Items: record.Items}, nil
}

func (r *cartRepository) Save(ctx context.Context, cart models.Cart) error {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(models.CartRecord{Version: models.CartRecordVersion, Items: items})
	if err != nil {
		return fmt.Errorf("failed to encode cart %s: %w", r.key, err)
	}
	return r.storage.Set(ctx, r.key, data)
}

// legacyCartItem is the unversioned layout written by the first storefront:
// a bare array with numeric product ids and camelCase product fields.
type legacyCartItem struct {
	Key         string        `json:"key"`
	ProductID   json.Number   `json:"product_id"`
	VariationID *json.Number  `json:"variation_id"`
	Quantity    int           `json:"quantity"`
	Product     legacyProduct `json:"product"`
}

type legacyProduct struct {
	ID             string                  `json:"id"`
	Name           string                  `json:"name"`
	Price          decimal.Decimal         `json:"price"`
	PriceOnRequest bool                    `json:"priceOnRequest"`
	Category       string                  `json:"category"`
	InStock        bool                    `json:"inStock"`
	Image          string                  `json:"image"`
	Sku            string                  `json:"sku"`
	Description    string                  `json:"description"`
	Variants       []models.ProductVariant `json:"variants"`
}

func decodeLegacyItems(data []byte) ([]models.CartItem, error) {
	var legacy []legacyCartItem
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(legacy))
	for _, li := range legacy {
		if li.Quantity <= 0 {
			continue
		}
		variant := ""
		if li.VariationID != nil {
			variant = li.VariationID.String()
		}
		product := models.Product{
			ID:             li.ProductID.String(),
			Name:           li.Product.Name,
			Price:          li.Product.Price,
			PriceOnRequest: li.Product.PriceOnRequest,
			Category:       li.Product.Category,
			InStock:        li.Product.InStock,
			Image:          li.Product.Image,
			Sku:            li.Product.Sku,
			Description:    li.Product.Description,
			Variants:       li.Product.Variants,
		}
		if product.Category == "" {
			product.Category = models.DefaultCategoryName
		}
		items = append(items, models.CartItem{
			Key:       li.Key,
			ProductID: product.ID,
			Variant:   variant,
			Quantity:  li.Quantity,
			Product:   product,
			Subtotal:  calc.LineSubtotal(product.Price, li.Quantity),
		})
	}
	return items, nil
}
