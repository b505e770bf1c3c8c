package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/repositories"
	"github.com/arterio/storefront/app/utils/calc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService is the single owner of the local cart. Every mutation is
// persisted before it returns; a failed write is logged and the in-memory
// cart stays authoritative.
type CartService struct {
	mu     sync.Mutex
	repo   repositories.CartRepository
	logger *zap.Logger
	cart   models.Cart
}

// NewCartService hydrates the cart from repo. An unreadable record starts
// the session with an empty cart.
func NewCartService(ctx context.Context, repo repositories.CartRepository, logger *zap.Logger) *CartService {
	s := &CartService{repo: repo, logger: logger}

	cart, err := repo.Load(ctx)
	if err != nil {
		logger.Warn("Failed to load persisted cart, starting empty", zap.Error(err))
		cart = models.Cart{}
	}
	s.cart = cart
	return s
}

// AddItem merges quantity into the line holding the same product and
// variant, or appends a new line.
func (s *CartService) AddItem(ctx context.Context, product models.Product, quantity int, variant string) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, fmt.Errorf("add %d of product %s: %w", quantity, product.ID, ErrInvalidQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.cart.Items {
		item := &s.cart.Items[i]
		if !item.SameLine(product.ID, variant) {
			continue
		}
		item.Quantity += quantity
		item.Subtotal = calc.LineSubtotal(item.Product.Price, item.Quantity)
		merged = true
		break
	}

	if !merged {
		s.cart.Items = append(s.cart.Items, models.CartItem{
			Key:       newItemKey(product.ID, variant),
			ProductID: product.ID,
			Variant:   variant,
			Quantity:  quantity,
			Product:   product,
			Subtotal:  calc.LineSubtotal(product.Price, quantity),
		})
	}

	s.logger.Debug("Added item to cart",
		zap.String("product_id", product.ID),
		zap.String("variant", variant),
		zap.Int("quantity", quantity),
		zap.Bool("merged", merged))

	s.persist(ctx)
	return s.snapshot(), nil
}

// RemoveItem drops the line with key. Unknown keys are ignored.
func (s *CartService) RemoveItem(ctx context.Context, key string) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(key)
	s.persist(ctx)
	return s.snapshot()
}

// UpdateQuantity sets the quantity of a line; zero removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, key string, quantity int) (models.Cart, error) {
	if quantity < 0 {
		return models.Cart{}, fmt.Errorf("set quantity %d on %s: %w", quantity, key, ErrInvalidQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity == 0 {
		s.removeLocked(key)
	} else {
		for i := range s.cart.Items {
			item := &s.cart.Items[i]
			if item.Key != key {
				continue
			}
			item.Quantity = quantity
			item.Subtotal = calc.LineSubtotal(item.Product.Price, quantity)
			break
		}
	}

	s.persist(ctx)
	return s.snapshot(), nil
}

func (s *CartService) Clear(ctx context.Context) models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = models.Cart{}
	s.persist(ctx)
	return s.snapshot()
}

// Cart returns a copy of the current cart.
func (s *CartService) Cart() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *CartService) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *CartService) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

func (s *CartService) removeLocked(key string) {
	items := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.Key != key {
			items = append(items, item)
		}
	}
	s.cart.Items = items
}

func (s *CartService) snapshot() models.Cart {
	items := make([]models.CartItem, len(s.cart.Items))
	copy(items, s.cart.Items)
	return models.Cart{Items: items}
}

// persist is detached from ctx cancellation so an abandoned request does
// not leave the stored cart behind the in-memory one.
func (s *CartService) persist(ctx context.Context) {
	if err := s.repo.Save(context.WithoutCancel(ctx), s.cart); err != nil {
		s.logger.Warn("Cart not persisted",
			zap.Error(fmt.Errorf("%w: %w", ErrPersistenceSkipped, err)),
			zap.Int("items", len(s.cart.Items)))
	}
}

func newItemKey(productID, variant string) string {
	if variant == "" {
		variant = "simple"
	}
	return fmt.Sprintf("%s_%s_%s", productID, variant, uuid.NewString())
}
