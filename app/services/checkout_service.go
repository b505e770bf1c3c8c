package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/models/other"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// CheckoutCart is the part of the cart store the checkout hand-off drains.
type CheckoutCart interface {
	Cart() models.Cart
	Clear(ctx context.Context) models.Cart
}

// Navigator leaves the storefront for the external checkout page.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// ItemSyncFailure is a cart line the session cart refused.
type ItemSyncFailure struct {
	Key        string `json:"key"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	StatusCode int    `json:"status_code,omitempty"`
	Reason     string `json:"reason"`
}

type CheckoutResult struct {
	CheckoutURL string            `json:"checkout_url"`
	Synced      int               `json:"synced"`
	Failed      []ItemSyncFailure `json:"failed,omitempty"`
}

// CheckoutService copies the local cart into the remote session cart and
// hands the visitor over to the hosted checkout page.
type CheckoutService struct {
	addItemURL  string
	checkoutURL string
	client      *http.Client
	logger      *zap.Logger

	// running admits one checkout at a time; the loop inside it issues one
	// request at a time.
	running sync.Mutex
}

// NewSessionClient returns an HTTP client whose cookie jar keeps every
// request on the same remote session.
func NewSessionClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Timeout: timeout, Jar: jar}, nil
}

func NewCheckoutService(storeAPIURL, checkoutURL string, client *http.Client, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		addItemURL:  strings.TrimRight(storeAPIURL, "/") + "/cart/add-item",
		checkoutURL: checkoutURL,
		client:      client,
		logger:      logger,
	}
}

// GoToCheckout syncs every cart line, clears the local cart and navigates
// to the checkout page. Lines the remote rejects are reported in the result
// and do not stop the hand-off. If the remote cannot be reached at all, the
// cart is kept and nothing is navigated.
func (s *CheckoutService) GoToCheckout(ctx context.Context, cart CheckoutCart, nav Navigator) (*CheckoutResult, error) {
	if !s.running.TryLock() {
		return nil, ErrCheckoutInProgress
	}
	defer s.running.Unlock()

	snapshot := cart.Cart()
	if snapshot.IsEmpty() {
		return nil, ErrCartEmpty
	}

	result := &CheckoutResult{CheckoutURL: s.checkoutURL}
	for _, item := range snapshot.Items {
		failure, err := s.addItem(ctx, item)
		if err != nil {
			s.logger.Error("Checkout sync aborted", zap.String("product_id", item.ProductID), zap.Error(err))
			return nil, &CheckoutSyncFailedError{ProductID: item.ProductID, Cause: err}
		}
		if failure != nil {
			s.logger.Warn("Session cart rejected item",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Int("status", failure.StatusCode),
				zap.String("reason", failure.Reason))
			result.Failed = append(result.Failed, *failure)
			continue
		}
		result.Synced++
	}

	cart.Clear(ctx)

	s.logger.Info("Cart handed off to checkout",
		zap.Int("synced", result.Synced),
		zap.Int("failed", len(result.Failed)),
		zap.String("url", s.checkoutURL))

	if err := nav.Navigate(ctx, s.checkoutURL); err != nil {
		return result, fmt.Errorf("failed to navigate to checkout: %w", err)
	}
	return result, nil
}

// SessionCookies are the cookies the remote session set for the checkout
// page. Empty when the client keeps no jar.
func (s *CheckoutService) SessionCookies() []*http.Cookie {
	if s.client.Jar == nil {
		return nil
	}
	u, err := url.Parse(s.checkoutURL)
	if err != nil {
		return nil
	}
	return s.client.Jar.Cookies(u)
}

// addItem returns an error only when no response was received.
func (s *CheckoutService) addItem(ctx context.Context, item models.CartItem) (*ItemSyncFailure, error) {
	failure := &ItemSyncFailure{
		Key:       item.Key,
		ProductID: item.ProductID,
		Name:      item.Product.Name,
		Quantity:  item.Quantity,
	}

	id, err := strconv.Atoi(item.ProductID)
	if err != nil {
		failure.Reason = "product id is not numeric"
		return failure, nil
	}

	payload, err := json.Marshal(other.AddToCartRequest{ID: id, Quantity: item.Quantity})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.addItemURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Nonce", "prevent-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		s.logger.Debug("Failed to read add-item response",
			zap.String("product_id", item.ProductID),
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
		body = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		failure.StatusCode = resp.StatusCode
		failure.Reason = storeErrorCause(resp.Status, body).Error()
		return failure, nil
	}
	return nil, nil
}
