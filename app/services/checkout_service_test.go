package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arterio/storefront/app/models/other"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNavigator) Navigate(_ context.Context, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
	return nil
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

func newTestCheckout(t *testing.T, handler http.HandlerFunc) (*CheckoutService, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewSessionClient(5 * time.Second)
	require.NoError(t, err)
	client.Transport = &http.Transport{}
	t.Cleanup(client.CloseIdleConnections)

	checkoutURL := srv.URL + "/checkout"
	return NewCheckoutService(srv.URL+"/wp-json/wc/store/v1", checkoutURL, client, zaptest.NewLogger(t)), checkoutURL
}

func filledCart(t *testing.T) *CartService {
	t.Helper()
	ctx := context.Background()
	store := newTestCart(t, newMemoryStorage())
	_, err := store.AddItem(ctx, product("12", "10.00"), 2, "")
	require.NoError(t, err)
	_, err = store.AddItem(ctx, product("15", "5.00"), 1, "Preto")
	require.NoError(t, err)
	return store
}

func TestCheckoutService_EmptyCart(t *testing.T) {
	var calls atomic.Int32
	svc, _ := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	store := newTestCart(t, newMemoryStorage())
	nav := &recordingNavigator{}

	result, err := svc.GoToCheckout(context.Background(), store, nav)

	require.ErrorIs(t, err, ErrCartEmpty)
	assert.Nil(t, result)
	assert.Equal(t, "Seu carrinho está vazio", UserMessage(err))
	assert.Zero(t, calls.Load())
	assert.Empty(t, nav.visited())
	assert.True(t, store.Cart().IsEmpty())
}

func TestCheckoutService_SyncsEveryItem(t *testing.T) {
	var (
		mu       sync.Mutex
		received []other.AddToCartRequest
	)
	svc, checkoutURL := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wc/store/v1/cart/add-item", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "prevent-cache", r.Header.Get("Nonce"))

		var body other.AddToCartRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		received = append(received, body)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	store := filledCart(t)
	nav := &recordingNavigator{}

	result, err := svc.GoToCheckout(context.Background(), store, nav)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []other.AddToCartRequest{{ID: 12, Quantity: 2}, {ID: 15, Quantity: 1}}, received)
	assert.True(t, store.Cart().IsEmpty())
	assert.Equal(t, []string{checkoutURL}, nav.visited())
}

func TestCheckoutService_RejectedItemDoesNotStopHandOff(t *testing.T) {
	var calls atomic.Int32
	svc, checkoutURL := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"code":"woocommerce_rest_cart_invalid_product","message":"Produto indisponível"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	store := filledCart(t)
	first := store.Cart().Items[0]
	nav := &recordingNavigator{}

	result, err := svc.GoToCheckout(context.Background(), store, nav)

	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 1, result.Synced)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, first.Key, result.Failed[0].Key)
	assert.Equal(t, "12", result.Failed[0].ProductID)
	assert.Equal(t, 2, result.Failed[0].Quantity)
	assert.Equal(t, http.StatusInternalServerError, result.Failed[0].StatusCode)
	assert.Contains(t, result.Failed[0].Reason, "Produto indisponível")
	assert.True(t, store.Cart().IsEmpty())
	assert.Equal(t, []string{checkoutURL}, nav.visited())
}

func TestCheckoutService_TruncatedRejectionFallsBackToStatus(t *testing.T) {
	var calls atomic.Int32
	svc, _ := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Length", "512")
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"code":"woocommerce_rest_cart_invalid_product","message":"Produto`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	store := filledCart(t)

	result, err := svc.GoToCheckout(context.Background(), store, &recordingNavigator{})

	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, http.StatusUnprocessableEntity, result.Failed[0].StatusCode)
	assert.Equal(t, "422 Unprocessable Entity", result.Failed[0].Reason)
}

func TestCheckoutService_NonNumericProductIsReported(t *testing.T) {
	var calls atomic.Int32
	svc, _ := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusCreated)
	})
	store := newTestCart(t, newMemoryStorage())
	_, err := store.AddItem(context.Background(), product("kit-gaffer", "99.90"), 1, "")
	require.NoError(t, err)

	result, err := svc.GoToCheckout(context.Background(), store, &recordingNavigator{})

	require.NoError(t, err)
	assert.Zero(t, calls.Load())
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "kit-gaffer", result.Failed[0].ProductID)
}

func TestCheckoutService_UnreachableRemoteKeepsCart(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewSessionClient(time.Second)
	require.NoError(t, err)
	client.Transport = &http.Transport{}
	t.Cleanup(client.CloseIdleConnections)

	svc := NewCheckoutService(base, base+"/checkout", client, zaptest.NewLogger(t))
	store := filledCart(t)
	before := store.Cart()
	nav := &recordingNavigator{}

	result, err := svc.GoToCheckout(context.Background(), store, nav)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrCheckoutSyncFailed)
	var syncErr *CheckoutSyncFailedError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, "12", syncErr.ProductID)
	assert.Equal(t, "Erro ao preparar checkout. Por favor, tente novamente.", UserMessage(err))

	assert.Len(t, store.Cart().Items, len(before.Items))
	assert.Equal(t, before.ItemCount(), store.ItemCount())
	assert.Empty(t, nav.visited())
}

func TestCheckoutService_SequentialOnOneSession(t *testing.T) {
	var (
		inFlight    atomic.Int32
		maxInFlight atomic.Int32
		calls       atomic.Int32
	)
	svc, _ := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}

		if calls.Add(1) == 1 {
			http.SetCookie(w, &http.Cookie{Name: "woocommerce_session", Value: "s1", Path: "/"})
		} else {
			cookie, err := r.Cookie("woocommerce_session")
			if assert.NoError(t, err) {
				assert.Equal(t, "s1", cookie.Value)
			}
		}
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
	})

	ctx := context.Background()
	store := newTestCart(t, newMemoryStorage())
	for _, id := range []string{"1", "2", "3", "4"} {
		_, err := store.AddItem(ctx, product(id, "1.00"), 1, "")
		require.NoError(t, err)
	}

	result, err := svc.GoToCheckout(ctx, store, &recordingNavigator{})

	require.NoError(t, err)
	assert.Equal(t, 4, result.Synced)
	assert.EqualValues(t, 4, calls.Load())
	assert.EqualValues(t, 1, maxInFlight.Load())
}

func TestCheckoutService_RejectsConcurrentCheckout(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	svc, _ := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		w.WriteHeader(http.StatusCreated)
	})
	store := filledCart(t)

	done := make(chan error, 1)
	go func() {
		_, err := svc.GoToCheckout(context.Background(), store, &recordingNavigator{})
		done <- err
	}()

	<-entered
	_, err := svc.GoToCheckout(context.Background(), store, &recordingNavigator{})
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.True(t, store.Cart().IsEmpty())
}

func TestCheckoutService_NavigationError(t *testing.T) {
	svc, _ := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	store := filledCart(t)
	nav := NavigatorFunc(func(context.Context, string) error {
		return errors.New("browser closed")
	})

	result, err := svc.GoToCheckout(context.Background(), store, nav)

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Synced)
	assert.True(t, store.Cart().IsEmpty())
}

func TestCheckoutService_SessionCookies(t *testing.T) {
	svc, _ := newTestCheckout(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "woocommerce_cart_hash", Value: "h1", Path: "/"})
		w.WriteHeader(http.StatusCreated)
	})

	assert.Empty(t, svc.SessionCookies())

	_, err := svc.GoToCheckout(context.Background(), filledCart(t), &recordingNavigator{})
	require.NoError(t, err)

	cookies := svc.SessionCookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "woocommerce_cart_hash", cookies[0].Name)
	assert.Equal(t, "h1", cookies[0].Value)
}
