package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arterio/storefront/app/helpers"
	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/repositories"
	"github.com/arterio/storefront/app/utils/sessions"
	"github.com/gorilla/securecookie"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestLoggerMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/produtos", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/produtos", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["bytes"])
}

func TestVisitorCartMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	store := sessions.NewCookieSessionStore(logger, false, securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32))
	storage, err := repositories.NewFileStorageRepository(t.TempDir())
	require.NoError(t, err)

	var seen []string
	handler := VisitorCartMiddleware(store, storage, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cart := helpers.CartFromContext(r.Context())
		require.NotNil(t, cart)
		seen = append(seen, helpers.VisitorIDFromContext(r.Context()))

		if r.Method == http.MethodPost {
			_, err := cart.AddItem(r.Context(), models.Product{ID: "12", Price: decimal.NewFromInt(10)}, 2, "")
			require.NoError(t, err)
		}
		w.Write([]byte(`ok`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/carrinho/itens", nil))

	again := httptest.NewRequest(http.MethodGet, "/carrinho", nil)
	for _, c := range first.Result().Cookies() {
		again.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), again)

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])

	cart, err := repositories.NewCartRepository(storage, repositories.VisitorCartKey(seen[0])).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())

	stranger, err := repositories.NewCartRepository(storage, repositories.VisitorCartKey("someone-else")).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, stranger.IsEmpty())
}

func TestMethodOverrideMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		req    func() *http.Request
		method string
	}{
		{
			name: "form field",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/carrinho/itens/k", strings.NewReader("_method=delete"))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			method: http.MethodDelete,
		},
		{
			name:   "query parameter",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodPost, "/carrinho/itens/k?_method=PATCH", nil) },
			method: http.MethodPatch,
		},
		{
			name:   "unsupported override",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodPost, "/carrinho?_method=GET", nil) },
			method: http.MethodPost,
		},
		{
			name:   "get untouched",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/carrinho?_method=DELETE", nil) },
			method: http.MethodGet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			MethodOverrideMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Method
			})).ServeHTTP(httptest.NewRecorder(), tt.req())
			assert.Equal(t, tt.method, got)
		})
	}
}
