package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *CookieSessionStore {
	return NewCookieSessionStore(zaptest.NewLogger(t), false,
		securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32))
}

// roundTrip replays the cookies set by rec on a new request.
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestCookieSessionStore_VisitorIDIsStable(t *testing.T) {
	store := newTestStore(t)

	rec := httptest.NewRecorder()
	id, err := store.VisitorID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := store.VisitorID(httptest.NewRecorder(), roundTrip(rec))
	require.NoError(t, err)
	assert.Equal(t, id, again)

	other, err := store.VisitorID(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestCookieSessionStore_ForeignCookieStartsFresh(t *testing.T) {
	store := newTestStore(t)
	rec := httptest.NewRecorder()
	_, err := store.VisitorID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rotated := newTestStore(t)
	id, err := rotated.VisitorID(httptest.NewRecorder(), roundTrip(rec))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestCookieSessionStore_CartPanel(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.CartPanelOpen(httptest.NewRequest(http.MethodGet, "/", nil)))

	rec := httptest.NewRecorder()
	require.NoError(t, store.SetCartPanelOpen(rec, httptest.NewRequest(http.MethodPost, "/", nil), true))
	assert.True(t, store.CartPanelOpen(roundTrip(rec)))
}

func TestCookieSessionStore_FlashesDrain(t *testing.T) {
	store := newTestStore(t)

	rec := httptest.NewRecorder()
	require.NoError(t, store.AddFlash(rec, httptest.NewRequest(http.MethodPost, "/", nil), Flash{Level: "warning", Message: "Produto X não foi adicionado"}))

	readRec := httptest.NewRecorder()
	flashes := store.Flashes(readRec, roundTrip(rec))
	assert.Equal(t, []Flash{{Level: "warning", Message: "Produto X não foi adicionado"}}, flashes)

	assert.Empty(t, store.Flashes(httptest.NewRecorder(), roundTrip(readRec)))
}
