package sessions

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "arterio-session"

	visitorIDSessionKey = "visitorID"
	cartOpenSessionKey  = "cartOpen"
)

// Flash is a one-shot notice shown on the next response.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func init() {
	gob.Register(Flash{})
}

// SessionStore holds the per-visitor presentation state: who the visitor
// is, whether the cart panel is open, and pending notices.
type SessionStore interface {
	VisitorID(w http.ResponseWriter, r *http.Request) (string, error)

	CartPanelOpen(r *http.Request) bool
	SetCartPanelOpen(w http.ResponseWriter, r *http.Request, open bool) error

	AddFlash(w http.ResponseWriter, r *http.Request, flash Flash) error
	Flashes(w http.ResponseWriter, r *http.Request) []Flash

	ClearSession(w http.ResponseWriter, r *http.Request) error
}

type CookieSessionStore struct {
	store  *sessions.CookieStore
	logger *zap.Logger
}

func NewCookieSessionStore(logger *zap.Logger, secure bool, keyPairs ...[]byte) *CookieSessionStore {
	store := sessions.NewCookieStore(keyPairs...)

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(30 * 24 * time.Hour / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieSessionStore{store: store, logger: logger}
}

// getSession always returns a usable session. A cookie that no longer
// decodes (rotated keys) yields a fresh one.
func (c *CookieSessionStore) getSession(r *http.Request) *sessions.Session {
	session, err := c.store.Get(r, sessionCookieName)
	if err != nil {
		c.logger.Debug("Discarding undecodable session cookie", zap.Error(err))
	}
	return session
}

// VisitorID returns the visitor's id, issuing one on the first visit.
func (c *CookieSessionStore) VisitorID(w http.ResponseWriter, r *http.Request) (string, error) {
	session := c.getSession(r)
	if id, ok := session.Values[visitorIDSessionKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	session.Values[visitorIDSessionKey] = id
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

func (c *CookieSessionStore) CartPanelOpen(r *http.Request) bool {
	open, _ := c.getSession(r).Values[cartOpenSessionKey].(bool)
	return open
}

func (c *CookieSessionStore) SetCartPanelOpen(w http.ResponseWriter, r *http.Request, open bool) error {
	session := c.getSession(r)
	session.Values[cartOpenSessionKey] = open
	return session.Save(r, w)
}

func (c *CookieSessionStore) AddFlash(w http.ResponseWriter, r *http.Request, flash Flash) error {
	session := c.getSession(r)
	session.AddFlash(flash)
	return session.Save(r, w)
}

// Flashes drains pending notices.
func (c *CookieSessionStore) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := c.getSession(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		c.logger.Warn("Failed to save session after reading flashes", zap.Error(err))
	}

	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

func (c *CookieSessionStore) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session := c.getSession(r)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
