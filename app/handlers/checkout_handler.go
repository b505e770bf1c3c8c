package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/arterio/storefront/app/helpers"
	"github.com/arterio/storefront/app/services"
	"github.com/arterio/storefront/app/utils/sessions"
	"github.com/unrolled/render"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// CheckoutSessionFactory returns a checkout service bound to a fresh remote
// session.
type CheckoutSessionFactory func() (*services.CheckoutService, error)

type CheckoutHandler struct {
	render     *render.Render
	sessions   sessions.SessionStore
	newSession CheckoutSessionFactory
	guard      *CheckoutGuard
	logger     *zap.Logger
}

func NewCheckoutHandler(r *render.Render, sessionStore sessions.SessionStore, guard *CheckoutGuard, newSession CheckoutSessionFactory, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		render:     r,
		sessions:   sessionStore,
		newSession: newSession,
		guard:      guard,
		logger:     logger,
	}
}

// Checkout syncs the visitor's cart into a remote session and redirects to
// the hosted checkout page. Items the store rejected are reported as flash
// warnings on the visitor's next cart view.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cart := helpers.CartFromContext(ctx)
	if cart == nil {
		writeError(h.render, h.logger, w, r, errNoVisitorCart)
		return
	}

	visitorID := helpers.VisitorIDFromContext(ctx)
	if !h.guard.begin(visitorID) {
		writeError(h.render, h.logger, w, r, services.ErrCheckoutInProgress)
		return
	}
	defer h.guard.end(visitorID)

	svc, err := h.newSession()
	if err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}

	var target string
	nav := services.NavigatorFunc(func(_ context.Context, checkoutURL string) error {
		target = checkoutURL
		return nil
	})

	result, err := svc.GoToCheckout(ctx, cart, nav)
	if err != nil {
		writeError(h.render, h.logger, w, r, err)
		return
	}

	for _, failed := range result.Failed {
		flash := sessions.Flash{
			Level:   "warning",
			Message: fmt.Sprintf("%s (x%d) não pôde ser enviado para o checkout.", failed.Name, failed.Quantity),
		}
		if err := h.sessions.AddFlash(w, r, flash); err != nil {
			h.logger.Warn("Failed to store checkout warning", zap.Error(err))
		}
	}
	if err := h.sessions.SetCartPanelOpen(w, r, false); err != nil {
		h.logger.Warn("Failed to store cart panel state", zap.Error(err))
	}

	relaySessionCookies(w, svc.SessionCookies(), target)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// relaySessionCookies hands the remote session to the browser. It only works
// when the storefront and the store share a registrable domain; otherwise
// the browser drops the cookies and the remote cart starts empty.
func relaySessionCookies(w http.ResponseWriter, cookies []*http.Cookie, target string) {
	u, err := url.Parse(target)
	if err != nil || net.ParseIP(u.Hostname()) != nil {
		return
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(u.Hostname())
	if err != nil {
		return
	}

	for _, c := range cookies {
		http.SetCookie(w, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   domain,
			Path:     "/",
			Secure:   u.Scheme == "https",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
