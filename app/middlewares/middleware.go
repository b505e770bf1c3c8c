package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/arterio/storefront/app/helpers"
	"github.com/arterio/storefront/app/repositories"
	"github.com/arterio/storefront/app/services"
	"github.com/arterio/storefront/app/utils/sessions"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func RequestLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// VisitorCartMiddleware identifies the visitor and hydrates their cart
// for the duration of the request.
func VisitorCartMiddleware(store sessions.SessionStore, storage repositories.StorageRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitorID, err := store.VisitorID(w, r)
			if err != nil {
				logger.Error("Failed to issue visitor session", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			repo := repositories.NewCartRepository(storage, repositories.VisitorCartKey(visitorID))
			cart := services.NewCartService(r.Context(), repo, logger.With(zap.String("visitor_id", visitorID)))

			ctx := helpers.WithVisitor(r.Context(), visitorID, cart, store.CartPanelOpen(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PlaintextCSRFMiddleware lets the CSRF check accept plain HTTP origins.
// Only installed outside production.
func PlaintextCSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

// CSRFTokenMiddleware exposes the token for the next mutating request.
func CSRFTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRF-Token", csrf.Token(r))
		next.ServeHTTP(w, r)
	})
}

func MethodOverrideMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			override := r.URL.Query().Get("_method")
			if override == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				_ = r.ParseForm()
				override = r.PostForm.Get("_method")
			}
			switch m := strings.ToUpper(override); m {
			case http.MethodPatch, http.MethodDelete, http.MethodPut:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}
