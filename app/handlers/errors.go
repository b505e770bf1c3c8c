package handlers

import (
	"errors"
	"net/http"

	"github.com/arterio/storefront/app/helpers"
	"github.com/arterio/storefront/app/services"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

var (
	errOutOfStock     = errors.New("product is out of stock")
	errNoVisitorCart  = errors.New("visitor cart missing from request context")
	errInvalidRequest = errors.New("invalid request")
)

type requestError struct {
	cause  error
	fields map[string]string
}

func (e *requestError) Error() string { return errInvalidRequest.Error() + ": " + e.cause.Error() }
func (e *requestError) Unwrap() error { return errInvalidRequest }

func newRequestError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &requestError{cause: err, fields: helpers.FormatValidationErrors(verrs)}
	}
	return &requestError{cause: err}
}

// writeError renders err as the storefront's JSON error envelope. Requests
// whose caller went away get no response.
func writeError(rnd *render.Render, logger *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if services.IsAbandoned(err) {
		logger.Debug("Request abandoned", zap.String("path", r.URL.Path))
		return
	}

	status := http.StatusInternalServerError
	message := services.UserMessage(err)
	body := map[string]interface{}{"status": "error"}

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		status = http.StatusBadRequest
		message = "Requisição inválida"
		if reqErr.fields != nil {
			body["errors"] = reqErr.fields
		}
	case errors.Is(err, errOutOfStock):
		status = http.StatusConflict
		message = "Produto esgotado"
	case errors.Is(err, services.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
		body["retry"] = true
	case errors.Is(err, services.ErrCheckoutSyncFailed):
		status = http.StatusBadGateway
		body["retry"] = true
	case errors.Is(err, services.ErrCheckoutInProgress):
		status = http.StatusConflict
	case errors.Is(err, services.ErrCartEmpty), errors.Is(err, services.ErrInvalidQuantity), errors.Is(err, services.ErrInvalidFilter):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}

	body["message"] = message
	_ = rnd.JSON(w, status, body)
}

// NotFound answers unknown routes.
func NotFound(rnd *render.Render) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = rnd.JSON(w, http.StatusNotFound, map[string]interface{}{
			"status":  "error",
			"message": "Página não encontrada",
		})
	})
}
