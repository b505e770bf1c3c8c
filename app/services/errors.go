package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidFilter      = errors.New("invalid product filter")
	ErrCheckoutSyncFailed = errors.New("could not prepare checkout, try again")
	ErrPersistenceSkipped = errors.New("cart persistence skipped")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// CatalogUnavailableError reports a transport or HTTP failure reaching the
// remote catalog.
type CatalogUnavailableError struct {
	Op         string
	StatusCode int
	Cause      error
}

func (e *CatalogUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog unavailable (%s): status %d: %v", e.Op, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("catalog unavailable (%s): %v", e.Op, e.Cause)
}

func (e *CatalogUnavailableError) Unwrap() []error {
	return []error{ErrCatalogUnavailable, e.Cause}
}

// CheckoutSyncFailedError reports that the session cart could not be reached
// at all. The local cart is left untouched.
type CheckoutSyncFailedError struct {
	ProductID string
	Cause     error
}

func (e *CheckoutSyncFailedError) Error() string {
	return fmt.Sprintf("%v: adding product %s: %v", ErrCheckoutSyncFailed, e.ProductID, e.Cause)
}

func (e *CheckoutSyncFailedError) Unwrap() []error {
	return []error{ErrCheckoutSyncFailed, e.Cause}
}

// IsAbandoned reports whether err only means the caller went away.
// Such results are dropped silently rather than shown.
func IsAbandoned(err error) bool {
	return errors.Is(err, context.Canceled)
}

// UserMessage is the storefront text shown for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCartEmpty):
		return "Seu carrinho está vazio"
	case errors.Is(err, ErrCheckoutSyncFailed):
		return "Erro ao preparar checkout. Por favor, tente novamente."
	case errors.Is(err, ErrCheckoutInProgress):
		return "Seu pedido já está sendo preparado."
	case errors.Is(err, ErrProductNotFound):
		return "Produto não encontrado"
	case errors.Is(err, ErrCatalogUnavailable):
		return "Não foi possível carregar os produtos. Tente novamente."
	case errors.Is(err, ErrInvalidQuantity):
		return "Quantidade inválida"
	case errors.Is(err, ErrInvalidFilter):
		return "Filtro inválido: use de 1 a 100 produtos por página e página a partir de 1."
	default:
		return "Algo deu errado. Tente novamente."
	}
}
