package routes

import (
	"net/http"

	"github.com/arterio/storefront/app/handlers"
	"github.com/arterio/storefront/app/middlewares"
	"github.com/arterio/storefront/app/repositories"
	"github.com/arterio/storefront/app/services"
	"github.com/arterio/storefront/app/utils/sessions"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

type Dependencies struct {
	Render     *render.Render
	Catalog    services.CatalogClient
	Storage    repositories.StorageRepository
	Sessions   sessions.SessionStore
	Validator  *validator.Validate
	Checkout   handlers.CheckoutSessionFactory
	Logger     *zap.Logger
	CSRFKey    []byte
	Production bool
}

func NewRouter(deps Dependencies) http.Handler {
	router := mux.NewRouter()

	homeHandler := handlers.NewHomeHandler(deps.Render, deps.Catalog, deps.Logger)
	productHandler := handlers.NewProductHandler(deps.Render, deps.Catalog, deps.Logger)
	guard := handlers.NewCheckoutGuard()
	cartHandler := handlers.NewCartHandler(deps.Render, deps.Catalog, deps.Sessions, deps.Validator, guard, deps.Logger)
	checkoutHandler := handlers.NewCheckoutHandler(deps.Render, deps.Sessions, guard, deps.Checkout, deps.Logger)

	router.Use(middlewares.VisitorCartMiddleware(deps.Sessions, deps.Storage, deps.Logger))
	router.Use(csrf.Protect(deps.CSRFKey,
		csrf.Secure(deps.Production),
		csrf.Path("/"),
		csrf.ErrorHandler(csrfFailure(deps.Render, deps.Logger)),
	))
	router.Use(middlewares.CSRFTokenMiddleware)

	router.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	router.HandleFunc("/produtos", productHandler.Products).Methods(http.MethodGet)
	router.HandleFunc("/produto/{slug}", productHandler.ProductDetail).Methods(http.MethodGet)
	router.HandleFunc("/categorias", productHandler.Categories).Methods(http.MethodGet)

	router.HandleFunc("/carrinho", cartHandler.GetCart).Methods(http.MethodGet)
	router.HandleFunc("/carrinho", cartHandler.ClearCart).Methods(http.MethodDelete)
	router.HandleFunc("/carrinho/count", cartHandler.GetCartCount).Methods(http.MethodGet)
	router.HandleFunc("/carrinho/itens", cartHandler.AddItem).Methods(http.MethodPost)
	router.HandleFunc("/carrinho/itens/{key}", cartHandler.UpdateItem).Methods(http.MethodPatch)
	router.HandleFunc("/carrinho/itens/{key}", cartHandler.RemoveItem).Methods(http.MethodDelete)
	router.HandleFunc("/carrinho/painel", cartHandler.TogglePanel).Methods(http.MethodPost)

	router.HandleFunc("/checkout", checkoutHandler.Checkout).Methods(http.MethodPost)

	router.NotFoundHandler = handlers.NotFound(deps.Render)

	var handler http.Handler = middlewares.MethodOverrideMiddleware(router)
	if !deps.Production {
		handler = middlewares.PlaintextCSRFMiddleware(handler)
	}
	return middlewares.RequestLoggerMiddleware(deps.Logger)(handler)
}

func csrfFailure(rnd *render.Render, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("CSRF check failed", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
		_ = rnd.JSON(w, http.StatusForbidden, map[string]interface{}{
			"status":  "error",
			"message": "Sessão expirada. Recarregue a página e tente novamente.",
		})
	})
}
