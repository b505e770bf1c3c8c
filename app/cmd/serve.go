package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arterio/storefront/app/configs"
	"github.com/arterio/storefront/app/helpers"
	"github.com/arterio/storefront/app/routes"
	"github.com/arterio/storefront/app/utils/renderer"
	"github.com/arterio/storefront/app/utils/sessions"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// serve runs the HTTP storefront until ctx is canceled.
func (rt *runtime) serve(ctx context.Context) error {
	storage, err := rt.storage()
	if err != nil {
		return err
	}

	keys, err := configs.LoadSessionKeys(rt.env, rt.logger)
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.Dependencies{
		Render:     renderer.New(rt.env.IsProduction()),
		Catalog:    rt.catalog(),
		Storage:    storage,
		Sessions:   sessions.NewCookieSessionStore(rt.logger.Named("session"), rt.env.IsProduction(), keys.AuthKey, keys.EncKey),
		Validator:  helpers.NewValidator(),
		Checkout:   rt.newCheckoutSession,
		Logger:     rt.logger,
		CSRFKey:    csrfKey(keys),
		Production: rt.env.IsProduction(),
	})

	server := &http.Server{
		Addr:              rt.env.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("Server starting", zap.String("addr", server.Addr), zap.String("store_api", rt.env.StoreAPIURL))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
