package cmd

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"

	"github.com/arterio/storefront/app/configs"
	"github.com/arterio/storefront/app/models/migrations"
	"github.com/arterio/storefront/app/repositories"
	"github.com/arterio/storefront/app/services"
	"go.uber.org/zap"
)

// runtime builds the shared dependencies lazily so commands that never
// touch storage or the network do not open them.
type runtime struct {
	env    configs.ENV
	logger *zap.Logger
	out    io.Writer

	storageRepo repositories.StorageRepository
	closeDB     func() error
}

func (rt *runtime) storage() (repositories.StorageRepository, error) {
	if rt.storageRepo != nil {
		return rt.storageRepo, nil
	}

	if rt.env.StorageDriver == "file" {
		repo, err := repositories.NewFileStorageRepository(rt.env.StoragePath)
		if err != nil {
			return nil, err
		}
		rt.storageRepo = repo
		return repo, nil
	}

	db, err := configs.OpenConnection(rt.env, rt.logger)
	if err != nil {
		return nil, err
	}
	if err := migrations.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate storage table: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	rt.closeDB = sqlDB.Close
	rt.storageRepo = repositories.NewGormStorageRepository(db)
	return rt.storageRepo, nil
}

func (rt *runtime) close() {
	if rt.closeDB == nil {
		return
	}
	if err := rt.closeDB(); err != nil {
		rt.logger.Warn("Failed to close database", zap.Error(err))
	}
}

func (rt *runtime) catalog() *services.CatalogService {
	client := &http.Client{Timeout: rt.env.CatalogTimeout}
	return services.NewCatalogService(rt.env.StoreAPIURL, client, rt.logger.Named("catalog"))
}

// cart hydrates the terminal's cart, stored under the fixed key.
func (rt *runtime) cart(ctx context.Context) (*services.CartService, error) {
	storage, err := rt.storage()
	if err != nil {
		return nil, err
	}
	repo := repositories.NewCartRepository(storage, repositories.CartStorageKey)
	return services.NewCartService(ctx, repo, rt.logger.Named("cart")), nil
}

func (rt *runtime) newCheckoutSession() (*services.CheckoutService, error) {
	client, err := services.NewSessionClient(rt.env.CatalogTimeout)
	if err != nil {
		return nil, err
	}
	return services.NewCheckoutService(rt.env.StoreAPIURL, rt.env.CheckoutURL, client, rt.logger.Named("checkout")), nil
}

func csrfKey(keys *configs.SessionKeys) []byte {
	sum := sha256.Sum256(append([]byte("csrf:"), keys.AuthKey...))
	return sum[:]
}
