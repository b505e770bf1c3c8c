package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/arterio/storefront/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrKeyNotFound = errors.New("storage key not found")

// StorageRepository is durable key/value storage for serialized records.
type StorageRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

type gormStorageRepository struct {
	db *gorm.DB
}

func NewGormStorageRepository(db *gorm.DB) StorageRepository {
	return &gormStorageRepository{db}
}

func (r *gormStorageRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var record models.StorageRecord
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read storage key %s: %w", key, err)
	}
	return record.Value, nil
}

func (r *gormStorageRepository) Set(ctx context.Context, key string, value []byte) error {
	record := models.StorageRecord{Key: key, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to write storage key %s: %w", key, err)
	}
	return nil
}

func (r *gormStorageRepository) Remove(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&models.StorageRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove storage key %s: %w", key, err)
	}
	return nil
}
