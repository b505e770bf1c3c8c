package migrations

import (
	"github.com/arterio/storefront/app/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.StorageRecord{})
}
