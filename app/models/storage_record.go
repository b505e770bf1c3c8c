package models

import "time"

// StorageRecord is one key/value row of the SQL-backed local storage.
type StorageRecord struct {
	Key       string `gorm:"column:storage_key;size:191;not null;primary_key"`
	Value     []byte `gorm:"type:blob"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
