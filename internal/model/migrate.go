package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models.
//
// The card_id unique index intentionally covers soft-deleted rows too:
// identifiers are never reused, even after deletion.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Card{})
}
