package database

import (
	"gorm.io/gorm"

	"github.com/medlabs/critalert/internal/models"
)

// AutoMigrate creates or updates the database schema for all persistent models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CriticalAlert{},
		&models.SecurityEvent{},
	)
}
