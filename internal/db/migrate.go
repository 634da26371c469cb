package db

import (
	"gorm.io/gorm"

	"github.com/scribe-social/scribe/internal/models"
)

// Migrate creates or updates the schema for all models. Production
// deployments run real migration tooling; this covers first boot and tests.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.Like{},
	)
}
