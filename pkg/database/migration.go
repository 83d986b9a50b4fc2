package database

import (
	"github.com/calltrack/api/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate creates the users table and its unique email index if absent.
// It is idempotent and must complete before the service accepts traffic.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
	)
}
