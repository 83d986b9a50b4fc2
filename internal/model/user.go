package model

import (
	"time"
)

// User is the only persisted entity. gorm.Model is deliberately not embedded:
// users are never updated or soft-deleted, so UpdatedAt and DeletedAt would
// only suggest a lifecycle that does not exist.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	FirstName    string    `gorm:"column:first_name;not null"`
	LastName     string    `gorm:"column:last_name;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (User) TableName() string {
	return "users"
}
