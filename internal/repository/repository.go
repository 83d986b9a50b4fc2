package repository

import (
	"context"

	"github.com/calltrack/api/internal/model"
)

// UserRepository is the persistence boundary for User records. Implementations
// return domain errors from internal/errors: Create reports ErrDuplicateEmail
// when the store's unique email constraint fires, lookups report
// ErrUserNotFound, and anything transient maps to ErrStoreUnavailable.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
}
