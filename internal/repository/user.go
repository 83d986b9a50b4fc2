package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/calltrack/api/internal/errors"
	"github.com/calltrack/api/internal/model"
	"github.com/calltrack/api/pkg/ctxutil"
	"github.com/calltrack/api/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row. The unique index on email is the arbiter of
// concurrent registrations: there is no prior existence check, and a
// constraint violation is reported as ErrDuplicateEmail.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.NewContext(ctx, "repository", "Create")

	logger.DebugWithContext(ctx, "Creating new user").
		String("email", user.Email).
		Log()

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.InfoWithContext(ctx, "User creation rejected by unique email constraint").
				String("email", user.Email).
				Duration(duration).
				Log()
			return apperrors.ErrDuplicateEmail
		}

		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return apperrors.WrapError(apperrors.ErrStoreUnavailable, result.Error)
	}

	logger.InfoWithContext(ctx, "User created successfully").
		String("email", user.Email).
		Int("user_id", int(user.ID)).
		Duration(duration).
		Log()

	return nil
}

// GetByEmail finds a user by normalized email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.NewContext(ctx, "repository", "GetByEmail")

	logger.DebugWithContext(ctx, "Getting user by email").
		String("email", email).
		Log()

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.DebugWithContext(ctx, "User not found by email").
				String("email", email).
				Duration(duration).
				Log()
			return nil, apperrors.ErrUserNotFound
		}

		logger.ErrorWithContext(ctx, "Failed to get user by email").
			String("email", email).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrStoreUnavailable, result.Error)
	}

	return &user, nil
}

// GetByID finds a user by primary key
func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.NewContext(ctx, "repository", "GetByID")

	logger.DebugWithContext(ctx, "Getting user by ID").
		Int("user_id", int(id)).
		Log()

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}

		logger.ErrorWithContext(ctx, "Failed to get user by ID").
			Int("user_id", int(id)).
			Duration(duration).
			Err(result.Error).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrStoreUnavailable, result.Error)
	}

	return &user, nil
}

// isUniqueViolation detects the store-level unique constraint failure, either
// through gorm's error translation or the raw pgconn error.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
