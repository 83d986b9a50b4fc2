package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/calltrack/api/internal/constants"
	"github.com/calltrack/api/internal/dto"
	apperrors "github.com/calltrack/api/internal/errors"
	"github.com/calltrack/api/internal/model"
	"github.com/calltrack/api/internal/repository"
	"github.com/calltrack/api/pkg/ctxutil"
	"github.com/calltrack/api/pkg/logger"
	"github.com/calltrack/api/pkg/redis"
	"golang.org/x/crypto/bcrypt"
)

// userCacheTTL bounds staleness of the Redis profile cache. Profiles are
// immutable today, but the TTL keeps the cache self-healing if that changes.
const userCacheTTL = 5 * time.Minute

type AuthService struct {
	repoUser   repository.UserRepository
	jwtService *JWTService
	cache      redis.Client
	bcryptCost int

	// dummyHash is compared against on login when the email is unknown, so
	// the unknown-email path pays the same bcrypt cost as a wrong password.
	dummyHash []byte
}

func NewAuthService(repo repository.UserRepository, jwtService *JWTService, cache redis.Client, bcryptCost int) (*AuthService, error) {
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("calltrack.dummy.password"), bcryptCost)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		repoUser:   repo,
		jwtService: jwtService,
		cache:      cache,
		bcryptCost: bcryptCost,
		dummyHash:  dummyHash,
	}, nil
}

// NormalizeEmail lowers and trims an email address. Uniqueness and lookup
// both operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user and issues a token for the fresh session.
// Email uniqueness is decided by the store's constraint, not a pre-check.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.NewContext(ctx, "service", "Register")

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := NormalizeEmail(req.Email)

	if err := validateRegistration(firstName, lastName, email, req.Password); err != nil {
		logger.WarnWithContext(ctx, "Registration input rejected").
			String("email", email).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Registering new user").
		String("email", email).
		Log()

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").
			String("email", email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(passwordHash),
	}

	if err := s.repoUser.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			logger.InfoWithContext(ctx, "Registration rejected: duplicate email").
				String("email", email).
				Log()
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, err
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue token after registration").
			Int("user_id", int(user.ID)).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User registered successfully").
		String("email", email).
		Int("user_id", int(user.ID)).
		Log()

	return &dto.AuthResponse{
		User:  sanitizeUser(user),
		Token: token,
	}, nil
}

// Login verifies credentials and issues a fresh token. Unknown email and
// wrong password are indistinguishable to the caller: same error, and the
// unknown-email path performs a dummy bcrypt comparison so its timing
// matches the wrong-password path.
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	ctx = ctxutil.NewContext(ctx, "service", "Login")

	email = NormalizeEmail(email)

	logger.InfoWithContext(ctx, "User login attempt").
		String("email", email).
		Log()

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			logger.InfoWithContext(ctx, "Login failed: unknown email").
				String("email", email).
				Log()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.WarnWithContext(ctx, "Login failed: incorrect password").
			String("email", email).
			Int("user_id", int(user.ID)).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue token on login").
			Int("user_id", int(user.ID)).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User logged in successfully").
		String("email", email).
		Int("user_id", int(user.ID)).
		Log()

	return &dto.AuthResponse{
		User:  sanitizeUser(user),
		Token: token,
	}, nil
}

// VerifyToken answers "who is this token for". Pure computation, no store
// round-trip.
func (s *AuthService) VerifyToken(token string) (uint, error) {
	return s.jwtService.VerifyToken(token)
}

// CurrentUser returns the sanitized profile for an authenticated user ID,
// consulting the Redis profile cache first. Cache failures fall through to
// the store; they are never surfaced to the caller.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	ctx = ctxutil.NewContext(ctx, "service", "CurrentUser")

	cacheKey := constants.CacheKeyUser + strconv.FormatUint(uint64(userID), 10)

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var profile dto.UserResponse
		if err := json.Unmarshal([]byte(cached), &profile); err == nil {
			logger.DebugWithContext(ctx, "User profile served from cache").
				Int("user_id", int(userID)).
				Log()
			return &profile, nil
		}
		// Corrupt cache entry: drop it and fall through to the store.
		_ = s.cache.Del(ctx, cacheKey)
	}

	user, err := s.repoUser.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := sanitizeUser(user)

	if encoded, err := json.Marshal(profile); err == nil {
		_ = s.cache.Set(ctx, cacheKey, string(encoded), userCacheTTL)
	}

	return &profile, nil
}

// validateRegistration enforces the service-level input policy on top of the
// transport's binding validation, so the contract holds regardless of entry
// point.
func validateRegistration(firstName, lastName, email, password string) error {
	if firstName == "" || lastName == "" {
		return apperrors.ErrValidation
	}
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.ErrValidation
	}
	if len(password) < constants.PasswordMinLength || len(password) > constants.PasswordMaxLength {
		return apperrors.ErrValidation
	}
	return nil
}

// sanitizeUser maps a stored user to its response view. The hash never
// crosses this boundary.
func sanitizeUser(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
