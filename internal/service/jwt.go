package service

import (
	"errors"
	"time"

	apperrors "github.com/calltrack/api/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

// JWTService issues and verifies stateless bearer tokens. Verification is a
// pure signature check with no store access, so the server cannot revoke a
// token before its expiry. That trade-off (simplicity over revocability) is
// deliberate: logout is a client-side operation.
type JWTService struct {
	secretKey string
	expiry    time.Duration
}

func NewJWTService(secretKey string, expiry time.Duration) *JWTService {
	return &JWTService{
		secretKey: secretKey,
		expiry:    expiry,
	}
}

// GenerateToken creates a signed HS256 token carrying the user's identifier
// and an expiry.
func (s *JWTService) GenerateToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.expiry).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken checks signature and expiry and returns the user ID the token
// was issued for. Expired and malformed tokens fail with distinct domain
// errors for observability; calling code must treat both identically.
func (s *JWTService) VerifyToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.secretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, apperrors.ErrTokenExpired
		}
		return 0, apperrors.WrapError(apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, apperrors.ErrTokenInvalid
	}

	// Numeric JSON claims decode as float64
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, apperrors.ErrTokenInvalid
	}

	return uint(userIDFloat), nil
}
