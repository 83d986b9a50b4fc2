package middleware

import (
	"net/http"
	"strings"

	"github.com/calltrack/api/internal/constants"
	apperrors "github.com/calltrack/api/internal/errors"
	"github.com/calltrack/api/internal/service"
	"github.com/calltrack/api/pkg/ctxutil"
	"github.com/calltrack/api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextUserIDKey is the gin context key handlers read the caller's ID from.
const ContextUserIDKey = "user_id"

type JWTMiddleware struct {
	jwtService *service.JWTService
}

func NewJWTMiddleware(jwtService *service.JWTService) *JWTMiddleware {
	return &JWTMiddleware{jwtService: jwtService}
}

// RequireAuth validates the bearer token and sets the caller's user ID in
// context. Verification is a pure signature check: no store round-trip per
// request. Expired and malformed tokens are logged distinctly but the
// response is identical for both.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.GetLogger().Warn("Missing Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			m.reject(c)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			logger.GetLogger().Warn("Invalid Authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			m.reject(c)
			return
		}

		userID, err := m.jwtService.VerifyToken(tokenParts[1])
		if err != nil {
			code := "TOKEN_INVALID"
			if domainErr := apperrors.GetDomainError(err); domainErr != nil {
				code = domainErr.Code
			}
			logger.GetLogger().Warn("Token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("reason", code))
			m.reject(c)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), userID))

		c.Next()
	}
}

func (m *JWTMiddleware) reject(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
		apperrors.ErrUnauthorized.Code, apperrors.ErrUnauthorized.Message, nil))
	c.Abort()
}
