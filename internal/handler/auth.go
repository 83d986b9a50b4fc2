package handler

import (
	"net/http"

	"github.com/calltrack/api/internal/constants"
	"github.com/calltrack/api/internal/dto"
	apperrors "github.com/calltrack/api/internal/errors"
	"github.com/calltrack/api/internal/service"
	"github.com/calltrack/api/pkg/ctxutil"
	"github.com/calltrack/api/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid registration request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			apperrors.ErrValidation.Code, "Invalid request format", err.Error()))
		return
	}

	response, err := h.authService.Register(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration failed").
			String("email", service.NormalizeEmail(req.Email)).
			Err(err).
			Log()
		h.writeError(c, err)
		return
	}

	logger.InfoWithContext(ctx, "User registered").
		String("email", response.User.Email).
		Int("user_id", int(response.User.ID)).
		Log()

	c.JSON(http.StatusCreated, response)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			apperrors.ErrValidation.Code, "Invalid request format", err.Error()))
		return
	}

	response, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("email", service.NormalizeEmail(req.Email)).
			Err(err).
			Log()
		h.writeError(c, err)
		return
	}

	logger.InfoWithContext(ctx, "User logged in").
		String("email", response.User.Email).
		Int("user_id", int(response.User.ID)).
		Log()

	c.JSON(http.StatusOK, response)
}

// Me returns the authenticated caller's profile. The web client uses it to
// reconcile its locally stored profile with server truth.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := ctxutil.GetUserID(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			apperrors.ErrUnauthorized.Code, apperrors.ErrUnauthorized.Message, nil))
		return
	}

	user, err := h.authService.CurrentUser(ctx, userID)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to load current user").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// writeError maps a domain error to its HTTP status and a sanitized body.
// Raw store detail stays in the server logs.
func (h *AuthHandler) writeError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)

	code := apperrors.ErrInternal.Code
	if domainErr := apperrors.GetDomainError(err); domainErr != nil {
		code = domainErr.Code
	}

	c.JSON(status, constants.BuildErrorResponse(code, apperrors.GetErrorMessage(err), nil))
}
