package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/meetingminutes/backend/errors"
	meetingdto "github.com/meetingminutes/backend/internal/adapter/dto/meeting"
	"github.com/meetingminutes/backend/internal/domain/repositories"
	"github.com/meetingminutes/backend/internal/infrastructure/http/middleware"
	"github.com/meetingminutes/backend/pkg/jwt"
)

// Auth handles login and identity lookups
type Auth struct {
	userRepo   repositories.UserRepository
	jwtManager *jwt.Manager
	logger     *zap.Logger
}

// NewAuth creates the auth handler
func NewAuth(userRepo repositories.UserRepository, jwtManager *jwt.Manager, logger *zap.Logger) *Auth {
	return &Auth{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Login verifies credentials and issues tokens
// POST /v1/auth/login
func (h *Auth) Login(c echo.Context) error {
	var req meetingdto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidation("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	if user == nil || user.PasswordHash == nil || !user.IsActive {
		return HandleError(h.logger, c, apperrors.ErrUnauthenticated())
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return HandleError(h.logger, c, apperrors.ErrUnauthenticated())
	}

	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	refreshToken, err := h.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}

	if err := h.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		h.logger.Warn("could not record last login", zap.Error(err))
	}

	return HandleSuccess(h.logger, c, meetingdto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Me returns the authenticated user
// GET /v1/auth/me
func (h *Auth) Me(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return HandleError(h.logger, c, apperrors.ErrUnauthenticated())
	}
	return HandleSuccess(h.logger, c, user)
}
