package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	appdto "github.com/vibast-solutions/ms-go-contacts/app/dto"
	dto "github.com/vibast-solutions/ms-go-contacts/app/dto/http"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type authService interface {
	Signup(ctx context.Context, username, email, password string) (*appdto.SignupResult, error)
	Login(ctx context.Context, email, password string) (*appdto.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*appdto.TokenPair, error)
	ConfirmEmail(ctx context.Context, token string) error
	Logout(ctx context.Context, user *entity.User) error
}

type AuthController struct {
	authService authService
}

func NewAuthController(authService authService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Signup(ctx echo.Context) error {
	var req dto.SignupRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind signup request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if len(req.Username) < 5 || len(req.Username) > 20 {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "username must be between 5 and 20 characters"})
	}
	if req.Email == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is required"})
	}
	if len(req.Password) < 8 || len(req.Password) > 25 {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "password must be between 8 and 25 characters"})
	}

	logrus.WithField("email", req.Email).Info("Signup request received")
	result, err := c.authService.Signup(ctx.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Signup failed: account already exists")
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "account already exists"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Signup failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": result.User.ID,
		"email":   result.User.Email,
	}).Info("User created")

	return ctx.JSON(http.StatusCreated, dto.SignupResponse{
		User: dto.UserPayload{
			ID:        result.User.ID,
			Username:  result.User.Username,
			Email:     result.User.Email,
			CreatedAt: result.User.CreatedAt.Format(time.RFC3339),
		},
		Detail: "User successfully created",
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	pair, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		}
		if errors.Is(err, service.ErrAccountNotConfirmed) {
			logrus.WithField("email", req.Email).Warn("Login failed: account not confirmed")
			return ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "account not confirmed"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, tokenResponse(pair))
}

// Refresh reads the refresh token from the Authorization header, mirroring
// the bearer scheme used for access tokens.
func (c *AuthController) Refresh(ctx echo.Context) error {
	token, ok := middleware.BearerToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing or invalid authorization header"})
	}

	logrus.Info("Refresh token request received")
	pair, err := c.authService.Refresh(ctx.Request().Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshTokenRevoked) {
			logrus.Warn("Refresh failed: token revoked")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid refresh token"})
		}
		if isTokenError(err) {
			logrus.Warn("Refresh failed: token rejected")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid refresh token"})
		}
		logrus.WithError(err).Error("Refresh failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Refresh token rotated")
	return ctx.JSON(http.StatusOK, tokenResponse(pair))
}

func (c *AuthController) ConfirmEmail(ctx echo.Context) error {
	token := ctx.Param("token")
	if token == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token is required"})
	}

	logrus.Info("Email confirmation request received")
	if err := c.authService.ConfirmEmail(ctx.Request().Context(), token); err != nil {
		if errors.Is(err, service.ErrVerificationFailed) {
			logrus.Warn("Email confirmation failed: verification error")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "verification error"})
		}
		logrus.WithError(err).Error("Email confirmation failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Email confirmed")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "email confirmed"})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	user, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		logrus.Warn("Logout failed: missing principal in context")
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	logrus.WithField("user_id", user.ID).Info("Logout request received")
	if err := c.authService.Logout(ctx.Request().Context(), user); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", user.ID).Info("Logout successful")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out successfully"})
}

func tokenResponse(pair *appdto.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
}

func isTokenError(err error) bool {
	return errors.Is(err, service.ErrTokenMalformed) ||
		errors.Is(err, service.ErrTokenSignatureInvalid) ||
		errors.Is(err, service.ErrTokenExpired) ||
		errors.Is(err, service.ErrTokenPurposeMismatch)
}
