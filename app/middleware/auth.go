package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// principalResolver is the slice of AuthGuard this middleware needs.
type principalResolver interface {
	Resolve(ctx context.Context, bearerToken string) (*entity.User, error)
}

type AuthMiddleware struct {
	guard principalResolver
}

func NewAuthMiddleware(guard principalResolver) *AuthMiddleware {
	return &AuthMiddleware{guard: guard}
}

// RequireAuth resolves the bearer access token into the request principal
// and stores it under the "user" context key. Credential failures render
// 401; a failing store renders 500.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := BearerToken(c)
		if !ok {
			logrus.Debug("Missing or malformed authorization header")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "missing or invalid authorization header",
			})
		}

		user, err := m.guard.Resolve(c.Request().Context(), token)
		if err != nil {
			// a store outage is not a credential problem and must not
			// masquerade as one
			if !errors.Is(err, service.ErrUnauthorized) {
				logrus.WithError(err).Error("Failed to resolve principal")
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}
			logrus.Debug("Could not resolve principal from access token")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid or expired token",
			})
		}

		c.Set("user", user)

		return next(c)
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	return parts[1], true
}

// PrincipalFromContext returns the user stored by RequireAuth.
func PrincipalFromContext(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get("user").(*entity.User)
	return user, ok
}
