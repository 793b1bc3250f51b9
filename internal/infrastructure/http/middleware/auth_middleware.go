package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/domain/repositories"
	"github.com/meetingminutes/backend/pkg/jwt"
)

const (
	// UserContextKey is the echo context key for the authenticated user
	UserContextKey = "user"
	// UserIDContextKey is the echo context key for the user's ID
	UserIDContextKey = "user_id"
)

// EchoAuth returns an Echo middleware that validates the JWT from the
// Authorization header or access_token cookie and sets "user_id"
// (uuid.UUID) and "user" (*entities.User) into the Echo context.
func EchoAuth(jwtManager *jwt.Manager, userRepo repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ""
			if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}
			if token == "" {
				if cookie, err := c.Cookie("access_token"); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := jwtManager.ValidateAccessToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			user, err := userRepo.FindByID(c.Request().Context(), claims.UserID)
			if err != nil || user == nil || !user.IsActive {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(UserIDContextKey, user.ID)
			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// UserFromContext retrieves the authenticated user from the Echo context
func UserFromContext(c echo.Context) (*entities.User, bool) {
	user, ok := c.Get(UserContextKey).(*entities.User)
	return user, ok
}
