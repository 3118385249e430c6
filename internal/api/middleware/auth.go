package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pdftoolpro/tracking-api/internal/core/ports"
)

// UserIDKey is the context key holding the identified user's ID.
const UserIDKey = "user_id"

// Identify reads an optional bearer token and injects the caller's user ID
// into context. Missing, malformed and expired tokens leave the request
// anonymous; it never rejects one.
func Identify(identifier ports.Identifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return next(c)
			}

			if userID, ok := identifier.Identify(strings.TrimSpace(parts[1])); ok {
				c.Set(UserIDKey, userID)
			}

			return next(c)
		}
	}
}
