package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/snapfeed/internal/gateway"
)

const identityKey = "identity"

// BearerAuth checks for a valid session token and stores the identity in the
// request context
func BearerAuth(auth gateway.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			identity, err := auth.VerifyToken(c.Request().Context(), tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// OptionalBearerAuth is BearerAuth for routes that also serve anonymous
// callers. A missing header passes through; a bad token is still rejected.
func OptionalBearerAuth(auth gateway.AuthService) echo.MiddlewareFunc {
	required := BearerAuth(auth)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := required(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			return withAuth(c)
		}
	}
}

// IdentityFrom returns the identity stored by BearerAuth
func IdentityFrom(c echo.Context) (gateway.Identity, bool) {
	identity, ok := c.Get(identityKey).(gateway.Identity)
	return identity, ok
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}
