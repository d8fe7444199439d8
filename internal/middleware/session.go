package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/snapfeed/internal/session"
)

// HeaderSessionID names the header carrying a session id
const HeaderSessionID = "X-Session-ID"

const sessionKey = "session"

// RequireSession resolves the X-Session-ID header to a live session and
// marks it as used
func RequireSession(manager *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderSessionID)
			if id == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "Missing "+HeaderSessionID+" header")
			}
			s, err := manager.Get(id)
			if err != nil {
				return echo.NewHTTPError(http.StatusNotFound, "Session not found")
			}
			s.Touch()
			c.Set(sessionKey, s)
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by RequireSession
func SessionFrom(c echo.Context) *session.Session {
	s, _ := c.Get(sessionKey).(*session.Session)
	return s
}
