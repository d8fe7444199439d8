package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/models"
)

// gatewayError maps a gateway failure onto an HTTP error carrying the
// user-facing message
func gatewayError(err error) *echo.HTTPError {
	var decodeErr *models.DecodeError
	if errors.As(err, &decodeErr) {
		return echo.NewHTTPError(http.StatusInternalServerError, decodeErr.Error())
	}

	status := http.StatusInternalServerError
	switch gateway.KindOf(err) {
	case gateway.KindNotFound:
		status = http.StatusNotFound
	case gateway.KindUnauthenticated:
		status = http.StatusUnauthorized
	case gateway.KindPermissionDenied:
		status = http.StatusForbidden
	case gateway.KindInvalidArgument:
		status = http.StatusBadRequest
	case gateway.KindConflict:
		status = http.StatusConflict
	case gateway.KindNetwork:
		status = http.StatusBadGateway
	}
	return echo.NewHTTPError(status, gateway.Message(err))
}
