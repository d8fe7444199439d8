package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/media"
)

// MediaHandler serves files from the media store under /media/*
type MediaHandler struct {
	store  media.Store
	logger *zap.Logger
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(store media.Store, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{store: store, logger: logger.Named("media")}
}

// RegisterMediaRoutes registers the media read route
func (h *MediaHandler) RegisterMediaRoutes(e *echo.Echo) {
	e.GET(media.URIPrefix+"*", h.GetMedia)
}

// GetMedia streams one stored file
func (h *MediaHandler) GetMedia(c echo.Context) error {
	body, item, err := h.store.Open(c.Request().Context(), c.Param("*"))
	switch {
	case errors.Is(err, media.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Media not found")
	case errors.Is(err, media.ErrInvalidPath):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid media path")
	case err != nil:
		h.logger.Error("open media failed", zap.String("path", c.Param("*")), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read media")
	}
	defer body.Close()

	if item.Size > 0 {
		c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(item.Size, 10))
	}
	return c.Stream(http.StatusOK, item.MimeType, body)
}
