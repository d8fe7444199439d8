package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/camera"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/middleware"
	"github.com/anonto42/snapfeed/internal/navigation"
	"github.com/anonto42/snapfeed/internal/screens"
	"github.com/anonto42/snapfeed/internal/session"
)

// maxFrameBytes caps an uploaded preview frame
const maxFrameBytes = 10 << 20

const (
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
)

// SessionHandler serves the screens of a running session to a shell
type SessionHandler struct {
	manager  *session.Manager
	validate *validator.Validate
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(manager *session.Manager, validate *validator.Validate, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		manager:  manager,
		validate: validate,
		logger:   logger.Named("session"),
		upgrader: websocket.Upgrader{
			// shells are native apps, not browser pages
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// RegisterSessionRoutes registers the open route on open and the per-session
// routes on scoped, which must resolve the session first
func (h *SessionHandler) RegisterSessionRoutes(open, scoped *echo.Group) {
	open.POST("/sessions", h.OpenSession)
	open.GET("/routes", h.ListRoutes)

	scoped.DELETE("/sessions", h.CloseSession)
	scoped.GET("/screen", h.GetScreen)
	scoped.GET("/screen/stream", h.StreamScreen)
	scoped.POST("/screen/intents", h.PostIntent)
	scoped.POST("/nav/navigate", h.Navigate)
	scoped.POST("/nav/back", h.Back)
	scoped.PUT("/camera/frames", h.PutFrame)
}

// OpenSession starts a session. A bearer token resumes the user's saved back
// stack; without one the session starts on login.
func (h *SessionHandler) OpenSession(c echo.Context) error {
	var identity *gateway.Identity
	if id, ok := middleware.IdentityFrom(c); ok {
		identity = &id
	}
	s, err := h.manager.Open(c.Request().Context(), identity)
	if err != nil {
		h.logger.Error("open session failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open session")
	}
	c.Response().Header().Set(middleware.HeaderSessionID, s.ID)
	return c.JSON(http.StatusCreated, s.View())
}

// ListRoutes returns the route patterns a shell may navigate to
func (h *SessionHandler) ListRoutes(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"routes": h.manager.Routes()})
}

// CloseSession ends the session
func (h *SessionHandler) CloseSession(c echo.Context) error {
	s := middleware.SessionFrom(c)
	if err := h.manager.Close(s.ID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetScreen renders the current screen
func (h *SessionHandler) GetScreen(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.SessionFrom(c).View())
}

// PostIntent applies a user intent and returns the resulting screen
func (h *SessionHandler) PostIntent(c echo.Context) error {
	var intent components.Intent
	if err := c.Bind(&intent); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return h.dispatch(c, intent)
}

type navigateRequest struct {
	Route   string                `json:"route" validate:"required"`
	Options navigation.NavOptions `json:"options"`
}

// Navigate moves the session to a route
func (h *SessionHandler) Navigate(c echo.Context) error {
	var req navigateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	opts := req.Options
	return h.dispatch(c, components.Intent{Action: components.ActionNavigate, Target: req.Route, Options: &opts})
}

type backRequest struct {
	Route string `json:"route"`
}

// Back pops one screen, or with a route pops until that route is on top
func (h *SessionHandler) Back(c echo.Context) error {
	var req backRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
	}
	s := middleware.SessionFrom(c)
	var popped bool
	var err error
	if req.Route != "" {
		popped, err = s.BackTo(req.Route)
	} else {
		popped, err = s.Back()
	}
	if err != nil {
		return h.sessionError(s, components.ActionBack, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"popped": popped, "view": s.View()})
}

// StreamScreen upgrades to a websocket and sends the current view, then a
// fresh view after every change, until either side closes
func (h *SessionHandler) StreamScreen(c echo.Context) error {
	s := middleware.SessionFrom(c)
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered the request
		h.logger.Debug("stream upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	changes, stop := s.Watch()
	defer stop()

	// the shell sends nothing; reading only notices it going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	send := func() error {
		s.Touch()
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(s.View())
	}
	if err := send(); err != nil {
		return nil
	}
	for {
		select {
		case <-changes:
			if err := send(); err != nil {
				h.logger.Debug("stream write failed", zap.String("session", s.ID), zap.Error(err))
				return nil
			}
		case <-ping.C:
			s.Touch()
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return nil
			}
		case <-s.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(streamWriteWait))
			return nil
		case <-gone:
			return nil
		}
	}
}

// PutFrame stores the shell's latest preview frame for ?lens=back|front
func (h *SessionHandler) PutFrame(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxFrameBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read frame")
	}
	if len(data) > maxFrameBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Frame too large")
	}
	frame, err := middleware.SessionFrom(c).PushFrame(c.QueryParam("lens"), data)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, camera.ErrNotImage) {
			status = http.StatusUnsupportedMediaType
		}
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusAccepted, echo.Map{
		"lens":      frame.Lens,
		"mime_type": frame.MimeType,
		"size":      len(frame.Data),
	})
}

func (h *SessionHandler) dispatch(c echo.Context, intent components.Intent) error {
	s := middleware.SessionFrom(c)
	if err := s.Dispatch(c.Request().Context(), intent); err != nil {
		return h.sessionError(s, intent.Action, err)
	}
	return c.JSON(http.StatusOK, s.View())
}

// sessionError maps a failed session operation to an HTTP error
func (h *SessionHandler) sessionError(s *session.Session, action string, err error) error {
	var invalid validator.ValidationErrors
	switch {
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, navigation.ErrUnknownRoute), errors.Is(err, session.ErrUnknownPermission):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, screens.ErrUnhandledIntent):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Intent not handled by "+s.View().Route)
	case errors.Is(err, binder.ErrUnmounted):
		return echo.NewHTTPError(http.StatusConflict, "Screen changed, fetch it again")
	case errors.Is(err, session.ErrClosed):
		return echo.NewHTTPError(http.StatusGone, "Session closed")
	}
	h.logger.Error("session request failed", zap.String("action", action), zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
