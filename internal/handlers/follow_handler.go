package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/middleware"
	"github.com/anonto42/snapfeed/internal/social"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	graph  *social.Graph
	logger *zap.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *social.Graph, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{graph: graph, logger: logger.Named("follow")}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to add friends.")
	}
	targetID := c.Param("id")
	if targetID == identity.UID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	ctx := c.Request().Context()
	target, err := h.graph.Profile(ctx, targetID)
	if err != nil {
		return gatewayError(err)
	}

	// Check if already following
	me, err := h.graph.Profile(ctx, identity.UID)
	if err != nil {
		return gatewayError(err)
	}
	if me.IsFollowing(targetID) {
		return echo.NewHTTPError(http.StatusConflict, "You are already following "+target.Username+".")
	}

	if err := h.graph.Follow(ctx, identity.UID, targetID); err != nil {
		return h.edgeError(err, "Failed to add "+target.Username+": ")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "You are now following " + target.Username + "!"})
}

// UnfollowUser removes the follow edge to a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if err := h.graph.Unfollow(c.Request().Context(), identity.UID, c.Param("id")); err != nil {
		return h.edgeError(err, "Failed to unfollow: ")
	}
	return c.NoContent(http.StatusNoContent)
}

// edgeError reports a failed edge write. A half-written edge is logged with
// the side that failed; it is not rolled back.
func (h *FollowHandler) edgeError(err error, prefix string) error {
	var partial *social.PartialFollowError
	if errors.As(err, &partial) {
		h.logger.Warn("follow edge left asymmetric",
			zap.String("actor", partial.Actor),
			zap.String("target", partial.Target),
			zap.String("failed", string(partial.Failed)),
			zap.Error(partial.Err))
	}
	httpErr := gatewayError(err)
	httpErr.Message = prefix + gateway.Message(err)
	return httpErr
}
