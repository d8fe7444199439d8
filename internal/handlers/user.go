package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/snapfeed/internal/middleware"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/social"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	graph *social.Graph
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(graph *social.Graph) *UserHandler {
	return &UserHandler{graph: graph}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile) // Get own profile
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
}

// GetUser returns another user's profile
func (h *UserHandler) GetUser(c echo.Context) error {
	profile, err := h.graph.Profile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return gatewayError(err)
	}
	return c.JSON(http.StatusOK, profile.WithAvatar(80, "87CEEB"))
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "No user logged in.")
	}
	profile, err := h.graph.Profile(c.Request().Context(), identity.UID)
	if err != nil {
		return gatewayError(err)
	}
	return c.JSON(http.StatusOK, profile.WithAvatar(80, "87CEEB"))
}

// SearchUsers lists users whose username starts with q, leaving out the caller
func (h *UserHandler) SearchUsers(c echo.Context) error {
	identity, _ := middleware.IdentityFrom(c)
	users, err := h.graph.Search(c.Request().Context(), c.QueryParam("q"), identity.UID)
	if err != nil {
		return gatewayError(err)
	}
	if users == nil {
		users = []models.UserProfile{}
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}
