package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/models"
	"github.com/anonto42/snapfeed/internal/social"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth     gateway.AuthService
	graph    *social.Graph
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth gateway.AuthService, graph *social.Graph, validate *validator.Validate, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		graph:    graph,
		validate: validate,
		logger:   logger.Named("auth"),
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/google", h.GoogleSignIn)
}

type authResponse struct {
	Token    string           `json:"token"`
	Identity gateway.Identity `json:"identity"`
}

func respond(c echo.Context, status int, identity gateway.Identity) error {
	return c.JSON(status, authResponse{Token: identity.Token, Identity: identity})
}

// Signup creates a password account and its users/{uid} profile
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	identity, err := h.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return gatewayError(err)
	}

	profile := models.UserProfile{ID: identity.UID, Username: req.Username, Email: identity.Email}
	if err := h.graph.CreateProfile(ctx, profile); err != nil {
		h.logger.Error("profile write after signup failed", zap.String("uid", identity.UID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError,
			"Registration successful, but failed to save user data: "+gateway.Message(err))
	}

	return respond(c, http.StatusCreated, identity)
}

// SignIn handles email and password authentication
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := h.auth.SignInWithPassword(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return gatewayError(err)
	}
	return respond(c, http.StatusOK, identity)
}

// GoogleSignIn exchanges a Google ID token for a session token, creating the
// profile on first sign-in
func (h *AuthHandler) GoogleSignIn(c echo.Context) error {
	var req models.GoogleSignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Google ID Token is null.")
	}

	ctx := c.Request().Context()
	identity, err := h.auth.SignInWithCredential(ctx, req.IDToken)
	if err != nil {
		return gatewayError(err)
	}
	if _, err := h.graph.EnsureProfile(ctx, identity); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError,
			"Google sign-in successful, but failed to save user data: "+gateway.Message(err))
	}
	return respond(c, http.StatusOK, identity)
}
