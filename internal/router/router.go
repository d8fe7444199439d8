package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/gateway"
	"github.com/anonto42/snapfeed/internal/handlers"
	"github.com/anonto42/snapfeed/internal/media"
	"github.com/anonto42/snapfeed/internal/middleware"
	"github.com/anonto42/snapfeed/internal/session"
	"github.com/anonto42/snapfeed/internal/social"
)

// Deps are the services routes are built on
type Deps struct {
	Auth     gateway.AuthService
	Graph    *social.Graph
	Media    media.Store
	Sessions *session.Manager
	Validate *validator.Validate
	Logger   *zap.Logger
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		ExposeHeaders: []string{middleware.HeaderSessionID},
	}))
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	logger.Debug("global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "snapfeed"})
	})

	// Captured photos
	mediaHandler := handlers.NewMediaHandler(d.Media, d.Logger)
	mediaHandler.RegisterMediaRoutes(e)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(d.Auth, d.Graph, d.Validate, d.Logger)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Sessions: opened with an optional token, then addressed by id ---
	open := e.Group("/api/v1", middleware.OptionalBearerAuth(d.Auth))
	scoped := e.Group("/api/v1", middleware.RequireSession(d.Sessions))
	sessionHandler := handlers.NewSessionHandler(d.Sessions, d.Validate, d.Logger)
	sessionHandler.RegisterSessionRoutes(open, scoped)

	// --- Protected routes (require a session token) ---
	api := e.Group("/api/v1", middleware.BearerAuth(d.Auth))

	userHandler := handlers.NewUserHandler(d.Graph)
	userHandler.RegisterProfileRoutes(api)

	followHandler := handlers.NewFollowHandler(d.Graph, d.Logger)
	followHandler.RegisterFollowRoutes(api)

	d.Logger.Info("all routes configured", zap.Int("routes", len(e.Routes())))
}
