package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/pdftoolpro/tracking-api/docs"
	"github.com/pdftoolpro/tracking-api/internal/api/handler"
	"github.com/pdftoolpro/tracking-api/internal/api/middleware"
	"github.com/pdftoolpro/tracking-api/internal/core/ports"
	"github.com/pdftoolpro/tracking-api/internal/infrastructure/http/handlers"
)

// Dependencies are the collaborators NewRouter wires into routes.
type Dependencies struct {
	Auth       ports.AuthService
	Identifier ports.Identifier
	Tracking   ports.TrackingService

	// Readiness lists the dependencies pinged by /health/ready.
	Readiness []handlers.Dependency

	Log         zerolog.Logger
	CORSOrigins []string

	// StaticDir serves a single page frontend when non-empty.
	StaticDir string

	// Metrics are skipped when Registerer is nil.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: corsOrigins(deps.CORSOrigins),
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			handler.HeaderIdempotencyKey,
		},
	}))

	if deps.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "pdftools",
			Subsystem:  "http",
			Registerer: deps.Registerer,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: deps.Gatherer,
		}))
	}

	// --- API routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	trackingHandler := handler.NewTrackingHandler(deps.Tracking)

	g := e.Group("/api")
	g.POST("/register", authHandler.Register)
	g.POST("/login", authHandler.Login)
	g.POST("/visit", trackingHandler.RecordVisit)
	g.POST("/tool-usage", trackingHandler.RecordToolUsage, middleware.Identify(deps.Identifier))
	g.GET("/tool-usage/stats", trackingHandler.Stats)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Readiness...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if deps.StaticDir != "" {
		e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
			Root:    deps.StaticDir,
			Index:   "index.html",
			HTML5:   true,
			Skipper: isBackendPath,
		}))
	}

	return e
}

// isBackendPath keeps the SPA fallback away from API and operational routes.
func isBackendPath(c echo.Context) bool {
	p := c.Request().URL.Path
	for _, prefix := range []string{"/api", "/health", "/metrics", "/swagger"} {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return c.Request().Method != http.MethodGet && c.Request().Method != http.MethodHead
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
