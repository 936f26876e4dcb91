// routes.go - Route registration helpers
// This file provides a clean way to register all routes
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/file-inspector/backend/internal/config"
	"github.com/file-inspector/backend/internal/logging"
	"github.com/file-inspector/backend/internal/upload"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions  SessionManager
	Intake    *upload.Intake
	Dashboard config.DashboardConfig
	Version   string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Inspect   InspectHandler
	Dashboard DashboardHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	intake := deps.Intake
	if intake == nil {
		intake = upload.NewIntake(0)
	}
	return &Handlers{
		Health:    NewHealthHandler(deps.Version),
		Inspect:   NewInspectHandler(deps.Sessions, intake),
		Dashboard: NewDashboardHandler(deps.Sessions, intake, deps.Dashboard),
	}
}

// RegisterRoutes registers all routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Dashboard pages
	e.GET("/", handlers.Dashboard.HandleIndex)
	e.POST("/inspect", handlers.Dashboard.HandleUpload)
	e.GET("/inspect/:id", handlers.Dashboard.HandleView)
	e.GET("/inspect/:id/chart", handlers.Dashboard.HandleChartPage)
	e.POST("/inspect/:id/extract", handlers.Dashboard.HandleExtract)

	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Inspection routes
	inspectGroup := apiGroup.Group("/inspect")
	inspectGroup.POST("", handlers.Inspect.HandleInspect)
	inspectGroup.GET("/:id", handlers.Inspect.HandleGetReport)
	inspectGroup.GET("/:id/chart", handlers.Inspect.HandleGetChart)
	inspectGroup.POST("/:id/extract", handlers.Inspect.HandleExtract)
	inspectGroup.GET("/:id/content", handlers.Inspect.HandleGetContent)
	inspectGroup.DELETE("/:id", handlers.Inspect.HandleDeleteReport)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.AppConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestID())
	e.Use(requestContext)

	if cfg.Logging.EnableRequestLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || strings.HasPrefix(path, "/static/")
			},
			LogStatus:   true,
			LogURI:      true,
			LogMethod:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				level := slog.LevelInfo
				if v.Error != nil || v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				attrs := []slog.Attr{
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
				}
				if v.Error != nil {
					attrs = append(attrs, slog.String("error", v.Error.Error()))
				}
				slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// requestContext copies the request ID into the request context for logging.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}
