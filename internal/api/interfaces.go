// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/file-inspector/backend/internal/models"
)

// InspectHandler serves the JSON/msgpack inspection API
type InspectHandler interface {
	HandleInspect(c echo.Context) error
	HandleGetReport(c echo.Context) error
	HandleGetChart(c echo.Context) error
	HandleExtract(c echo.Context) error
	HandleGetContent(c echo.Context) error
	HandleDeleteReport(c echo.Context) error
}

// DashboardHandler serves the server-rendered dashboard
type DashboardHandler interface {
	HandleIndex(c echo.Context) error
	HandleUpload(c echo.Context) error
	HandleView(c echo.Context) error
	HandleChartPage(c echo.Context) error
	HandleExtract(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create(ctx context.Context, f *models.UploadedFile) (*models.Report, error)
	Get(id string) (*models.Report, error)
	Select(id string, cfg models.ChartConfig) (*models.Report, error)
	Chart(ctx context.Context, id string, cfg models.ChartConfig) (*models.ChartSeries, error)
	Extract(ctx context.Context, id string) (*models.ExtractResult, error)
	ExtractReport(ctx context.Context, id string) (*models.Report, error)
	Content(id string) (*models.FileInfo, []byte, error)
	Delete(id string) error
}
