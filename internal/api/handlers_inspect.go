// handlers_inspect.go - Inspection API handlers
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/file-inspector/backend/internal/models"
	"github.com/file-inspector/backend/internal/parser"
	"github.com/file-inspector/backend/internal/upload"
)

// InspectHandlerImpl implements the InspectHandler interface
type InspectHandlerImpl struct {
	sessions SessionManager
	intake   *upload.Intake
}

// NewInspectHandler creates a new inspection handler instance
func NewInspectHandler(sessions SessionManager, intake *upload.Intake) InspectHandler {
	return &InspectHandlerImpl{
		sessions: sessions,
		intake:   intake,
	}
}

// readUpload returns the uploaded file, or nil when the request carries none.
func readUpload(c echo.Context, intake *upload.Intake) (*models.UploadedFile, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, NewBadRequestError("invalid multipart form", err)
	}

	f, err := intake.FromMultipart(fh, c.FormValue("type"))
	if err != nil {
		return nil, FromDomainError(err, "")
	}
	return f, nil
}

// chartSelection merges the chart query parameters into the current controls
// of report. It reports false when the report offers no charts.
func chartSelection(c echo.Context, report *models.Report) (models.ChartConfig, bool) {
	b, ok := report.Find(models.BlockChartControls)
	if !ok || b.Chart == nil {
		return models.ChartConfig{}, false
	}

	cfg := b.Chart.Config()
	if x := c.QueryParam("x"); x != "" {
		cfg.X = x
	}
	if y := c.QueryParam("y"); y != "" {
		cfg.Y = y
	}
	if kind := c.QueryParam("kind"); kind != "" {
		cfg.Kind = models.ChartKind(kind)
	}
	return cfg, true
}

// HandleInspect accepts a multipart upload and returns its report
func (h *InspectHandlerImpl) HandleInspect(c echo.Context) error {
	f, err := readUpload(c, h.intake)
	if err != nil {
		return err
	}
	if f == nil {
		return respondOK(c, parser.PromptReport())
	}

	report, err := h.sessions.Create(c.Request().Context(), f)
	if err != nil {
		return FromDomainError(err, "")
	}
	return respond(c, http.StatusCreated, report)
}

// HandleGetReport returns the report of a session
func (h *InspectHandlerImpl) HandleGetReport(c echo.Context) error {
	id := c.Param("id")
	report, err := h.sessions.Get(id)
	if err != nil {
		return FromDomainError(err, id)
	}
	return respondOK(c, report)
}

// HandleGetChart returns the chart series for the x, y and kind query parameters
func (h *InspectHandlerImpl) HandleGetChart(c echo.Context) error {
	id := c.Param("id")
	report, err := h.sessions.Get(id)
	if err != nil {
		return FromDomainError(err, id)
	}

	cfg, ok := chartSelection(c, report)
	if !ok {
		return NewBadRequestError("charts are not available for this upload", nil)
	}

	series, err := h.sessions.Chart(c.Request().Context(), id, cfg)
	if err != nil {
		return FromDomainError(err, id)
	}
	return respondOK(c, series)
}

// HandleExtract extracts a ZIP upload into the extraction directory
func (h *InspectHandlerImpl) HandleExtract(c echo.Context) error {
	id := c.Param("id")
	res, err := h.sessions.Extract(c.Request().Context(), id)
	if err != nil {
		return FromDomainError(err, id)
	}
	return respondOK(c, res)
}

// HandleGetContent returns the raw upload with its declared type
func (h *InspectHandlerImpl) HandleGetContent(c echo.Context) error {
	id := c.Param("id")
	info, data, err := h.sessions.Content(id)
	if err != nil {
		return FromDomainError(err, id)
	}

	contentType := info.Type
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Blob(http.StatusOK, contentType, data)
}

// HandleDeleteReport drops a session and its stored upload
func (h *InspectHandlerImpl) HandleDeleteReport(c echo.Context) error {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		return FromDomainError(err, id)
	}
	slog.InfoContext(c.Request().Context(), "session deleted", "session", id)
	return c.NoContent(http.StatusNoContent)
}
