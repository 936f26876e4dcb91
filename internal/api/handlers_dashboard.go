// handlers_dashboard.go - Server-rendered dashboard handlers
package api

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/file-inspector/backend/internal/chart"
	"github.com/file-inspector/backend/internal/config"
	"github.com/file-inspector/backend/internal/models"
	"github.com/file-inspector/backend/internal/parser"
	"github.com/file-inspector/backend/internal/upload"
	"github.com/file-inspector/backend/internal/web"
)

// DashboardHandlerImpl implements the DashboardHandler interface
type DashboardHandlerImpl struct {
	sessions SessionManager
	intake   *upload.Intake
	page     config.DashboardConfig
}

// NewDashboardHandler creates a new dashboard handler instance
func NewDashboardHandler(sessions SessionManager, intake *upload.Intake, page config.DashboardConfig) DashboardHandler {
	return &DashboardHandlerImpl{
		sessions: sessions,
		intake:   intake,
		page:     page,
	}
}

func (h *DashboardHandlerImpl) render(c echo.Context, status int, report *models.Report, chartURL string) error {
	return c.Render(status, web.PageDashboard, web.DashboardPage{
		Title:    h.page.PageTitle,
		Icon:     h.page.PageIcon,
		Heading:  h.page.Heading,
		Report:   report,
		ChartURL: chartURL,
	})
}

// renderError shows an API error inline on the dashboard.
func (h *DashboardHandlerImpl) renderError(c echo.Context, apiErr *APIError) error {
	report := parser.PromptReport()
	report.Message(models.BlockError, apiErr.Message)
	return h.render(c, apiErr.Status, report, "")
}

func chartURL(id string, cfg models.ChartConfig) string {
	q := url.Values{}
	q.Set("x", cfg.X)
	q.Set("y", cfg.Y)
	q.Set("kind", string(cfg.Kind))
	return "/inspect/" + url.PathEscape(id) + "/chart?" + q.Encode()
}

// HandleIndex renders the empty dashboard
func (h *DashboardHandlerImpl) HandleIndex(c echo.Context) error {
	return h.render(c, http.StatusOK, parser.PromptReport(), "")
}

// HandleUpload inspects the uploaded file and redirects to its report
func (h *DashboardHandlerImpl) HandleUpload(c echo.Context) error {
	f, err := readUpload(c, h.intake)
	if err != nil {
		return h.renderError(c, FromDomainError(err, ""))
	}
	if f == nil {
		return h.HandleIndex(c)
	}

	report, err := h.sessions.Create(c.Request().Context(), f)
	if err != nil {
		return h.renderError(c, FromDomainError(err, ""))
	}
	return c.Redirect(http.StatusSeeOther, "/inspect/"+url.PathEscape(report.ID))
}

// HandleView renders a report, applying the chart selection from the query
func (h *DashboardHandlerImpl) HandleView(c echo.Context) error {
	id := c.Param("id")
	report, err := h.sessions.Get(id)
	if err != nil {
		return h.renderError(c, FromDomainError(err, id))
	}

	cfg, ok := chartSelection(c, report)
	if !ok {
		return h.render(c, http.StatusOK, report, "")
	}

	selected, err := h.sessions.Select(id, cfg)
	if err != nil {
		report.Message(models.BlockError, FromDomainError(err, id).Details)
		return h.render(c, http.StatusBadRequest, report, "")
	}
	return h.render(c, http.StatusOK, selected, chartURL(id, cfg))
}

// HandleChartPage renders the chart for the current selection as a standalone page
func (h *DashboardHandlerImpl) HandleChartPage(c echo.Context) error {
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

	var buf bytes.Buffer
	if err := chart.Render(&buf, series); err != nil {
		return NewInternalError("failed to render chart", err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// HandleExtract extracts the session's archive and shows the outcome
func (h *DashboardHandlerImpl) HandleExtract(c echo.Context) error {
	id := c.Param("id")
	report, err := h.sessions.ExtractReport(c.Request().Context(), id)
	if err != nil {
		return h.renderError(c, FromDomainError(err, id))
	}
	return h.render(c, http.StatusOK, report, "")
}
