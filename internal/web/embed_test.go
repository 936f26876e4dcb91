package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/file-inspector/backend/internal/models"
)

func render(t *testing.T, page DashboardPage) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, PageDashboard, page, nil))
	return buf.String()
}

func TestRenderer_Prompt(t *testing.T) {
	report := &models.Report{}
	report.Message(models.BlockInfo, "Please upload a file to analyze.")

	html := render(t, DashboardPage{Title: "Dash", Heading: "Heading", Report: report})

	assert.Contains(t, html, "<title> Dash</title>")
	assert.Contains(t, html, `class="message info"`)
	assert.Contains(t, html, "Please upload a file to analyze.")
	assert.NotContains(t, html, "File Details")
}

func TestRenderer_AllBlocks(t *testing.T) {
	controls := models.NewChartControls([]string{"x", "y"})
	controls.Select(models.ChartConfig{X: "x", Y: "y", Kind: models.ChartBar})

	report := &models.Report{
		ID:   "abc",
		File: &models.FileDetails{Name: "a<b>.csv", SizeKB: "1.00", Type: "text/csv"},
		Blocks: []models.Block{
			{Type: models.BlockTable, Title: "File Contents", Table: &models.Table{
				Columns: []models.Column{{Name: "x", Numeric: true}, {Name: "y", Numeric: true}},
				Rows:    [][]string{{"1", "2"}},
			}},
			{Type: models.BlockChartControls, Chart: controls},
			{Type: models.BlockImage, Image: &models.Image{Caption: "p.png", Format: "png", Width: 2, Height: 3}},
			{Type: models.BlockTextArea, Text: "some text", Height: models.TextAreaHeight},
			{Type: models.BlockListing, Text: "Files contained in the ZIP:", Items: []string{"a.txt"}},
			{Type: models.BlockAction, Text: "Extract files", Action: models.ActionExtract},
		},
	}

	html := render(t, DashboardPage{Report: report, ChartURL: "/inspect/abc/chart?kind=bar&x=x&y=y"})

	assert.Contains(t, html, "a&lt;b&gt;.csv")
	assert.Contains(t, html, "<td>1</td>")
	assert.Contains(t, html, `<option value="bar" selected>Bar Chart</option>`)
	assert.Contains(t, html, `/api/inspect/abc/content`)
	assert.Contains(t, html, "height: 300px")
	assert.Contains(t, html, "<li>a.txt</li>")
	assert.Contains(t, html, `action="/inspect/abc/extract"`)
	assert.Contains(t, html, `<iframe class="chart"`)
}

func TestRegisterStaticRoutes(t *testing.T) {
	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	req := httptest.NewRequest(http.MethodGet, "/static/dashboard.css", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".sidebar")
}
