// Package chart renders chart series as standalone ECharts pages.
package chart

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/file-inspector/backend/internal/models"
)

const (
	pageWidth  = "100%"
	pageHeight = "420px"
)

// renderer is implemented by every go-echarts chart type.
type renderer interface {
	Render(w io.Writer) error
}

// NewSeries builds the series for cfg from points.
func NewSeries(cfg models.ChartConfig, points []models.Point) *models.ChartSeries {
	if points == nil {
		points = []models.Point{}
	}
	return &models.ChartSeries{
		X:      cfg.X,
		Y:      cfg.Y,
		Kind:   cfg.Kind,
		Title:  cfg.Kind.Title(),
		Points: points,
	}
}

// Render writes an HTML page holding the chart for s.
func Render(w io.Writer, s *models.ChartSeries) error {
	c, err := build(s)
	if err != nil {
		return err
	}
	return c.Render(w)
}

func build(s *models.ChartSeries) (renderer, error) {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: s.Title,
			Width:     pageWidth,
			Height:    pageHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: s.Title}),
		charts.WithYAxisOpts(opts.YAxis{Name: s.Y, Type: "value"}),
	}

	switch s.Kind {
	case models.ChartScatter:
		c := charts.NewScatter()
		c.SetGlobalOptions(append(global,
			charts.WithXAxisOpts(opts.XAxis{Name: s.X, Type: "value"}))...)
		c.AddSeries(s.Y, scatterData(s.Points))
		return c, nil

	case models.ChartLine:
		c := charts.NewLine()
		c.SetGlobalOptions(append(global,
			charts.WithXAxisOpts(opts.XAxis{Name: s.X, Type: "category"}))...)
		c.SetXAxis(Categories(s.Points))
		c.AddSeries(s.Y, lineData(s.Points))
		return c, nil

	case models.ChartBar:
		c := charts.NewBar()
		c.SetGlobalOptions(append(global,
			charts.WithXAxisOpts(opts.XAxis{Name: s.X, Type: "category"}))...)
		c.SetXAxis(Categories(s.Points))
		c.AddSeries(s.Y, barData(s.Points))
		return c, nil
	}
	return nil, fmt.Errorf("unsupported chart kind: %q", s.Kind)
}

// Categories formats the x values of points as axis labels.
func Categories(points []models.Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = strconv.FormatFloat(p.X, 'g', -1, 64)
	}
	return out
}

func scatterData(points []models.Point) []opts.ScatterData {
	out := make([]opts.ScatterData, len(points))
	for i, p := range points {
		out[i] = opts.ScatterData{Value: []float64{p.X, p.Y}}
	}
	return out
}

func lineData(points []models.Point) []opts.LineData {
	out := make([]opts.LineData, len(points))
	for i, p := range points {
		out[i] = opts.LineData{Value: p.Y}
	}
	return out
}

func barData(points []models.Point) []opts.BarData {
	out := make([]opts.BarData, len(points))
	for i, p := range points {
		out[i] = opts.BarData{Value: p.Y}
	}
	return out
}
