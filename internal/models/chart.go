package models

import "fmt"

// ChartKind is the type of chart drawn from two numeric columns.
type ChartKind string

const (
	ChartScatter ChartKind = "scatter"
	ChartLine    ChartKind = "line"
	ChartBar     ChartKind = "bar"
)

// ChartKinds lists the supported chart kinds in display order.
var ChartKinds = []ChartKind{ChartScatter, ChartLine, ChartBar}

// Valid reports whether k is one of ChartKinds.
func (k ChartKind) Valid() bool {
	for _, known := range ChartKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Title returns the chart heading for k.
func (k ChartKind) Title() string {
	switch k {
	case ChartLine:
		return "Line Chart"
	case ChartBar:
		return "Bar Chart"
	default:
		return "Scatter Chart"
	}
}

// ChartConfig is the user's current chart selection.
type ChartConfig struct {
	X    string    `json:"x"`
	Y    string    `json:"y"`
	Kind ChartKind `json:"kind"`
}

// Validate checks the selection against the numeric columns of t.
func (c ChartConfig) Validate(t *Table) error {
	if !c.Kind.Valid() {
		return fmt.Errorf("unsupported chart kind: %q", c.Kind)
	}
	for _, name := range []string{c.X, c.Y} {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return fmt.Errorf("unknown column: %q", name)
		}
		if !t.Columns[idx].Numeric {
			return fmt.Errorf("column is not numeric: %q", name)
		}
	}
	return nil
}

// ChartControls describes the selection widgets offered for a table.
type ChartControls struct {
	Columns []string    `json:"columns"`
	X       string      `json:"x"`
	Y       string      `json:"y"`
	Kind    ChartKind   `json:"kind"`
	Kinds   []ChartKind `json:"kinds"`
}

// NewChartControls returns controls for the given numeric columns. Both axes
// start on the first column and the kind starts on scatter.
func NewChartControls(columns []string) *ChartControls {
	return &ChartControls{
		Columns: columns,
		X:       columns[0],
		Y:       columns[0],
		Kind:    ChartScatter,
		Kinds:   ChartKinds,
	}
}

// Config returns the currently selected configuration.
func (c *ChartControls) Config() ChartConfig {
	return ChartConfig{X: c.X, Y: c.Y, Kind: c.Kind}
}

// Select applies cfg to the controls.
func (c *ChartControls) Select(cfg ChartConfig) {
	c.X = cfg.X
	c.Y = cfg.Y
	c.Kind = cfg.Kind
}

// Point is one (x, y) pair of a chart series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChartSeries is the data behind a rendered chart.
type ChartSeries struct {
	X      string    `json:"x"`
	Y      string    `json:"y"`
	Kind   ChartKind `json:"kind"`
	Title  string    `json:"title"`
	Points []Point   `json:"points"`
}
