package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/file-inspector/backend/internal/models"
)

// NotebookParser extracts code cell sources from Jupyter notebooks.
type NotebookParser struct{}

func NewNotebookParser() *NotebookParser {
	return &NotebookParser{}
}

func (p *NotebookParser) Name() string {
	return "notebook"
}

func (p *NotebookParser) Kind() Kind {
	return KindNotebook
}

func (p *NotebookParser) Parse(ctx context.Context, f *models.UploadedFile) (*Result, error) {
	sources, err := ExtractNotebookCode(f.Content)
	if err != nil {
		return nil, err
	}
	return &Result{
		Blocks: []models.Block{{
			Type:   models.BlockTextArea,
			Title:  "Jupyter Notebook File Contents",
			Text:   strings.Join(sources, "\n"),
			Height: models.TextAreaHeight,
		}},
	}, nil
}

// multilineString is a notebook text field, stored either as one string or
// as a list of lines.
type multilineString string

func (m *multilineString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = multilineString(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(b, &lines); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*m = multilineString(strings.Join(lines, ""))
	return nil
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   multilineString `json:"source"`
	Input    multilineString `json:"input"` // v3 code cells
}

type notebookDocument struct {
	NBFormat   *int           `json:"nbformat"`
	Cells      []notebookCell `json:"cells"`
	Worksheets []struct {
		Cells []notebookCell `json:"cells"`
	} `json:"worksheets"`
}

// ExtractNotebookCode returns the source of every code cell in order. Version
// 3 notebooks are read through their worksheets, the way they upgrade to
// version 4.
func ExtractNotebookCode(data []byte) ([]string, error) {
	var doc notebookDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("notebook does not appear to be JSON: %w", err)
	}
	if doc.NBFormat == nil {
		return nil, fmt.Errorf("notebook has no nbformat version")
	}

	var cells []notebookCell
	switch *doc.NBFormat {
	case 4:
		cells = doc.Cells
	case 3:
		for _, ws := range doc.Worksheets {
			for _, c := range ws.Cells {
				if c.CellType == "code" {
					c.Source = c.Input
				}
				cells = append(cells, c)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported nbformat version: %d", *doc.NBFormat)
	}

	sources := make([]string, 0, len(cells))
	for _, c := range cells {
		if c.CellType == "code" {
			sources = append(sources, string(c.Source))
		}
	}
	return sources, nil
}
