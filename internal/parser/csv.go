package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"unicode/utf8"

	"github.com/file-inspector/backend/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVParser handles comma-separated text and any declared text/* upload.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Name() string {
	return "csv"
}

func (p *CSVParser) Kind() Kind {
	return KindCSV
}

func (p *CSVParser) Parse(ctx context.Context, f *models.UploadedFile) (*Result, error) {
	table, err := ParseDelimited(f.Content)
	if err != nil {
		return nil, err
	}
	return &Result{
		Blocks: []models.Block{{
			Type:  models.BlockTable,
			Title: "File Contents (Text or CSV)",
			Table: table,
		}},
	}, nil
}

// ParseDelimited parses comma-separated text whose first record is the header.
// Rows shorter than the header are padded with empty cells.
func ParseDelimited(data []byte) (*models.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, newParseError(KindCSV, "content is not valid UTF-8 text")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Kind: KindCSV, Err: err}
	}
	if len(records) == 0 {
		return nil, newParseError(KindCSV, "no columns to parse from file")
	}

	return buildTable(KindCSV, records, true)
}
