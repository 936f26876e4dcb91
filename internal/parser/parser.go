package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/file-inspector/backend/internal/models"
)

// Parser turns one kind of upload into report blocks.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// Kind returns the file kind this parser handles.
	Kind() Kind
	// Parse decodes the upload. Errors are rendered by the caller.
	Parse(ctx context.Context, f *models.UploadedFile) (*Result, error)
}

// Result is what a parser hands back for rendering.
type Result struct {
	Blocks []models.Block
	// Table is set when the blocks offer chart controls over it.
	Table   *models.Table
	Listing *models.ZipListing
}

// ErrInvalidArchive is returned when an upload named as a ZIP archive is not one.
var ErrInvalidArchive = errors.New("not a valid ZIP archive")

// ParseError reports malformed content for a specific file kind.
type ParseError struct {
	Kind Kind
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s content: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(kind Kind, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// naValues are cell values treated as missing when inferring column types.
var naValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-NaN":     {},
	"-nan":     {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a cell value counts as missing.
func IsMissing(raw string) bool {
	_, ok := naValues[strings.TrimSpace(raw)]
	return ok
}

// ParseNumber parses a cell as a float. Missing values report ok=false.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if IsMissing(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// markNumeric flags every column whose non-missing cells all parse as
// numbers. A column with no values at all is not numeric.
func markNumeric(t *models.Table) {
	for col := range t.Columns {
		seen := 0
		numeric := true
		for _, row := range t.Rows {
			raw := row[col]
			if IsMissing(raw) {
				continue
			}
			seen++
			if _, ok := ParseNumber(raw); !ok {
				numeric = false
				break
			}
		}
		t.Columns[col].Numeric = numeric && seen > 0
	}
}

// buildTable turns raw records into a table. The first record is the header.
// With strict set, a data row longer than the header is an error; otherwise
// the table widens and the extra header cells are unnamed.
func buildTable(kind Kind, records [][]string, strict bool) (*models.Table, error) {
	if len(records) == 0 {
		return &models.Table{Columns: []models.Column{}, Rows: [][]string{}}, nil
	}

	header := records[0]
	width := len(header)
	for i, row := range records[1:] {
		if len(row) <= width {
			continue
		}
		if strict {
			return nil, newParseError(kind, "expected %d fields in line %d, saw %d", width, i+2, len(row))
		}
		width = len(row)
	}

	names := make([]string, width)
	copy(names, header)
	names = headerNames(names)

	t := &models.Table{
		Columns: make([]models.Column, width),
		Rows:    make([][]string, 0, len(records)-1),
	}
	for i, name := range names {
		t.Columns[i] = models.Column{Name: name}
	}
	for _, rec := range records[1:] {
		row := make([]string, width)
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}

	markNumeric(t)
	return t, nil
}

// headerNames fills empty names with "Unnamed: <index>" and suffixes
// duplicates with ".1", ".2" and so on.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	used := make(map[string]int, len(raw))
	for i, name := range raw {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for {
			if _, dup := used[name]; !dup {
				break
			}
			used[base]++
			name = fmt.Sprintf("%s.%d", base, used[base])
		}
		used[name] = 0
		names[i] = name
	}
	return names
}
