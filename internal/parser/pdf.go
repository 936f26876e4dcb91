package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/file-inspector/backend/internal/models"
	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the text layer of PDF documents.
type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Name() string {
	return "pdf"
}

func (p *PDFParser) Kind() Kind {
	return KindPDF
}

func (p *PDFParser) Parse(ctx context.Context, f *models.UploadedFile) (*Result, error) {
	text, err := ExtractPDFText(f.Content)
	if err != nil {
		return nil, err
	}
	return &Result{
		Blocks: []models.Block{{
			Type:   models.BlockTextArea,
			Title:  "PDF File Contents",
			Text:   text,
			Height: models.TextAreaHeight,
		}},
	}, nil
}

// ExtractPDFText returns the text of every page in order, concatenated
// without a separator.
func ExtractPDFText(data []byte) (text string, err error) {
	// The pdf library panics on malformed documents.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	return joinPages(reader.NumPage(), func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
}

// joinPages concatenates the text of pages 1..n.
func joinPages(n int, pageText func(i int) (string, error)) (string, error) {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		s, err := pageText(i)
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", i, err)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
