package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/file-inspector/backend/internal/models"
)

const docxDocumentPart = "word/document.xml"

// DocxParser extracts paragraph text from Word (.docx) documents.
type DocxParser struct{}

func NewDocxParser() *DocxParser {
	return &DocxParser{}
}

func (p *DocxParser) Name() string {
	return "docx"
}

func (p *DocxParser) Kind() Kind {
	return KindDocx
}

func (p *DocxParser) Parse(ctx context.Context, f *models.UploadedFile) (*Result, error) {
	paragraphs, err := ExtractDocxParagraphs(f.Content)
	if err != nil {
		return nil, err
	}
	return &Result{
		Blocks: []models.Block{{
			Type:   models.BlockTextArea,
			Title:  "Word File Contents",
			Text:   strings.Join(paragraphs, "\n"),
			Height: models.TextAreaHeight,
		}},
	}, nil
}

// ExtractDocxParagraphs returns the text of each top-level body paragraph in
// document order. Paragraphs inside tables and text boxes are not included.
func ExtractDocxParagraphs(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx package: %w", err)
	}

	for _, file := range zr.File {
		if file.Name != docxDocumentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", docxDocumentPart, err)
		}
		defer rc.Close()
		return readParagraphs(rc)
	}
	return nil, fmt.Errorf("docx package has no %s", docxDocumentPart)
}

func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		stack      []string
		current    strings.Builder
		inPara     bool
		paraDepth  int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", docxDocumentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if name == "p" && !inPara && len(stack) > 0 && stack[len(stack)-1] == "body" {
				inPara = true
				paraDepth = len(stack)
				current.Reset()
			} else if inPara && stack[len(stack)-1] == "r" {
				switch name {
				case "t":
					inText = true
				case "tab":
					current.WriteByte('\t')
				case "br", "cr":
					current.WriteByte('\n')
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch {
			case inPara && len(stack) == paraDepth && t.Name.Local == "p":
				paragraphs = append(paragraphs, current.String())
				inPara = false
			case t.Name.Local == "t":
				inText = false
			}
		case xml.CharData:
			if inPara && inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
