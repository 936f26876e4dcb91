// fixtures.go - Builders for upload fixtures of every supported kind
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ZipEntry is one file of a fixture archive. Names ending in "/" are directories.
type ZipEntry struct {
	Name string
	Body string
}

// Zip builds a ZIP archive with the given entries in order.
func Zip(tb testing.TB, entries ...ZipEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		require.NoError(tb, err)
		if !strings.HasSuffix(e.Name, "/") {
			_, err = w.Write([]byte(e.Body))
			require.NoError(tb, err)
		}
	}
	require.NoError(tb, zw.Close())
	return buf.Bytes()
}

// XLSX builds a single-sheet workbook; the first row is usually the header.
func XLSX(tb testing.TB, rows ...[]interface{}) []byte {
	tb.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(tb, err)
		r := row
		require.NoError(tb, f.SetSheetRow(sheet, cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(tb, err)
	return buf.Bytes()
}

const docxNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// Docx builds a minimal Word document with one body paragraph per argument.
func Docx(tb testing.TB, paragraphs ...string) []byte {
	tb.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>`)
		if p != "" {
			body.WriteString(`<w:r><w:t xml:space="preserve">`)
			body.WriteString(xmlEscape(p))
			body.WriteString(`</w:t></w:r>`)
		}
		body.WriteString(`</w:p>`)
	}
	return DocxXML(tb, body.String())
}

// DocxXML builds a Word document whose w:body holds the given raw XML.
func DocxXML(tb testing.TB, bodyXML string) []byte {
	tb.Helper()

	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="%s"><w:body>%s<w:sectPr/></w:body></w:document>`, docxNamespace, bodyXML)

	return Zip(tb,
		ZipEntry{Name: "[Content_Types].xml", Body: `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		ZipEntry{Name: "word/document.xml", Body: doc},
	)
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// NotebookCell is a fixture notebook cell.
type NotebookCell struct {
	Type   string
	Source string
}

// Notebook builds an nbformat 4 notebook. Sources are stored as line lists.
func Notebook(tb testing.TB, cells ...NotebookCell) []byte {
	tb.Helper()

	out := make([]map[string]interface{}, 0, len(cells))
	for _, c := range cells {
		cell := map[string]interface{}{
			"cell_type": c.Type,
			"metadata":  map[string]interface{}{},
			"source":    splitLines(c.Source),
		}
		if c.Type == "code" {
			cell["outputs"] = []interface{}{}
			cell["execution_count"] = nil
		}
		out = append(out, cell)
	}

	data, err := json.Marshal(map[string]interface{}{
		"nbformat":       4,
		"nbformat_minor": 5,
		"metadata":       map[string]interface{}{},
		"cells":          out,
	})
	require.NoError(tb, err)
	return data
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// PNG builds a solid-colour PNG of the given size.
func PNG(tb testing.TB, width, height int) []byte {
	tb.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(tb, png.Encode(&buf, img))
	return buf.Bytes()
}

// PDF builds an uncompressed PDF with one page per argument. Page text must
// not contain parentheses or backslashes.
func PDF(tb testing.TB, pages ...string) []byte {
	tb.Helper()

	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}
