package parser

import "strings"

// Kind is the closed set of file kinds the inspector can preview.
type Kind string

const (
	KindCSV      Kind = "csv"
	KindExcel    Kind = "excel"
	KindImage    Kind = "image"
	KindPDF      Kind = "pdf"
	KindDocx     Kind = "docx"
	KindNotebook Kind = "notebook"
	KindZIP      Kind = "zip"
	KindUnknown  Kind = "unknown"
)

// Declared MIME types recognised by Classify.
const (
	MIMEExcelLegacy  = "application/vnd.ms-excel"
	MIMEExcelOpenXML = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPDF          = "application/pdf"
)

// Classify maps an upload's name and declared MIME type to a Kind. Rules are
// checked in order and the first match wins. Suffixes are case sensitive.
func Classify(name, mimeType string) Kind {
	switch {
	case strings.HasPrefix(mimeType, "text") || strings.HasSuffix(name, ".csv"):
		return KindCSV
	case mimeType == MIMEExcelLegacy || mimeType == MIMEExcelOpenXML:
		return KindExcel
	case strings.HasPrefix(mimeType, "image"):
		return KindImage
	case mimeType == MIMEPDF:
		return KindPDF
	case strings.HasSuffix(name, ".docx"):
		return KindDocx
	case strings.HasSuffix(name, ".ipynb"):
		return KindNotebook
	case strings.HasSuffix(name, ".zip"):
		return KindZIP
	default:
		return KindUnknown
	}
}
