// Package upload turns incoming files into models.UploadedFile values.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/file-inspector/backend/internal/models"
)

// DefaultMaxSize bounds a single upload.
const DefaultMaxSize int64 = 200 << 20

// ErrTooLarge is returned when an upload exceeds the size limit.
var ErrTooLarge = errors.New("file exceeds the upload size limit")

// extensionTypes covers the types browsers commonly declare that are not in
// every system MIME table.
var extensionTypes = map[string]string{
	".csv":   "text/csv",
	".txt":   "text/plain",
	".xls":   "application/vnd.ms-excel",
	".xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ipynb": "application/x-ipynb+json",
	".zip":   "application/zip",
	".pdf":   "application/pdf",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".bmp":   "image/bmp",
	".webp":  "image/webp",
	".tif":   "image/tiff",
	".tiff":  "image/tiff",
}

// TypeByName returns the MIME type a browser would declare for name, without
// parameters. Unknown extensions yield "application/octet-stream".
func TypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return stripParams(t)
	}
	return "application/octet-stream"
}

func stripParams(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.TrimSpace(mimeType)
}

// Intake reads uploads up to a size limit.
type Intake struct {
	maxSize int64
}

// NewIntake creates an intake. A non-positive maxSize uses DefaultMaxSize.
func NewIntake(maxSize int64) *Intake {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Intake{maxSize: maxSize}
}

// FromMultipart reads a form file. The declared type is the part's
// Content-Type unless override is set; it is never sniffed from content.
func (in *Intake) FromMultipart(fh *multipart.FileHeader, override string) (*models.UploadedFile, error) {
	if fh.Size > in.maxSize {
		return nil, ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening uploaded file: %w", err)
	}
	defer src.Close()

	data, err := in.read(src)
	if err != nil {
		return nil, err
	}

	mimeType := override
	if mimeType == "" {
		mimeType = stripParams(fh.Header.Get("Content-Type"))
	}
	if mimeType == "" {
		mimeType = TypeByName(fh.Filename)
	}

	return models.NewUploadedFile(filepath.Base(fh.Filename), mimeType, data), nil
}

// FromPath reads a local file. Without override the declared type is
// derived from the file extension.
func (in *Intake) FromPath(path, override string) (*models.UploadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := in.read(f)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	mimeType := override
	if mimeType == "" {
		mimeType = TypeByName(name)
	}
	return models.NewUploadedFile(name, mimeType, data), nil
}

func (in *Intake) read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, in.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file: %w", err)
	}
	if int64(len(data)) > in.maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
