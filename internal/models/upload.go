package models

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// UploadedFile is a single file received from the client. Type is whatever the
// client declared; it is never verified against the content.
type UploadedFile struct {
	Name    string
	Size    int64
	Type    string
	Content []byte
}

// NewUploadedFile builds an UploadedFile whose size is taken from the content.
func NewUploadedFile(name, mimeType string, content []byte) *UploadedFile {
	return &UploadedFile{
		Name:    name,
		Size:    int64(len(content)),
		Type:    mimeType,
		Content: content,
	}
}

// Checksum returns the xxhash64 of the content as lowercase hex.
func (f *UploadedFile) Checksum() string {
	return fmt.Sprintf("%016x", xxhash.Sum64(f.Content))
}

// Details returns the metadata shown for every upload.
func (f *UploadedFile) Details() *FileDetails {
	return &FileDetails{
		Name:     f.Name,
		Size:     f.Size,
		SizeKB:   FormatKB(f.Size),
		Type:     f.Type,
		Checksum: f.Checksum(),
	}
}

// FileDetails is the name/size/type summary of an upload.
type FileDetails struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	SizeKB   string `json:"sizeKb"`
	Type     string `json:"type"`
	Checksum string `json:"checksum"`
}

// FormatKB renders a byte count in kibibytes with two decimals.
func FormatKB(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/1024)
}
