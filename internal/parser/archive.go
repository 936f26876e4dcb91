package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/file-inspector/backend/internal/models"
)

// ZIPParser lists the entries of ZIP archives.
type ZIPParser struct{}

func NewZIPParser() *ZIPParser {
	return &ZIPParser{}
}

func (p *ZIPParser) Name() string {
	return "zip"
}

func (p *ZIPParser) Kind() Kind {
	return KindZIP
}

func (p *ZIPParser) Parse(ctx context.Context, f *models.UploadedFile) (*Result, error) {
	listing, err := ListArchive(f.Content)
	if err != nil {
		return nil, err
	}
	return &Result{
		Listing: listing,
		Blocks: []models.Block{
			{
				Type:  models.BlockListing,
				Title: "ZIP File Contents",
				Text:  "Files contained in the ZIP:",
				Items: listing.Entries,
			},
			{
				Type:   models.BlockAction,
				Text:   "Extract files",
				Action: models.ActionExtract,
			},
		},
	}, nil
}

func openArchive(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	switch {
	case err == nil:
		return zr, nil
	case errors.Is(err, zip.ErrInsecurePath) && zr != nil:
		// entry names are sanitized on extraction
		return zr, nil
	case errors.Is(err, zip.ErrFormat):
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	default:
		return nil, err
	}
}

// ListArchive returns every entry path in archive order.
func ListArchive(data []byte) (*models.ZipListing, error) {
	zr, err := openArchive(data)
	if err != nil {
		return nil, err
	}
	entries := make([]string, len(zr.File))
	for i, f := range zr.File {
		entries[i] = f.Name
	}
	return &models.ZipListing{Entries: entries}, nil
}

// ExtractArchive extracts every entry into dir, creating it if needed, and
// returns its absolute path. Extraction is not atomic: a failure part way
// leaves the entries written so far in place.
func ExtractArchive(data []byte, dir string) (*models.ExtractResult, error) {
	zr, err := openArchive(data)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("creating extraction directory: %w", err)
	}

	files := 0
	for _, f := range zr.File {
		rel := sanitizeEntryPath(f.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(abs, rel)

		if strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, fmt.Errorf("creating %s: %w", rel, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
			}
			return nil, fmt.Errorf("extracting %s: %w", f.Name, err)
		}
		files++
	}

	return &models.ExtractResult{Path: abs, Files: files}, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// sanitizeEntryPath drops empty, "." and ".." components so the entry stays
// inside the extraction directory.
func sanitizeEntryPath(name string) string {
	parts := strings.Split(strings.ReplaceAll(name, `\`, "/"), "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return filepath.FromSlash(strings.Join(kept, "/"))
}
