package parser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/file-inspector/backend/internal/models"
)

// ImageParser decodes any declared image/* upload.
type ImageParser struct{}

func NewImageParser() *ImageParser {
	return &ImageParser{}
}

func (p *ImageParser) Name() string {
	return "image"
}

func (p *ImageParser) Kind() Kind {
	return KindImage
}

func (p *ImageParser) Parse(ctx context.Context, f *models.UploadedFile) (*Result, error) {
	img, format, err := image.Decode(bytes.NewReader(f.Content))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	return &Result{
		Blocks: []models.Block{{
			Type:  models.BlockImage,
			Title: "Image Preview",
			Image: &models.Image{
				Caption: f.Name,
				Format:  format,
				Width:   bounds.Dx(),
				Height:  bounds.Dy(),
			},
		}},
	}, nil
}
