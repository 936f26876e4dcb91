package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/file-inspector/backend/internal/models"
)

// Messages shown to the user.
const (
	MsgUploadPrompt   = "Please upload a file to analyze."
	MsgCannotPreview  = "The content of this file type cannot be displayed."
	MsgInvalidArchive = "The uploaded file is not a valid ZIP archive."
)

// Inspection is the outcome of inspecting one upload.
type Inspection struct {
	Report *models.Report
	Kind   Kind
	// Table is set when the report offers chart controls.
	Table   *models.Table
	Listing *models.ZipListing
}

// Inspector classifies uploads and routes them to the registered parsers.
type Inspector struct {
	registry *Registry
}

// NewInspector creates an inspector. A nil registry uses the global one.
func NewInspector(registry *Registry) *Inspector {
	if registry == nil {
		registry = GetGlobalRegistry()
	}
	return &Inspector{registry: registry}
}

// PromptReport is the report shown before any file is uploaded.
func PromptReport() *models.Report {
	report := &models.Report{}
	report.Message(models.BlockInfo, MsgUploadPrompt)
	return report
}

// Inspect produces the report for f. A nil f yields the upload prompt.
// Inspect never fails: every error ends up as a block in the report.
func (in *Inspector) Inspect(ctx context.Context, f *models.UploadedFile) *Inspection {
	if f == nil {
		return &Inspection{Report: PromptReport()}
	}
	return in.InspectAs(ctx, f, Classify(f.Name, f.Type))
}

// KindByName resolves a parser name such as "csv" or "zip" to its kind.
func (in *Inspector) KindByName(name string) (Kind, error) {
	p, err := in.registry.GetParserByName(name)
	if err != nil {
		return KindUnknown, err
	}
	return p.Kind(), nil
}

// InspectAs produces the report for f treating it as the given kind instead
// of classifying it.
func (in *Inspector) InspectAs(ctx context.Context, f *models.UploadedFile, kind Kind) *Inspection {
	if f == nil {
		return &Inspection{Report: PromptReport()}
	}

	ins := &Inspection{
		Kind: kind,
		Report: &models.Report{
			File:   f.Details(),
			Kind:   string(kind),
			Blocks: []models.Block{},
		},
	}

	if kind == KindUnknown {
		ins.Report.Message(models.BlockWarning, MsgCannotPreview)
		return ins
	}

	res, err := in.run(ctx, kind, f)
	if err != nil {
		slog.WarnContext(ctx, "inspection failed",
			"file", f.Name, "kind", kind, "error", err)
		ins.Report.Add(ErrorBlock(kind, err))
		return ins
	}

	ins.Report.Blocks = append(ins.Report.Blocks, res.Blocks...)
	ins.Table = res.Table
	ins.Listing = res.Listing
	slog.DebugContext(ctx, "inspection complete",
		"file", f.Name, "kind", kind, "blocks", len(ins.Report.Blocks))
	return ins
}

func (in *Inspector) run(ctx context.Context, kind Kind, f *models.UploadedFile) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%v", r)
		}
	}()

	p, err := in.registry.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, f)
}

// ExtractedBlock reports a finished extraction.
func ExtractedBlock(res *models.ExtractResult) models.Block {
	return models.Block{
		Type: models.BlockSuccess,
		Text: fmt.Sprintf("Files extracted to folder: %s", res.Path),
	}
}

// ErrorBlock renders err for a failed parse of the given kind.
func ErrorBlock(kind Kind, err error) models.Block {
	var perr *ParseError
	var text string
	switch {
	case errors.Is(err, ErrInvalidArchive):
		text = MsgInvalidArchive
	case kind == KindZIP:
		text = fmt.Sprintf("Error processing the ZIP file: %v", err)
	case errors.As(err, &perr):
		text = fmt.Sprintf("Error parsing the file: %v", perr)
	default:
		text = fmt.Sprintf("Error reading the file: %v", err)
	}
	return models.Block{Type: models.BlockError, Text: text}
}
