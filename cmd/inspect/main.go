// Command inspect renders the inspection report of a local file.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/file-inspector/backend/internal/config"
	"github.com/file-inspector/backend/internal/logging"
	"github.com/file-inspector/backend/internal/parser"
	"github.com/file-inspector/backend/internal/upload"
)

type options struct {
	mimeType   string
	kind       string
	extract    bool
	configPath string
	maxRows    int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "inspect <path>",
		Short:         "Inspect a file and print its preview report",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.mimeType, "type", "t", "", "declared MIME type (default: guessed from the extension)")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "", "parse as this kind (csv, excel, image, pdf, docx, notebook, zip) instead of classifying")
	cmd.Flags().BoolVar(&opts.extract, "extract", false, "extract ZIP archives after listing them")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", config.DefaultFileName, "configuration file")
	cmd.Flags().IntVar(&opts.maxRows, "rows", 20, "table rows to print (0 prints all)")
	return cmd
}

func run(cmd *cobra.Command, path string, opts *options) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(cmd.ErrOrStderr(), cfg.Logging.Level)

	f, err := upload.NewIntake(0).FromPath(path, opts.mimeType)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	inspector := parser.NewInspector(nil)
	var ins *parser.Inspection
	if opts.kind != "" {
		kind, err := inspector.KindByName(opts.kind)
		if err != nil {
			return err
		}
		ins = inspector.InspectAs(ctx, f, kind)
	} else {
		ins = inspector.Inspect(ctx, f)
	}
	report := ins.Report

	if opts.extract {
		if ins.Kind != parser.KindZIP {
			return fmt.Errorf("%s is not a ZIP archive", filepath.Base(path))
		}
		res, err := parser.ExtractArchive(f.Content, cfg.Extraction.Directory)
		if err != nil {
			report.Add(parser.ErrorBlock(parser.KindZIP, err))
		} else {
			report.Add(parser.ExtractedBlock(res))
		}
	}

	printReport(cmd.OutOrStdout(), report, opts.maxRows)
	return nil
}

// loadConfig reads the configuration file. The default file is only read when
// it already exists so that a one-off inspection leaves no file behind.
func loadConfig(cmd *cobra.Command, path string) (*config.AppConfig, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.DefaultConfig(), nil
		}
	}
	return config.LoadConfig(path)
}
