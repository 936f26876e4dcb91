package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/file-inspector/backend/internal/models"
)

// printReport writes a plain-text rendition of report to w. At most maxRows
// table rows are printed; zero prints all of them.
func printReport(w io.Writer, report *models.Report, maxRows int) {
	if f := report.File; f != nil {
		fmt.Fprintln(w, "File details")
		fmt.Fprintf(w, "  Name: %s\n", f.Name)
		fmt.Fprintf(w, "  Size: %s KB\n", f.SizeKB)
		fmt.Fprintf(w, "  Type: %s\n", f.Type)
		fmt.Fprintln(w)
	}

	for _, b := range report.Blocks {
		printBlock(w, b, maxRows)
	}
}

func printBlock(w io.Writer, b models.Block, maxRows int) {
	if b.Title != "" {
		fmt.Fprintf(w, "== %s ==\n", b.Title)
	}
	switch b.Type {
	case models.BlockInfo, models.BlockWarning, models.BlockError, models.BlockSuccess:
		fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(string(b.Type)), b.Text)
	case models.BlockTable:
		printTable(w, b.Table, maxRows)
	case models.BlockChartControls:
		c := b.Chart
		fmt.Fprintf(w, "Chart columns: %s\n", strings.Join(c.Columns, ", "))
		fmt.Fprintf(w, "Default chart: %s of %s against %s\n", c.Kind, c.Y, c.X)
	case models.BlockImage:
		img := b.Image
		fmt.Fprintf(w, "Image %q: %s %dx%d\n", img.Caption, img.Format, img.Width, img.Height)
	case models.BlockTextArea:
		fmt.Fprintln(w, b.Text)
	case models.BlockListing:
		fmt.Fprintln(w, b.Text)
		for _, item := range b.Items {
			fmt.Fprintf(w, "  %s\n", item)
		}
	case models.BlockAction:
		fmt.Fprintf(w, "%s: rerun with --%s\n", b.Text, b.Action)
	}
}

func printTable(w io.Writer, t *models.Table, maxRows int) {
	if t == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.ColumnNames(), "\t"))

	rows := t.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()

	if len(rows) < t.RowCount() {
		fmt.Fprintf(w, "... %d more rows\n", t.RowCount()-len(rows))
	}
	fmt.Fprintf(w, "%d rows x %d columns\n", t.RowCount(), t.ColumnCount())
}
