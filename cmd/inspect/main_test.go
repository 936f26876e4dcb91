package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/file-inspector/backend/internal/models"
	"github.com/file-inspector/backend/internal/parser"
	"github.com/file-inspector/backend/internal/testutil"
)

func TestPrintReport_Prompt(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, parser.PromptReport(), 0)

	assert.Equal(t, "[INFO] "+parser.MsgUploadPrompt+"\n", buf.String())
}

func TestPrintReport_TableIsTruncated(t *testing.T) {
	report := &models.Report{
		File: models.NewUploadedFile("data.csv", "text/csv", []byte("a,b\n1,2\n3,4\n5,6\n")).Details(),
	}
	report.Add(models.Block{
		Type:  models.BlockTable,
		Title: "Contents",
		Table: &models.Table{
			Columns: []models.Column{{Name: "a"}, {Name: "b"}},
			Rows:    [][]string{{"1", "2"}, {"3", "4"}, {"5", "6"}},
		},
	})

	var buf bytes.Buffer
	printReport(&buf, report, 2)
	out := buf.String()

	assert.Contains(t, out, "Name: data.csv")
	assert.Contains(t, out, "Type: text/csv")
	assert.Contains(t, out, "== Contents ==")
	assert.Contains(t, out, "3  4")
	assert.NotContains(t, out, "5  6")
	assert.Contains(t, out, "... 1 more rows")
	assert.Contains(t, out, "3 rows x 2 columns")
}

func TestRootCmd_InspectsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,score\nann,3\n"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--config", filepath.Join(dir, "cfg.yaml")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "name  score")
	assert.Contains(t, out.String(), "ann   3")
}

func TestRootCmd_ExtractsArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.zip")
	data := testutil.Zip(t, testutil.ZipEntry{Name: "docs/readme.txt", Body: "hi"})
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("EXTRACT_DIR", filepath.Join(dir, "out"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--extract", "--config", filepath.Join(dir, "cfg.yaml")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "docs/readme.txt")
	assert.Contains(t, out.String(), "[SUCCESS] Files extracted to folder:")

	got, err := os.ReadFile(filepath.Join(dir, "out", "docs", "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}

func TestRootCmd_ExtractRejectsNonArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--extract", "--config", filepath.Join(dir, "cfg.yaml")})

	assert.Error(t, cmd.Execute())
}

func TestRootCmd_KindOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.bin")
	require.NoError(t, os.WriteFile(path, []byte("name,score\nann,3\n"), 0o644))

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{path, "--config", filepath.Join(dir, "cfg.yaml")}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run()
	require.NoError(t, err)
	assert.Contains(t, out, parser.MsgCannotPreview)

	out, err = run("--kind", "CSV")
	require.NoError(t, err)
	assert.Contains(t, out, "ann   3")
	assert.NotContains(t, out, parser.MsgCannotPreview)

	_, err = run("--kind", "spreadsheet")
	assert.Error(t, err)
}
