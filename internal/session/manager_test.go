package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/file-inspector/backend/internal/models"
	"github.com/file-inspector/backend/internal/parser"
	"github.com/file-inspector/backend/internal/testutil"
)

func newTestManager(t *testing.T, maxSessions int) (*Manager, *testutil.MockStorage) {
	t.Helper()
	store := testutil.NewMockStorage()
	dir := t.TempDir()
	m := NewManager(store, Options{
		TempDir:     filepath.Join(dir, "temp"),
		ExtractDir:  filepath.Join(dir, "extracted"),
		MaxSessions: maxSessions,
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "temp"), 0755))
	t.Cleanup(m.Close)
	return m, store
}

func chartWorkbook(t *testing.T) *models.UploadedFile {
	data := testutil.XLSX(t,
		[]interface{}{"label", "x", "y"},
		[]interface{}{"a", 1, 2},
		[]interface{}{"b", 2, 4},
		[]interface{}{"c", 3, 9},
	)
	return models.NewUploadedFile("book.xlsx", parser.MIMEExcelOpenXML, data)
}

func archiveUpload(t *testing.T) *models.UploadedFile {
	data := testutil.Zip(t,
		testutil.ZipEntry{Name: "a.txt", Body: "a"},
		testutil.ZipEntry{Name: "nested/b.txt", Body: "b"},
	)
	return models.NewUploadedFile("bundle.zip", "application/zip", data)
}

func TestManager_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores report and upload", func(t *testing.T) {
		m, store := newTestManager(t, 0)

		report, err := m.Create(ctx, models.NewUploadedFile("a.csv", "text/csv", []byte("a,b\n1,2\n")))
		require.NoError(t, err)
		assert.NotEmpty(t, report.ID)
		assert.Equal(t, "csv", report.Kind)
		assert.Equal(t, 1, store.Len())

		got, err := m.Get(report.ID)
		require.NoError(t, err)
		assert.Equal(t, report, got)
	})

	t.Run("nil file", func(t *testing.T) {
		m, _ := newTestManager(t, 0)
		_, err := m.Create(ctx, nil)
		assert.ErrorIs(t, err, ErrNoFile)
	})

	t.Run("identical upload reuses session", func(t *testing.T) {
		m, store := newTestManager(t, 0)

		first, err := m.Create(ctx, archiveUpload(t))
		require.NoError(t, err)
		second, err := m.Create(ctx, archiveUpload(t))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, m.Len())
		assert.Equal(t, 1, store.Len())
	})

	t.Run("different name creates a new session", func(t *testing.T) {
		m, _ := newTestManager(t, 0)

		f := archiveUpload(t)
		first, err := m.Create(ctx, f)
		require.NoError(t, err)

		renamed := models.NewUploadedFile("other.zip", f.Type, f.Content)
		second, err := m.Create(ctx, renamed)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("evicts least recently used at limit", func(t *testing.T) {
		m, store := newTestManager(t, 2)

		r1, err := m.Create(ctx, models.NewUploadedFile("1.csv", "text/csv", []byte("a\n1\n")))
		require.NoError(t, err)
		r2, err := m.Create(ctx, models.NewUploadedFile("2.csv", "text/csv", []byte("a\n2\n")))
		require.NoError(t, err)

		m.sessions[r1.ID].LastAccessed = time.Now().Add(-time.Hour)

		_, err = m.Create(ctx, models.NewUploadedFile("3.csv", "text/csv", []byte("a\n3\n")))
		require.NoError(t, err)

		assert.Equal(t, 2, m.Len())
		assert.Equal(t, 2, store.Len())
		_, err = m.Get(r1.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = m.Get(r2.ID)
		assert.NoError(t, err)
	})
}

func TestManager_GetReturnsCopy(t *testing.T) {
	m, _ := newTestManager(t, 0)
	report, err := m.Create(context.Background(), chartWorkbook(t))
	require.NoError(t, err)

	report.Add(models.Block{Type: models.BlockInfo, Text: "extra"})
	b, ok := report.Find(models.BlockChartControls)
	require.True(t, ok)
	b.Chart.X = "mutated"

	fresh, err := m.Get(report.ID)
	require.NoError(t, err)
	assert.Len(t, fresh.Blocks, 2)
	b, _ = fresh.Find(models.BlockChartControls)
	assert.Equal(t, "x", b.Chart.X)
}

func TestManager_Chart(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 0)

	report, err := m.Create(ctx, chartWorkbook(t))
	require.NoError(t, err)
	require.NotNil(t, m.sessions[report.ID].Tables, "expected DuckDB table store")

	t.Run("series from table store", func(t *testing.T) {
		series, err := m.Chart(ctx, report.ID, models.ChartConfig{X: "x", Y: "y", Kind: models.ChartLine})
		require.NoError(t, err)

		assert.Equal(t, "Line Chart", series.Title)
		assert.Equal(t, []models.Point{{X: 1, Y: 2}, {X: 2, Y: 4}, {X: 3, Y: 9}}, series.Points)
	})

	t.Run("in-memory fallback matches", func(t *testing.T) {
		state := m.sessions[report.ID]
		want := seriesFromTable(state.Table, "x", "y")

		series, err := m.Chart(ctx, report.ID, models.ChartConfig{X: "x", Y: "y", Kind: models.ChartBar})
		require.NoError(t, err)
		assert.Equal(t, want, series.Points)
	})

	t.Run("invalid selection", func(t *testing.T) {
		_, err := m.Chart(ctx, report.ID, models.ChartConfig{X: "label", Y: "y", Kind: models.ChartLine})
		assert.ErrorIs(t, err, ErrInvalidChart)

		_, err = m.Chart(ctx, report.ID, models.ChartConfig{X: "x", Y: "y", Kind: "pie"})
		assert.ErrorIs(t, err, ErrInvalidChart)
	})

	t.Run("not chart eligible", func(t *testing.T) {
		csv, err := m.Create(ctx, models.NewUploadedFile("a.csv", "text/csv", []byte("x,y\n1,2\n")))
		require.NoError(t, err)

		_, err = m.Chart(ctx, csv.ID, models.ChartConfig{X: "x", Y: "y", Kind: models.ChartLine})
		assert.ErrorIs(t, err, ErrChartUnavailable)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := m.Chart(ctx, "missing", models.ChartConfig{})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestManager_ChartWithoutTableStore(t *testing.T) {
	store := testutil.NewMockStorage()
	m := NewManager(store, Options{ExtractDir: t.TempDir()})
	t.Cleanup(m.Close)

	report, err := m.Create(context.Background(), chartWorkbook(t))
	require.NoError(t, err)
	assert.Nil(t, m.sessions[report.ID].Tables)

	series, err := m.Chart(context.Background(), report.ID, models.ChartConfig{X: "y", Y: "x", Kind: models.ChartScatter})
	require.NoError(t, err)
	assert.Equal(t, []models.Point{{X: 2, Y: 1}, {X: 4, Y: 2}, {X: 9, Y: 3}}, series.Points)
}

func TestManager_Select(t *testing.T) {
	m, _ := newTestManager(t, 0)
	report, err := m.Create(context.Background(), chartWorkbook(t))
	require.NoError(t, err)

	cfg := models.ChartConfig{X: "x", Y: "y", Kind: models.ChartBar}
	selected, err := m.Select(report.ID, cfg)
	require.NoError(t, err)

	b, ok := selected.Find(models.BlockChartControls)
	require.True(t, ok)
	assert.Equal(t, cfg, b.Chart.Config())

	// The stored report keeps its defaults.
	stored, err := m.Get(report.ID)
	require.NoError(t, err)
	b, _ = stored.Find(models.BlockChartControls)
	assert.Equal(t, "x", b.Chart.Y)
}

func TestManager_Extract(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, 0)

	report, err := m.Create(ctx, archiveUpload(t))
	require.NoError(t, err)

	res, err := m.Extract(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.FileExists(t, filepath.Join(res.Path, "nested", "b.txt"))

	withOutcome, err := m.ExtractReport(ctx, report.ID)
	require.NoError(t, err)
	last := withOutcome.Blocks[len(withOutcome.Blocks)-1]
	assert.Equal(t, models.BlockSuccess, last.Type)
	assert.Contains(t, last.Text, res.Path)

	t.Run("not an archive", func(t *testing.T) {
		csv, err := m.Create(ctx, models.NewUploadedFile("a.csv", "text/csv", []byte("a\n1\n")))
		require.NoError(t, err)
		_, err = m.Extract(ctx, csv.ID)
		assert.ErrorIs(t, err, ErrNotArchive)
		_, err = m.ExtractReport(ctx, csv.ID)
		assert.ErrorIs(t, err, ErrNotArchive)
	})

	t.Run("invalid archive", func(t *testing.T) {
		bad, err := m.Create(ctx, models.NewUploadedFile("bad.zip", "application/zip", []byte("nope")))
		require.NoError(t, err)

		_, err = m.Extract(ctx, bad.ID)
		assert.True(t, errors.Is(err, parser.ErrInvalidArchive))

		withOutcome, err := m.ExtractReport(ctx, bad.ID)
		require.NoError(t, err)
		last := withOutcome.Blocks[len(withOutcome.Blocks)-1]
		assert.Equal(t, models.BlockError, last.Type)
		assert.Equal(t, parser.MsgInvalidArchive, last.Text)
	})
}

func TestManager_Content(t *testing.T) {
	m, _ := newTestManager(t, 0)
	png := testutil.PNG(t, 2, 2)

	report, err := m.Create(context.Background(), models.NewUploadedFile("p.png", "image/png", png))
	require.NoError(t, err)

	info, data, err := m.Content(report.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.Type)
	assert.Equal(t, png, data)
}

func TestManager_Delete(t *testing.T) {
	m, store := newTestManager(t, 0)
	report, err := m.Create(context.Background(), chartWorkbook(t))
	require.NoError(t, err)

	require.NoError(t, m.Delete(report.ID))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, store.Len())
	assert.False(t, m.Touch(report.ID))

	assert.ErrorIs(t, m.Delete(report.ID), ErrSessionNotFound)

	// Deleted content can be uploaded again.
	again, err := m.Create(context.Background(), chartWorkbook(t))
	require.NoError(t, err)
	assert.NotEqual(t, report.ID, again.ID)
}

func TestManager_CleanupOldSessions(t *testing.T) {
	m, store := newTestManager(t, 0)
	ctx := context.Background()

	old, err := m.Create(ctx, models.NewUploadedFile("old.csv", "text/csv", []byte("a\n1\n")))
	require.NoError(t, err)
	recent, err := m.Create(ctx, models.NewUploadedFile("new.csv", "text/csv", []byte("a\n2\n")))
	require.NoError(t, err)

	m.sessions[old.ID].LastAccessed = time.Now().Add(-2 * time.Hour)

	removed := m.CleanupOldSessions(time.Minute)
	assert.Equal(t, 1, removed)
	assert.False(t, m.Touch(old.ID))
	assert.True(t, m.Touch(recent.ID), "sessions inside the keep-alive window survive")
	assert.Equal(t, 1, store.Len())
}
