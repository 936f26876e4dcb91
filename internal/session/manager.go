package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/file-inspector/backend/internal/chart"
	"github.com/file-inspector/backend/internal/models"
	"github.com/file-inspector/backend/internal/parser"
	"github.com/file-inspector/backend/internal/storage"
)

// DefaultMaxSessions limits concurrent sessions to prevent memory exhaustion
const DefaultMaxSessions = 10

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoFile           = errors.New("no file uploaded")
	ErrNotArchive       = errors.New("upload is not a ZIP archive")
	ErrChartUnavailable = errors.New("charts are not available for this upload")
	ErrInvalidChart     = errors.New("invalid chart selection")
)

// Options configures a Manager.
type Options struct {
	// TempDir holds the per-session DuckDB files.
	TempDir string
	// ExtractDir is where archives are extracted.
	ExtractDir  string
	MaxSessions int
}

// Manager keeps the derived state of every inspected upload.
type Manager struct {
	sessions  map[string]*SessionState
	byContent map[string]string
	mu        sync.RWMutex

	inspector   *parser.Inspector
	store       storage.Store
	tempDir     string
	extractDir  string
	maxSessions int
}

// SessionState holds one upload's report and what is needed to serve
// follow-up interactions without re-parsing.
type SessionState struct {
	ID     string
	FileID string
	Kind   parser.Kind
	Report *models.Report

	// Table is set for chart-eligible spreadsheets. Tables holds the same
	// rows in DuckDB; when it could not be created, series are computed
	// from Table directly.
	Table   *models.Table
	Tables  *parser.TableStore
	Listing *models.ZipListing

	contentKey   string
	CreatedAt    time.Time
	LastAccessed time.Time
}

// NewManager creates a session manager backed by store.
func NewManager(store storage.Store, opts Options) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.ExtractDir == "" {
		opts.ExtractDir = "extracted"
	}
	return &Manager{
		sessions:    make(map[string]*SessionState),
		byContent:   make(map[string]string),
		inspector:   parser.NewInspector(nil),
		store:       store,
		tempDir:     opts.TempDir,
		extractDir:  opts.ExtractDir,
		maxSessions: opts.MaxSessions,
	}
}

// shortID safely truncates an ID for logging (handles short IDs gracefully)
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func contentKey(f *models.UploadedFile) string {
	return f.Checksum() + "\x00" + f.Name + "\x00" + f.Type
}

// Create inspects f and stores the result. Uploading identical content with
// the same name and type again returns the live session.
func (m *Manager) Create(ctx context.Context, f *models.UploadedFile) (*models.Report, error) {
	if f == nil {
		return nil, ErrNoFile
	}

	key := contentKey(f)
	m.mu.Lock()
	if id, ok := m.byContent[key]; ok {
		if state, ok := m.sessions[id]; ok {
			state.LastAccessed = time.Now()
			report := state.Report.Clone()
			m.mu.Unlock()
			slog.DebugContext(ctx, "reusing session", "session", shortID(id), "file", f.Name)
			return report, nil
		}
	}
	m.mu.Unlock()

	m.evictIfNeeded()

	id := uuid.New().String()
	start := time.Now()
	ins := m.inspector.Inspect(ctx, f)
	ins.Report.ID = id

	info, err := m.store.SaveBytes(f.Name, f.Type, f.Content)
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	state := &SessionState{
		ID:           id,
		FileID:       info.ID,
		Kind:         ins.Kind,
		Report:       ins.Report,
		Table:        ins.Table,
		Listing:      ins.Listing,
		contentKey:   key,
		CreatedAt:    start,
		LastAccessed: start,
	}

	if ins.Table != nil && m.tempDir != "" {
		state.Tables = m.loadTable(ctx, id, ins.Table)
	}

	if err := m.store.SetStatus(info.ID, "inspected"); err != nil {
		slog.WarnContext(ctx, "failed to update upload status", "file_id", info.ID, "error", err)
	}

	m.mu.Lock()
	m.sessions[id] = state
	m.byContent[key] = id
	m.mu.Unlock()

	slog.InfoContext(ctx, "session created",
		"session", shortID(id),
		"file", f.Name,
		"kind", ins.Kind,
		"blocks", len(ins.Report.Blocks),
		"elapsed_ms", time.Since(start).Milliseconds())

	return ins.Report.Clone(), nil
}

func (m *Manager) loadTable(ctx context.Context, id string, t *models.Table) *parser.TableStore {
	ts, err := parser.NewTableStore(m.tempDir, id)
	if err == nil {
		err = ts.Load(ctx, t)
		if err != nil {
			ts.Close()
		}
	}
	if err != nil {
		slog.WarnContext(ctx, "table store unavailable, charts use in-memory rows",
			"session", shortID(id), "error", err)
		return nil
	}
	return ts
}

func (m *Manager) lookup(id string) (*SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	state.LastAccessed = time.Now()
	return state, nil
}

// Get returns a copy of the session's report.
func (m *Manager) Get(id string) (*models.Report, error) {
	state, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return state.Report.Clone(), nil
}

// Touch updates the LastAccessed timestamp for a session.
// Returns false if the session doesn't exist.
func (m *Manager) Touch(id string) bool {
	_, err := m.lookup(id)
	return err == nil
}

// Select returns a copy of the report with the chart controls set to cfg.
func (m *Manager) Select(id string, cfg models.ChartConfig) (*models.Report, error) {
	state, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	if state.Table == nil {
		return nil, ErrChartUnavailable
	}
	if err := cfg.Validate(state.Table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChart, err)
	}

	report := state.Report.Clone()
	if b, ok := report.Find(models.BlockChartControls); ok {
		b.Chart.Select(cfg)
	}
	return report, nil
}

// Chart returns the series for cfg over the session's table.
func (m *Manager) Chart(ctx context.Context, id string, cfg models.ChartConfig) (*models.ChartSeries, error) {
	state, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	if state.Table == nil {
		return nil, ErrChartUnavailable
	}
	if err := cfg.Validate(state.Table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChart, err)
	}

	var points []models.Point
	if state.Tables != nil {
		points, err = state.Tables.Series(ctx, cfg.X, cfg.Y)
		if err != nil {
			return nil, fmt.Errorf("querying chart series: %w", err)
		}
	} else {
		points = seriesFromTable(state.Table, cfg.X, cfg.Y)
	}
	return chart.NewSeries(cfg, points), nil
}

// seriesFromTable pairs two numeric columns in row order, skipping rows
// where either value is missing.
func seriesFromTable(t *models.Table, x, y string) []models.Point {
	xi, yi := t.ColumnIndex(x), t.ColumnIndex(y)
	points := make([]models.Point, 0, len(t.Rows))
	for _, row := range t.Rows {
		xv, okX := parser.ParseNumber(row[xi])
		yv, okY := parser.ParseNumber(row[yi])
		if okX && okY {
			points = append(points, models.Point{X: xv, Y: yv})
		}
	}
	return points
}

// Extract unpacks the session's archive into the extraction directory.
func (m *Manager) Extract(ctx context.Context, id string) (*models.ExtractResult, error) {
	state, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	if state.Kind != parser.KindZIP {
		return nil, ErrNotArchive
	}

	data, err := m.store.Read(state.FileID)
	if err != nil {
		return nil, fmt.Errorf("reading stored upload: %w", err)
	}

	res, err := parser.ExtractArchive(data, m.extractDir)
	if err != nil {
		slog.WarnContext(ctx, "extraction failed", "session", shortID(id), "error", err)
		return nil, err
	}
	if err := m.store.SetStatus(state.FileID, "extracted"); err != nil {
		slog.WarnContext(ctx, "failed to update upload status", "file_id", state.FileID, "error", err)
	}
	slog.InfoContext(ctx, "archive extracted",
		"session", shortID(id), "path", res.Path, "files", res.Files)
	return res, nil
}

// ExtractReport runs Extract and returns the report with its outcome
// appended as a success or error block.
func (m *Manager) ExtractReport(ctx context.Context, id string) (*models.Report, error) {
	res, err := m.Extract(ctx, id)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNotArchive) {
		return nil, err
	}

	report, gerr := m.Get(id)
	if gerr != nil {
		return nil, gerr
	}
	if err != nil {
		report.Add(parser.ErrorBlock(parser.KindZIP, err))
	} else {
		report.Add(parser.ExtractedBlock(res))
	}
	return report, nil
}

// Content returns the stored upload.
func (m *Manager) Content(id string) (*models.FileInfo, []byte, error) {
	state, err := m.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	info, err := m.store.Get(state.FileID)
	if err != nil {
		return nil, nil, err
	}
	data, err := m.store.Read(state.FileID)
	if err != nil {
		return nil, nil, err
	}
	return info, data, nil
}

// Delete drops a session and its stored upload.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		m.removeLocked(state)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return m.release(state)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) removeLocked(state *SessionState) {
	delete(m.sessions, state.ID)
	if m.byContent[state.contentKey] == state.ID {
		delete(m.byContent, state.contentKey)
	}
}

func (m *Manager) release(state *SessionState) error {
	if state.Tables != nil {
		state.Tables.Close()
	}
	if err := m.store.Delete(state.FileID); err != nil {
		return fmt.Errorf("deleting stored upload: %w", err)
	}
	return nil
}

// evictIfNeeded drops the least recently used sessions so one more fits.
func (m *Manager) evictIfNeeded() {
	m.mu.Lock()
	if len(m.sessions) < m.maxSessions {
		m.mu.Unlock()
		return
	}

	states := make([]*SessionState, 0, len(m.sessions))
	for _, s := range m.sessions {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].LastAccessed.Before(states[j].LastAccessed)
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	evicted := states[:toFree]
	for _, s := range evicted {
		m.removeLocked(s)
	}
	m.mu.Unlock()

	for _, s := range evicted {
		if err := m.release(s); err != nil {
			slog.Warn("failed to release evicted session", "session", shortID(s.ID), "error", err)
		}
		slog.Info("evicted session to stay under limit", "session", shortID(s.ID))
	}
}

// CleanupOldSessions removes sessions not accessed within maxAge.
// Sessions used within SessionKeepAliveWindow are always kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	m.mu.Lock()
	var expired []*SessionState
	for _, state := range m.sessions {
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			expired = append(expired, state)
			m.removeLocked(state)
		}
	}
	m.mu.Unlock()

	for _, state := range expired {
		if err := m.release(state); err != nil {
			slog.Warn("failed to release expired session", "session", shortID(state.ID), "error", err)
		}
		slog.Info("cleaned up aged session",
			"session", shortID(state.ID),
			"idle", now.Sub(state.LastAccessed).Round(time.Second))
	}
	return len(expired)
}

// Close releases every session.
func (m *Manager) Close() {
	m.mu.Lock()
	states := make([]*SessionState, 0, len(m.sessions))
	for _, s := range m.sessions {
		states = append(states, s)
		m.removeLocked(s)
	}
	m.mu.Unlock()

	for _, s := range states {
		m.release(s)
	}
}
