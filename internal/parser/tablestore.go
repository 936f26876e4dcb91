package parser

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/file-inspector/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
)

// TableStore keeps a parsed table in a temporary DuckDB file so chart series
// can be queried on every control change without re-parsing the upload.
type TableStore struct {
	db      *sql.DB
	dbPath  string
	columns []models.Column
	rows    int

	// Semaphore to limit concurrent queries
	querySem chan struct{}
}

// NewTableStore creates a store for one session in the given temp directory.
func NewTableStore(tempDir string, sessionID string) (*TableStore, error) {
	dbPath := filepath.Join(tempDir, fmt.Sprintf("session_%s.duckdb", sessionID))
	return NewTableStoreAtPath(dbPath)
}

// NewTableStoreAtPath creates a store backed by the DuckDB file at dbPath.
func NewTableStoreAtPath(dbPath string) (*TableStore, error) {
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	slog.Debug("table store opened", "path", dbPath)
	return &TableStore{
		db:       sql.OpenDB(connector),
		dbPath:   dbPath,
		querySem: make(chan struct{}, 3),
	}, nil
}

// columnIdent returns the SQL identifier of column i. Positional names keep
// arbitrary header text out of the SQL.
func columnIdent(i int) string {
	return fmt.Sprintf("c%d", i)
}

// Load creates the sheet table and appends every row of t. Numeric columns
// are stored as DOUBLE with missing cells as NULL; the rest as VARCHAR.
func (ts *TableStore) Load(ctx context.Context, t *models.Table) error {
	defs := []string{"row_index BIGINT NOT NULL"}
	for i, col := range t.Columns {
		typ := "VARCHAR"
		if col.Numeric {
			typ = "DOUBLE"
		}
		defs = append(defs, columnIdent(i)+" "+typ)
	}

	if _, err := ts.db.ExecContext(ctx, "CREATE TABLE sheet ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	conn, err := ts.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "sheet")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		values := make([]driver.Value, len(t.Columns)+1)
		for i, row := range t.Rows {
			values[0] = int64(i)
			for c, col := range t.Columns {
				values[c+1] = cellValue(row[c], col.Numeric)
			}
			if err := appender.AppendRow(values...); err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	ts.columns = t.Columns
	ts.rows = len(t.Rows)
	return nil
}

func cellValue(raw string, numeric bool) driver.Value {
	if !numeric {
		return raw
	}
	if v, ok := ParseNumber(raw); ok {
		return v
	}
	return nil
}

// Len returns the number of loaded rows.
func (ts *TableStore) Len() int {
	return ts.rows
}

func (ts *TableStore) columnIndex(name string) (int, error) {
	for i, c := range ts.columns {
		if c.Name == name {
			if !c.Numeric {
				return 0, fmt.Errorf("column is not numeric: %q", name)
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown column: %q", name)
}

// Series returns the (x, y) points of two numeric columns in row order.
// Rows where either value is missing are skipped.
func (ts *TableStore) Series(ctx context.Context, x, y string) ([]models.Point, error) {
	xi, err := ts.columnIndex(x)
	if err != nil {
		return nil, err
	}
	yi, err := ts.columnIndex(y)
	if err != nil {
		return nil, err
	}

	select {
	case ts.querySem <- struct{}{}:
		defer func() { <-ts.querySem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	xc, yc := columnIdent(xi), columnIdent(yi)
	query := fmt.Sprintf(
		"SELECT %s, %s FROM sheet WHERE %s IS NOT NULL AND %s IS NOT NULL ORDER BY row_index",
		xc, yc, xc, yc)

	rows, err := ts.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer rows.Close()

	points := make([]models.Point, 0, ts.rows)
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("scanning series: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close closes the database and removes the temp file
func (ts *TableStore) Close() error {
	if ts.db != nil {
		ts.db.Close()
	}
	if ts.dbPath != "" {
		os.Remove(ts.dbPath)
		os.Remove(ts.dbPath + ".wal")
	}
	return nil
}
