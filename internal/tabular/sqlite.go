package tabular

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape. Workbooks created
// by another version are refused rather than migrated.
const schemaVersion = 1

// ErrSchemaVersion indicates the workbook file was created by an incompatible build.
var ErrSchemaVersion = errors.New("workbook schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const (
	kindString = "s"
	kindInt    = "i"
	kindFloat  = "f"
	kindBool   = "b"
)

// SQLiteWorkbook persists tables as sparse cells inside one SQLite file.
type SQLiteWorkbook struct {
	db   *sql.DB
	path string
}

var _ Adapter = (*SQLiteWorkbook)(nil)

// OpenSQLite opens (or creates) the workbook at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteWorkbook, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("open workbook: path required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create workbook directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps cell updates from interleaving inside a process.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	wb := &SQLiteWorkbook{db: db, path: path}
	if err := wb.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return wb, nil
}

// Path returns the workbook file location.
func (w *SQLiteWorkbook) Path() string {
	return w.path
}

// Close releases the database handle.
func (w *SQLiteWorkbook) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *SQLiteWorkbook) initSchema(ctx context.Context) error {
	var tableExists int
	err := w.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return w.createSchema(ctx)
	}

	var version int
	if err := w.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: %s has version %d, expected %d", ErrSchemaVersion, w.path, version, schemaVersion)
	}
	return nil
}

func (w *SQLiteWorkbook) createSchema(ctx context.Context) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// EnsureTable registers the sheet when missing.
func (w *SQLiteWorkbook) EnsureTable(ctx context.Context, table string) error {
	query, args, err := sq.Insert("sheets").
		Columns("name", "created_at").
		Values(table, time.Now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build ensure table: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		_, execErr := w.db.ExecContext(ctx, query, args...)
		return execErr
	})
}

// Tables lists registered sheets in creation order.
func (w *SQLiteWorkbook) Tables(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("name").From("sheets").OrderBy("created_at", "name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tables: %w", err)
	}
	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Size returns the last non-empty row and column.
func (w *SQLiteWorkbook) Size(ctx context.Context, table string) (int, int, error) {
	query, args, err := sq.Select("COALESCE(MAX(row_idx), 0)", "COALESCE(MAX(col_idx), 0)").
		From("cells").
		Where(sq.Eq{"sheet": table}).
		ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build size query: %w", err)
	}
	var rows, cols int
	if err := w.db.QueryRowContext(ctx, query, args...).Scan(&rows, &cols); err != nil {
		return 0, 0, fmt.Errorf("size %s: %w", table, err)
	}
	return rows, cols, nil
}

// ReadRange returns the requested block padded with nil.
func (w *SQLiteWorkbook) ReadRange(ctx context.Context, table string, rowStart, colStart, rowCount, colCount int) (Grid, error) {
	if err := validateRange(rowStart, colStart, rowCount, colCount); err != nil {
		return nil, err
	}
	grid := make(Grid, rowCount)
	for i := range grid {
		grid[i] = make(Row, colCount)
	}
	if rowCount == 0 || colCount == 0 {
		return grid, nil
	}

	query, args, err := sq.Select("row_idx", "col_idx", "kind", "value").
		From("cells").
		Where(sq.Eq{"sheet": table}).
		Where(sq.GtOrEq{"row_idx": rowStart}).
		Where(sq.Lt{"row_idx": rowStart + rowCount}).
		Where(sq.GtOrEq{"col_idx": colStart}).
		Where(sq.Lt{"col_idx": colStart + colCount}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build read range: %w", err)
	}
	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r, c        int
			kind, value string
		)
		if err := rows.Scan(&r, &c, &kind, &value); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		cell, err := decodeCell(kind, value)
		if err != nil {
			return nil, fmt.Errorf("%s!R%dC%d: %w", table, r, c, err)
		}
		grid[r-rowStart][c-colStart] = cell
	}
	return grid, rows.Err()
}

// WriteRange overwrites cells in a single transaction. Empty cells are removed.
func (w *SQLiteWorkbook) WriteRange(ctx context.Context, table string, rowStart, colStart int, grid Grid) error {
	if err := validateRange(rowStart, colStart, len(grid), 0); err != nil {
		return err
	}
	normalized, err := normalizeGrid(grid)
	if err != nil {
		return err
	}
	return retryOnBusy(ctx, func() error {
		return w.writeTx(ctx, table, func(tx *sql.Tx) error {
			return writeCells(ctx, tx, table, rowStart, colStart, normalized)
		})
	})
}

// AppendRow writes row after the last non-empty row atomically.
func (w *SQLiteWorkbook) AppendRow(ctx context.Context, table string, row Row) error {
	normalized, err := normalizeGrid(Grid{row})
	if err != nil {
		return err
	}
	return retryOnBusy(ctx, func() error {
		return w.writeTx(ctx, table, func(tx *sql.Tx) error {
			query, args, err := sq.Select("COALESCE(MAX(row_idx), 0)").
				From("cells").
				Where(sq.Eq{"sheet": table}).
				ToSql()
			if err != nil {
				return fmt.Errorf("build last row query: %w", err)
			}
			var last int
			if err := tx.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
				return fmt.Errorf("last row %s: %w", table, err)
			}
			return writeCells(ctx, tx, table, last+1, 1, normalized)
		})
	})
}

func (w *SQLiteWorkbook) writeTx(ctx context.Context, table string, fn func(*sql.Tx) error) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ensure, args, err := sq.Insert("sheets").
		Columns("name", "created_at").
		Values(table, time.Now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(name) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build ensure table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ensure, args...); err != nil {
		return fmt.Errorf("ensure table %s: %w", table, err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	return nil
}

func writeCells(ctx context.Context, tx *sql.Tx, table string, rowStart, colStart int, grid Grid) error {
	for r, row := range grid {
		for c, cell := range row {
			rowIdx, colIdx := rowStart+r, colStart+c
			var (
				query string
				args  []any
				err   error
			)
			if IsEmpty(cell) {
				query, args, err = sq.Delete("cells").
					Where(sq.Eq{"sheet": table, "row_idx": rowIdx, "col_idx": colIdx}).
					ToSql()
			} else {
				kind, value := encodeCell(cell)
				query, args, err = sq.Insert("cells").
					Columns("sheet", "row_idx", "col_idx", "kind", "value").
					Values(table, rowIdx, colIdx, kind, value).
					Suffix("ON CONFLICT(sheet, row_idx, col_idx) DO UPDATE SET kind = excluded.kind, value = excluded.value").
					ToSql()
			}
			if err != nil {
				return fmt.Errorf("build cell write: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("write %s!R%dC%d: %w", table, rowIdx, colIdx, err)
			}
		}
	}
	return nil
}

func encodeCell(cell Cell) (string, string) {
	switch v := cell.(type) {
	case int64:
		return kindInt, strconv.FormatInt(v, 10)
	case float64:
		return kindFloat, strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return kindBool, strconv.FormatBool(v)
	default:
		return kindString, CellString(v)
	}
}

func decodeCell(kind, value string) (Cell, error) {
	switch kind {
	case kindString:
		return value, nil
	case kindInt:
		return strconv.ParseInt(value, 10, 64)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	default:
		return nil, fmt.Errorf("unknown cell kind %q", kind)
	}
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
