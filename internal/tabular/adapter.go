package tabular

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Cell is a single scalar value held by a table: nil, string, float64,
// int64, or bool.
type Cell = any

// Row is a horizontal run of cells.
type Row = []Cell

// Grid is a rectangular block of rows.
type Grid = [][]Cell

// ErrInvalidRange reports a range that starts before row/column 1 or has a
// negative extent.
var ErrInvalidRange = errors.New("invalid range")

// ErrUnsupportedCell reports a value that is not a scalar cell.
var ErrUnsupportedCell = errors.New("unsupported cell value")

// Adapter is the capability the record store depends on. Row and column
// indices are 1-based.
type Adapter interface {
	// EnsureTable creates the named table when missing.
	EnsureTable(ctx context.Context, table string) error
	// Size returns the last non-empty row and column of the table, or 0, 0
	// for an empty table.
	Size(ctx context.Context, table string) (rows, cols int, err error)
	// ReadRange returns rowCount rows of exactly colCount cells each,
	// padding absent cells with nil.
	ReadRange(ctx context.Context, table string, rowStart, colStart, rowCount, colCount int) (Grid, error)
	// WriteRange overwrites cells starting at rowStart/colStart.
	WriteRange(ctx context.Context, table string, rowStart, colStart int, grid Grid) error
	// AppendRow writes row after the last non-empty row.
	AppendRow(ctx context.Context, table string, row Row) error
}

func validateRange(rowStart, colStart, rowCount, colCount int) error {
	if rowStart < 1 || colStart < 1 || rowCount < 0 || colCount < 0 {
		return fmt.Errorf("%w: start=(%d,%d) extent=(%d,%d)", ErrInvalidRange, rowStart, colStart, rowCount, colCount)
	}
	return nil
}

// NormalizeCell coerces Go scalar types into the canonical cell kinds.
// Integers widen to int64, float32 to float64; nil and the empty string are
// both treated as empty by adapters.
func NormalizeCell(value any) (Cell, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case bool:
		return v, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedCell, value)
	}
}

// IsEmpty reports whether a cell holds no value.
func IsEmpty(cell Cell) bool {
	switch v := cell.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

// CellString renders a cell the way a spreadsheet would display it.
func CellString(cell Cell) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
