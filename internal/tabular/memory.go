package tabular

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Adapter. The zero value is not usable; call
// NewMemory.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memoryTable
}

type memoryTable struct {
	rows [][]Cell
}

var _ Adapter = (*Memory)(nil)

// NewMemory builds an empty in-memory workbook.
func NewMemory() *Memory {
	return &Memory{tables: map[string]*memoryTable{}}
}

// EnsureTable creates the named table when missing.
func (m *Memory) EnsureTable(_ context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tableLocked(table)
	return nil
}

// Tables lists the table names currently present.
func (m *Memory) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	return names
}

// Size returns the last non-empty row and column.
func (m *Memory) Size(_ context.Context, table string) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[table]
	if !ok {
		return 0, 0, nil
	}
	return t.size()
}

// ReadRange returns a padded copy of the requested block.
func (m *Memory) ReadRange(_ context.Context, table string, rowStart, colStart, rowCount, colCount int) (Grid, error) {
	if err := validateRange(rowStart, colStart, rowCount, colCount); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	grid := make(Grid, rowCount)
	t := m.tables[table]
	for r := 0; r < rowCount; r++ {
		out := make(Row, colCount)
		if t != nil {
			ri := rowStart - 1 + r
			if ri < len(t.rows) {
				src := t.rows[ri]
				for c := 0; c < colCount; c++ {
					ci := colStart - 1 + c
					if ci < len(src) {
						out[c] = src[ci]
					}
				}
			}
		}
		grid[r] = out
	}
	return grid, nil
}

// WriteRange overwrites cells, growing the table as necessary.
func (m *Memory) WriteRange(_ context.Context, table string, rowStart, colStart int, grid Grid) error {
	if err := validateRange(rowStart, colStart, len(grid), 0); err != nil {
		return err
	}
	normalized, err := normalizeGrid(grid)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tableLocked(table)
	for r, row := range normalized {
		t.write(rowStart-1+r, colStart-1, row)
	}
	return nil
}

// AppendRow writes row after the last non-empty row.
func (m *Memory) AppendRow(_ context.Context, table string, row Row) error {
	normalized, err := normalizeGrid(Grid{row})
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tableLocked(table)
	last, _, err := t.size()
	if err != nil {
		return err
	}
	t.write(last, 0, normalized[0])
	return nil
}

func (m *Memory) tableLocked(name string) *memoryTable {
	t, ok := m.tables[name]
	if !ok {
		t = &memoryTable{}
		m.tables[name] = t
	}
	return t
}

func (t *memoryTable) write(rowIdx, colIdx int, row Row) {
	for len(t.rows) <= rowIdx {
		t.rows = append(t.rows, nil)
	}
	dst := t.rows[rowIdx]
	for len(dst) < colIdx+len(row) {
		dst = append(dst, nil)
	}
	copy(dst[colIdx:], row)
	t.rows[rowIdx] = dst
}

func (t *memoryTable) size() (int, int, error) {
	lastRow, lastCol := 0, 0
	for r, row := range t.rows {
		for c, cell := range row {
			if IsEmpty(cell) {
				continue
			}
			if r+1 > lastRow {
				lastRow = r + 1
			}
			if c+1 > lastCol {
				lastCol = c + 1
			}
		}
	}
	return lastRow, lastCol, nil
}

func normalizeGrid(grid Grid) (Grid, error) {
	out := make(Grid, len(grid))
	for r, row := range grid {
		cells := make(Row, len(row))
		for c, value := range row {
			cell, err := NormalizeCell(value)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", r+1, c+1, err)
			}
			cells[c] = cell
		}
		out[r] = cells
	}
	return out, nil
}
