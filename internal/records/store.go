package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"contentsbuilder/internal/logging"
	"contentsbuilder/internal/tabular"
)

// SchemaPolicy decides what a write does with fields the header lacks.
type SchemaPolicy string

const (
	// PolicyStrict rejects the write with a SchemaMismatchError.
	PolicyStrict SchemaPolicy = "strict"
	// PolicyExtend appends the missing columns to the header first.
	PolicyExtend SchemaPolicy = "extend"
)

// ParseSchemaPolicy converts configuration text to a policy. Empty selects strict.
func ParseSchemaPolicy(value string) (SchemaPolicy, error) {
	switch SchemaPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyExtend:
		return PolicyExtend, nil
	default:
		return "", fmt.Errorf("unknown schema policy %q", value)
	}
}

// Store reads and writes records of a single table.
type Store struct {
	adapter tabular.Adapter
	def     Definition
	policy  SchemaPolicy
	logger  *slog.Logger
	mu      *sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithPolicy sets the schema policy.
func WithPolicy(policy SchemaPolicy) Option {
	return func(s *Store) {
		if policy != "" {
			s.policy = policy
		}
	}
}

// WithLogger attaches a logger for header changes.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns a store for def backed by adapter. Stores created this
// way do not share a lock with any other store; use a Workbook when several
// components touch the same table.
func NewStore(adapter tabular.Adapter, def Definition, opts ...Option) *Store {
	return newStore(adapter, def, &sync.Mutex{}, opts...)
}

func newStore(adapter tabular.Adapter, def Definition, mu *sync.Mutex, opts ...Option) *Store {
	s := &Store{
		adapter: adapter,
		def:     def,
		policy:  PolicyStrict,
		logger:  logging.NewNop(),
		mu:      mu,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.String(logging.FieldTable, def.Name))
	return s
}

// Name returns the table name.
func (s *Store) Name() string { return s.def.Name }

// Definition returns the table definition.
func (s *Store) Definition() Definition { return s.def }

// Policy returns the active schema policy.
func (s *Store) Policy() SchemaPolicy { return s.policy }

// Schema reads the current header, creating the table when missing.
func (s *Store) Schema(ctx context.Context) (Schema, error) {
	if err := s.adapter.EnsureTable(ctx, s.def.Name); err != nil {
		return Schema{}, err
	}
	schema, _, err := s.readSchema(ctx)
	return schema, err
}

// readSchema returns the resolved header and the number of data rows.
func (s *Store) readSchema(ctx context.Context) (Schema, int, error) {
	rows, cols, err := s.adapter.Size(ctx, s.def.Name)
	if err != nil {
		return Schema{}, 0, err
	}
	if rows == 0 || cols == 0 {
		return NewSchema(s.def, nil), 0, nil
	}
	grid, err := s.adapter.ReadRange(ctx, s.def.Name, 1, 1, 1, cols)
	if err != nil {
		return Schema{}, 0, err
	}
	header := make([]string, 0, cols)
	for _, cell := range grid[0] {
		header = append(header, strings.TrimSpace(tabular.CellString(cell)))
	}
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	return NewSchema(s.def, header), rows - 1, nil
}

// GetAll returns every data row in ascending row order. A table with a
// header and no rows, or no header at all, yields an empty slice.
func (s *Store) GetAll(ctx context.Context) ([]Record, error) {
	if err := s.adapter.EnsureTable(ctx, s.def.Name); err != nil {
		return nil, err
	}
	schema, dataRows, err := s.readSchema(ctx)
	if err != nil {
		return nil, err
	}
	return s.readRows(ctx, schema, dataRows)
}

func (s *Store) readRows(ctx context.Context, schema Schema, dataRows int) ([]Record, error) {
	if schema.Empty() || dataRows <= 0 {
		return []Record{}, nil
	}
	grid, err := s.adapter.ReadRange(ctx, s.def.Name, 2, 1, dataRows, schema.Width())
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(grid))
	for i, row := range grid {
		rec, err := RowToRecord(schema, row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.def.Name, i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Add appends rec as a new row. When the table has no header, the header is
// created from rec's field order first.
func (s *Store) Add(ctx context.Context, rec Record) error {
	if rec.Len() == 0 {
		return errors.New("records: cannot add an empty record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adapter.EnsureTable(ctx, s.def.Name); err != nil {
		return err
	}
	schema, _, err := s.readSchema(ctx)
	if err != nil {
		return err
	}
	if schema.Empty() {
		header := rec.Keys()
		if err := s.writeHeader(ctx, header); err != nil {
			return err
		}
		schema = NewSchema(s.def, header)
		s.logger.Debug("table header created", logging.Int("columns", len(header)))
	}
	schema, err = s.reconcile(ctx, schema, rec)
	if err != nil {
		return err
	}
	row, err := RecordToRow(schema, rec)
	if err != nil {
		return err
	}
	return s.adapter.AppendRow(ctx, s.def.Name, row)
}

// Update merges partial into the first row whose primary key equals id and
// rewrites that row in place. No write happens when id is not found.
func (s *Store) Update(ctx context.Context, id string, partial Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adapter.EnsureTable(ctx, s.def.Name); err != nil {
		return err
	}
	schema, dataRows, err := s.readSchema(ctx)
	if err != nil {
		return err
	}
	rows, err := s.readRows(ctx, schema, dataRows)
	if err != nil {
		return err
	}
	index := s.indexOf(rows, id)
	if index < 0 {
		return &NotFoundError{Table: s.def.Name, Key: s.def.PrimaryKey, ID: id}
	}
	schema, err = s.reconcile(ctx, schema, partial)
	if err != nil {
		return err
	}
	merged := rows[index].Merge(partial)
	row, err := RecordToRow(schema, merged)
	if err != nil {
		return err
	}
	return s.adapter.WriteRange(ctx, s.def.Name, index+2, 1, tabular.Grid{row})
}

// Find returns the first record whose primary key equals id.
func (s *Store) Find(ctx context.Context, id string) (Record, error) {
	rows, err := s.GetAll(ctx)
	if err != nil {
		return Record{}, err
	}
	index := s.indexOf(rows, id)
	if index < 0 {
		return Record{}, &NotFoundError{Table: s.def.Name, Key: s.def.PrimaryKey, ID: id}
	}
	return rows[index], nil
}

// Count returns the number of data rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.adapter.EnsureTable(ctx, s.def.Name); err != nil {
		return 0, err
	}
	schema, dataRows, err := s.readSchema(ctx)
	if err != nil {
		return 0, err
	}
	if schema.Empty() {
		return 0, nil
	}
	return dataRows, nil
}

func (s *Store) indexOf(rows []Record, id string) int {
	for i, rec := range rows {
		if rec.String(s.def.PrimaryKey) == id {
			return i
		}
	}
	return -1
}

// reconcile applies the schema policy to fields of rec that are not in the header.
func (s *Store) reconcile(ctx context.Context, schema Schema, rec Record) (Schema, error) {
	unknown := schema.Unknown(rec)
	if len(unknown) == 0 {
		return schema, nil
	}
	if s.policy != PolicyExtend {
		return schema, &SchemaMismatchError{Table: s.def.Name, Fields: unknown}
	}
	extended := schema.Extend(unknown...)
	if err := s.writeHeader(ctx, extended.Columns()); err != nil {
		return schema, err
	}
	s.logger.Info("table header extended",
		logging.String("added", strings.Join(unknown, ",")),
		logging.Int("columns", extended.Width()),
	)
	return extended, nil
}

func (s *Store) writeHeader(ctx context.Context, header []string) error {
	row := make(tabular.Row, len(header))
	for i, name := range header {
		row[i] = name
	}
	return s.adapter.WriteRange(ctx, s.def.Name, 1, 1, tabular.Grid{row})
}
