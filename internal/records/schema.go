package records

// Kind declares how a column's cells are encoded.
type Kind int

const (
	// KindScalar cells hold text, numbers, or booleans as-is.
	KindScalar Kind = iota
	// KindStringList cells hold a JSON array of strings.
	KindStringList
	// KindJSON cells hold an arbitrary JSON document.
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindStringList:
		return "string_list"
	case KindJSON:
		return "json"
	default:
		return "scalar"
	}
}

// Definition names a table, its primary-key column, and the columns whose
// cells carry structured data. Columns absent from Kinds are scalar.
type Definition struct {
	Name       string
	PrimaryKey string
	Kinds      map[string]Kind
}

// Kind returns the declared kind for column.
func (d Definition) Kind(column string) Kind {
	if d.Kinds == nil {
		return KindScalar
	}
	return d.Kinds[column]
}

// Schema is a table header resolved against a Definition.
type Schema struct {
	def     Definition
	columns []string
	index   map[string]int
}

// NewSchema resolves header against def. Blank header cells keep their
// position but map to no field.
func NewSchema(def Definition, header []string) Schema {
	s := Schema{def: def, columns: make([]string, len(header)), index: make(map[string]int, len(header))}
	copy(s.columns, header)
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, dup := s.index[name]; dup {
			continue
		}
		s.index[name] = i
	}
	return s
}

// Columns returns the header names in column order.
func (s Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Width is the number of header columns.
func (s Schema) Width() int { return len(s.columns) }

// Empty reports whether the table has no header yet.
func (s Schema) Empty() bool { return len(s.columns) == 0 }

// Has reports whether column is in the header.
func (s Schema) Has(column string) bool {
	_, ok := s.index[column]
	return ok
}

// Kind returns the declared kind for column.
func (s Schema) Kind(column string) Kind { return s.def.Kind(column) }

// Unknown returns the fields of rec that have no header column, in record order.
func (s Schema) Unknown(rec Record) []string {
	var missing []string
	for _, key := range rec.keys {
		if !s.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// Extend returns a schema with columns appended to the header.
func (s Schema) Extend(columns ...string) Schema {
	return NewSchema(s.def, append(s.Columns(), columns...))
}
