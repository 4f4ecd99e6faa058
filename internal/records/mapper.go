package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"time"

	"contentsbuilder/internal/tabular"
)

// RowToRecord pairs header columns with row cells. Cells past the end of row
// are absent from the result; cells of a structured kind are decoded from
// JSON text, and an empty structured cell decodes to nil.
func RowToRecord(schema Schema, row tabular.Row) (Record, error) {
	var rec Record
	for i, column := range schema.columns {
		if column == "" || schema.index[column] != i {
			continue
		}
		if i >= len(row) {
			break
		}
		cell := row[i]
		kind := schema.Kind(column)
		if kind == KindScalar {
			rec.Set(column, cell)
			continue
		}
		value, err := decodeStructured(kind, cell)
		if err != nil {
			return Record{}, &DecodeError{Column: column, Err: err}
		}
		rec.Set(column, value)
	}
	return rec, nil
}

// RecordToRow lays rec out in header order. Header columns the record lacks
// become empty cells, structured values become canonical JSON text, and
// fields that are not in the header are ignored.
func RecordToRow(schema Schema, rec Record) (tabular.Row, error) {
	row := make(tabular.Row, len(schema.columns))
	for i, column := range schema.columns {
		if column == "" || schema.index[column] != i {
			continue
		}
		value, ok := rec.Get(column)
		if !ok {
			continue
		}
		cell, err := encodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", column, err)
		}
		row[i] = cell
	}
	return row, nil
}

func encodeValue(value any) (tabular.Cell, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case json.Number:
		return v.String(), nil
	case json.RawMessage:
		return canonicalJSON(v)
	}
	if cell, err := tabular.NormalizeCell(value); err == nil {
		return cell, nil
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Pointer:
		return marshalCanonical(value)
	}
	if s, ok := value.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return nil, fmt.Errorf("%w: %T", tabular.ErrUnsupportedCell, value)
}

// marshalCanonical renders value as compact JSON with sorted object keys and
// unescaped HTML characters, so re-encoding a decoded value reproduces the
// original text.
func marshalCanonical(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func canonicalJSON(raw []byte) (string, error) {
	var v any
	if err := decodeJSON(raw, &v); err != nil {
		return "", err
	}
	return marshalCanonical(v)
}

func decodeStructured(kind Kind, cell tabular.Cell) (any, error) {
	if tabular.IsEmpty(cell) {
		return nil, nil
	}
	text, ok := cell.(string)
	if !ok {
		return nil, fmt.Errorf("expected JSON text, got %T", cell)
	}
	switch kind {
	case KindStringList:
		var list []string
		if err := decodeJSON([]byte(text), &list); err != nil {
			return nil, err
		}
		return list, nil
	default:
		var v any
		if err := decodeJSON([]byte(text), &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func decodeJSON(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}
