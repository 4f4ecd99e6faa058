package records

import "context"

// Codec converts between a domain value and its record form.
type Codec[T any] interface {
	Encode(T) Record
	Decode(Record) (T, error)
}

// Typed is a Store that speaks in domain values.
type Typed[T any] struct {
	store *Store
	codec Codec[T]
}

// NewTyped binds codec to store.
func NewTyped[T any](store *Store, codec Codec[T]) *Typed[T] {
	return &Typed[T]{store: store, codec: codec}
}

// Store returns the untyped store.
func (t *Typed[T]) Store() *Store { return t.store }

// All decodes every row.
func (t *Typed[T]) All(ctx context.Context) ([]T, error) {
	rows, err := t.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for i, rec := range rows {
		value, err := t.codec.Decode(rec)
		if err != nil {
			return nil, t.rowError(i, err)
		}
		out = append(out, value)
	}
	return out, nil
}

// Decodable decodes every row it can. Rows the codec rejects are returned
// as RowErrors instead of failing the whole read.
func (t *Typed[T]) Decodable(ctx context.Context) ([]T, []*RowError, error) {
	rows, err := t.store.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	out := make([]T, 0, len(rows))
	var skipped []*RowError
	for i, rec := range rows {
		value, err := t.codec.Decode(rec)
		if err != nil {
			skipped = append(skipped, t.rowError(i, err))
			continue
		}
		out = append(out, value)
	}
	return out, skipped, nil
}

func (t *Typed[T]) rowError(index int, err error) *RowError {
	return &RowError{Table: t.store.Name(), Row: index + 2, Err: err}
}

// Add encodes value and appends it.
func (t *Typed[T]) Add(ctx context.Context, value T) error {
	return t.store.Add(ctx, t.codec.Encode(value))
}

// Update merges partial into the row keyed by id.
func (t *Typed[T]) Update(ctx context.Context, id string, partial Record) error {
	return t.store.Update(ctx, id, partial)
}

// Find decodes the row keyed by id.
func (t *Typed[T]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	rec, err := t.store.Find(ctx, id)
	if err != nil {
		return zero, err
	}
	return t.codec.Decode(rec)
}
