package records

import (
	"log/slog"
	"sync"

	"contentsbuilder/internal/tabular"
)

// Workbook hands out stores over one adapter. Stores for the same table
// name share a mutex.
type Workbook struct {
	adapter tabular.Adapter
	policy  SchemaPolicy
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWorkbook wraps adapter. An empty policy selects strict.
func NewWorkbook(adapter tabular.Adapter, policy SchemaPolicy, logger *slog.Logger) *Workbook {
	if policy == "" {
		policy = PolicyStrict
	}
	return &Workbook{
		adapter: adapter,
		policy:  policy,
		logger:  logger,
		locks:   map[string]*sync.Mutex{},
	}
}

// Adapter returns the underlying table adapter.
func (w *Workbook) Adapter() tabular.Adapter { return w.adapter }

// Table returns a store for def.
func (w *Workbook) Table(def Definition) *Store {
	w.mu.Lock()
	lock, ok := w.locks[def.Name]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[def.Name] = lock
	}
	w.mu.Unlock()
	return newStore(w.adapter, def, lock, WithPolicy(w.policy), WithLogger(w.logger))
}
