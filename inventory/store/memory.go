// Package store provides in-memory implementations of the engine's
// persistence and collaborator interfaces, used by tests and dev mode.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// MEMORY MOVE STORE - Append-only
// =============================================================================

type MemoryMoves struct {
	mu    sync.RWMutex
	moves []inventory.Move
	seq   int64
}

func NewMemoryMoves() *MemoryMoves {
	return &MemoryMoves{}
}

// Append adds a single Move. Append-only.
func (m *MemoryMoves) Append(_ context.Context, mv inventory.Move) (inventory.Move, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(mv), nil
}

// AppendBatch adds multiple Moves atomically.
func (m *MemoryMoves) AppendBatch(_ context.Context, mvs []inventory.Move) ([]inventory.Move, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]inventory.Move, len(mvs))
	for i, mv := range mvs {
		stored[i] = m.appendLocked(mv)
	}
	return stored, nil
}

func (m *MemoryMoves) appendLocked(mv inventory.Move) inventory.Move {
	m.seq++
	mv.Seq = m.seq
	m.moves = append(m.moves, mv)
	return mv
}

func (m *MemoryMoves) Moves(_ context.Context, f inventory.MoveFilter) ([]inventory.Move, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []inventory.Move
	for _, mv := range m.moves {
		if matches(mv, f) {
			result = append(result, mv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

func matches(mv inventory.Move, f inventory.MoveFilter) bool {
	if f.Product != "" && mv.Product != f.Product {
		return false
	}
	if f.Location != "" && mv.From != f.Location && mv.To != f.Location {
		return false
	}
	if f.Type != "" && mv.Type != f.Type {
		return false
	}
	if f.Reference != "" && mv.Reference != f.Reference {
		return false
	}
	if f.DateFrom != nil && mv.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && mv.Date.After(*f.DateTo) {
		return false
	}
	return true
}

// =============================================================================
// MEMORY OPERATION STORE
// =============================================================================

type MemoryOperations struct {
	mu  sync.RWMutex
	ops map[inventory.OperationID]inventory.Operation
}

func NewMemoryOperations() *MemoryOperations {
	return &MemoryOperations{ops: make(map[inventory.OperationID]inventory.Operation)}
}

func (m *MemoryOperations) Save(_ context.Context, op *inventory.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy lines so later caller edits don't leak into the store.
	saved := *op
	saved.Lines = append([]inventory.Line(nil), op.Lines...)
	m.ops[op.ID] = saved
	return nil
}

func (m *MemoryOperations) Get(_ context.Context, id inventory.OperationID) (*inventory.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	op, ok := m.ops[id]
	if !ok {
		return nil, fmt.Errorf("operation %s: %w", id, inventory.ErrNotFound)
	}
	out := op
	out.Lines = append([]inventory.Line(nil), op.Lines...)
	return &out, nil
}

func (m *MemoryOperations) List(_ context.Context, f inventory.OperationFilter) ([]*inventory.Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*inventory.Operation
	for _, op := range m.ops {
		if f.Kind != "" && op.Kind != f.Kind {
			continue
		}
		if f.Status != "" && op.Status != f.Status {
			continue
		}
		out := op
		out.Lines = append([]inventory.Line(nil), op.Lines...)
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// =============================================================================
// MEMORY CATALOG / TOPOLOGY - Collaborator stand-ins
// =============================================================================

type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[inventory.ProductID]inventory.Product
}

func NewMemoryCatalog(products ...inventory.Product) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[inventory.ProductID]inventory.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *MemoryCatalog) Put(p inventory.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *MemoryCatalog) Product(_ context.Context, id inventory.ProductID) (*inventory.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, inventory.ErrNotFound)
	}
	return &p, nil
}

func (c *MemoryCatalog) Products(_ context.Context) ([]inventory.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]inventory.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type MemoryTopology struct {
	mu         sync.RWMutex
	warehouses map[inventory.WarehouseID]inventory.Warehouse
	locations  map[inventory.LocationID]inventory.Location
}

func NewMemoryTopology(warehouses []inventory.Warehouse, locations []inventory.Location) *MemoryTopology {
	t := &MemoryTopology{
		warehouses: make(map[inventory.WarehouseID]inventory.Warehouse),
		locations:  make(map[inventory.LocationID]inventory.Location),
	}
	for _, w := range warehouses {
		t.warehouses[w.ID] = w
	}
	for _, l := range locations {
		t.locations[l.ID] = l
	}
	return t
}

func (t *MemoryTopology) Location(_ context.Context, id inventory.LocationID) (*inventory.Location, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	l, ok := t.locations[id]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", id, inventory.ErrNotFound)
	}
	return &l, nil
}

func (t *MemoryTopology) Locations(_ context.Context) ([]inventory.Location, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]inventory.Location, 0, len(t.locations))
	for _, l := range t.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *MemoryTopology) Warehouses(_ context.Context) ([]inventory.Warehouse, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]inventory.Warehouse, 0, len(t.warehouses))
	for _, w := range t.warehouses {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *MemoryTopology) LocationsIn(_ context.Context, id inventory.WarehouseID) ([]inventory.Location, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []inventory.Location
	for _, l := range t.locations {
		if l.Warehouse == id {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *MemoryTopology) DefaultLocation(_ context.Context, id inventory.WarehouseID) (*inventory.Location, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	// Fallback is the name-ordered first location, matching the sqlite
	// store's ORDER BY, so endpoint resolution is stable across runs.
	var fallback *inventory.Location
	for _, l := range t.locations {
		if l.Warehouse != id {
			continue
		}
		if l.IsDefault {
			loc := l
			return &loc, nil
		}
		if fallback == nil || l.Name < fallback.Name {
			loc := l
			fallback = &loc
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("warehouse %s has no locations: %w", id, inventory.ErrNotFound)
}

// =============================================================================
// MEMORY REFERENCE SOURCE
// =============================================================================

type MemoryRefs struct {
	mu   sync.Mutex
	next map[string]int
}

func NewMemoryRefs() *MemoryRefs {
	return &MemoryRefs{next: make(map[string]int)}
}

func (r *MemoryRefs) Next(_ context.Context, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next[prefix]++
	return fmt.Sprintf("%s/%05d", prefix, r.next[prefix]), nil
}
