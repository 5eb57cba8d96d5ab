/*
view.go - Materialized current stock

PURPOSE:
  StockView answers "how much of product P is at location L right now?"
  without replaying the ledger. It is an index keyed by (product, location),
  updated incrementally by ledger appends and rebuildable from full replay.

KEY PROPERTY:
  For any sequence of Moves, the incremental path and a full replay must
  produce identical totals. A disagreement is a ConsistencyViolation: the
  entry is rebuilt from replay rather than trusted, and the violation is
  reported - never silently swallowed.

NEGATIVE QUANTITIES:
  The view does not enforce non-negativity. A ledger with more withdrawals
  than deposits goes negative here; the availability checks at the
  operation and transfer layers are the actual guard.

SEE ALSO:
  - ledger.go: The only writer
  - coordinator.go, reconcile.go: Availability-gated consumers
*/
package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

type stockKey struct {
	Product  ProductID
	Location LocationID
}

// StockView is the materialized quantity per (product, location).
// StockLedger is the only permitted writer.
type StockView struct {
	mu   sync.RWMutex
	qty  map[stockKey]int64
	topo Topology
	log  zerolog.Logger
}

func NewStockView(topo Topology, log zerolog.Logger) *StockView {
	return &StockView{
		qty:  make(map[stockKey]int64),
		topo: topo,
		log:  log,
	}
}

// Apply folds deltas into the view. Called synchronously by the ledger on
// every successful append.
func (v *StockView) Apply(deltas ...StockDelta) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, d := range deltas {
		k := stockKey{Product: d.Product, Location: d.Location}
		v.qty[k] += d.Quantity
		if v.qty[k] == 0 {
			delete(v.qty, k)
		}
	}
}

// CurrentQuantity returns the quantity of a product at a single location.
func (v *StockView) CurrentQuantity(product ProductID, location LocationID) int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.qty[stockKey{Product: product, Location: location}]
}

// Available sums CurrentQuantity over every location in the warehouse.
func (v *StockView) Available(ctx context.Context, product ProductID, warehouse WarehouseID) (int64, error) {
	locs, err := v.topo.LocationsIn(ctx, warehouse)
	if err != nil {
		return 0, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	var total int64
	for _, loc := range locs {
		total += v.qty[stockKey{Product: product, Location: loc.ID}]
	}
	return total, nil
}

// Rows returns every non-zero entry, sorted for stable output.
func (v *StockView) Rows() []Stock {
	v.mu.RLock()
	defer v.mu.RUnlock()

	rows := make([]Stock, 0, len(v.qty))
	for k, q := range v.qty {
		rows = append(rows, Stock{Product: k.Product, Location: k.Location, Quantity: q})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Product != rows[j].Product {
			return rows[i].Product < rows[j].Product
		}
		return rows[i].Location < rows[j].Location
	})
	return rows
}

// Rebuild replaces the whole view with a full ledger replay.
func (v *StockView) Rebuild(ctx context.Context, store MoveStore) error {
	moves, err := store.Moves(ctx, MoveFilter{})
	if err != nil {
		return err
	}

	fresh := make(map[stockKey]int64)
	for _, m := range moves {
		for _, d := range m.Deltas() {
			k := stockKey{Product: d.Product, Location: d.Location}
			fresh[k] += d.Quantity
			if fresh[k] == 0 {
				delete(fresh, k)
			}
		}
	}

	v.mu.Lock()
	v.qty = fresh
	v.mu.Unlock()
	return nil
}

// Verify replays the ledger for one (product, location) entry and compares
// it against the materialized value. On disagreement the entry is healed
// from the replay total and a ConsistencyViolationError returned for
// operator attention.
func (v *StockView) Verify(ctx context.Context, store MoveStore, product ProductID, location LocationID) error {
	moves, err := store.Moves(ctx, MoveFilter{Product: product, Location: location})
	if err != nil {
		return err
	}

	var replay int64
	for _, m := range moves {
		for _, d := range m.Deltas() {
			if d.Product == product && d.Location == location {
				replay += d.Quantity
			}
		}
	}

	k := stockKey{Product: product, Location: location}

	v.mu.Lock()
	current := v.qty[k]
	if current == replay {
		v.mu.Unlock()
		return nil
	}
	if replay == 0 {
		delete(v.qty, k)
	} else {
		v.qty[k] = replay
	}
	v.mu.Unlock()

	v.log.Error().
		Str("product", string(product)).
		Str("location", string(location)).
		Int64("view", current).
		Int64("replay", replay).
		Msg("stock view healed from ledger replay")

	return &ConsistencyViolationError{
		Product:  product,
		Location: location,
		View:     current,
		Replay:   replay,
	}
}
