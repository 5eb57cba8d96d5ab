/*
reconcile.go - Immediate-effect transfers and adjustments

PURPOSE:
  Internal Transfers and Adjustments skip the Draft/Ready staging: they
  check, commit and return in one call. The check-then-append runs inside
  the same (product, location) exclusive sections used by Validate, so two
  concurrent transfers cannot both pass a stale sufficiency check and
  jointly overdraw a location.

ADJUSTMENT SEMANTICS:
  Set  - replaces the current quantity: emits one corrective Move equal to
         the delta; a zero delta is suppressed (no Move, empty id).
  Add  - emits a Move of exactly the given quantity; negative is allowed
         and may drive stock negative. That is accepted policy, not an
         error: Adjustment IS the explicit correction path.
*/
package inventory

import (
	"context"
	"fmt"
)

// Reconciler executes transfers and adjustments directly against the
// ledger. It shares its lock instance with the Coordinator.
type Reconciler struct {
	Ledger  *StockLedger
	View    *StockView
	Topo    Topology
	Catalog Catalog
	Refs    RefSource
	Locks   *KeyedLocks
}

// Transfer moves stock between two locations. Fails with
// InsufficientStockError when the source holds less than requested.
func (r *Reconciler) Transfer(ctx context.Context, req TransferRequest) (MoveID, error) {
	if req.Quantity <= 0 {
		return "", inputErr("transfer quantity must be positive")
	}
	if req.From == req.To {
		return "", inputErr("transfer locations must differ")
	}
	if _, err := r.Catalog.Product(ctx, req.Product); err != nil {
		return "", err
	}
	if _, err := r.Topo.Location(ctx, req.From); err != nil {
		return "", err
	}
	if _, err := r.Topo.Location(ctx, req.To); err != nil {
		return "", err
	}

	release, err := r.Locks.Acquire(ctx,
		StockKey(req.Product, req.From),
		StockKey(req.Product, req.To),
	)
	if err != nil {
		return "", err
	}
	defer release()

	available := r.View.CurrentQuantity(req.Product, req.From)
	if available < req.Quantity {
		return "", &InsufficientStockError{Shortfalls: []Shortfall{{
			Product:   req.Product,
			Requested: req.Quantity,
			Available: available,
		}}}
	}

	ref, err := r.Refs.Next(ctx, RefInternal)
	if err != nil {
		return "", fmt.Errorf("allocate reference: %w", err)
	}

	return r.Ledger.Append(ctx, Move{
		Type:      MoveInternal,
		Reference: ref,
		Product:   req.Product,
		From:      req.From,
		To:        req.To,
		Quantity:  req.Quantity,
		CreatedBy: req.Actor,
	})
}

// Adjust corrects stock at one location. Returns an empty MoveID when a
// Set lands exactly on the current quantity (idempotent, nothing to emit).
func (r *Reconciler) Adjust(ctx context.Context, req AdjustmentRequest) (MoveID, error) {
	if req.Mode != AdjustSet && req.Mode != AdjustAdd {
		return "", inputErr("adjustment mode must be Set or Add")
	}
	if req.Mode == AdjustAdd && req.Quantity == 0 {
		return "", inputErr("adjustment quantity must be non-zero")
	}
	if req.Mode == AdjustSet && req.Quantity < 0 {
		return "", inputErr("set target must not be negative")
	}
	if _, err := r.Catalog.Product(ctx, req.Product); err != nil {
		return "", err
	}
	if _, err := r.Topo.Location(ctx, req.Location); err != nil {
		return "", err
	}

	release, err := r.Locks.Acquire(ctx, StockKey(req.Product, req.Location))
	if err != nil {
		return "", err
	}
	defer release()

	delta := req.Quantity
	if req.Mode == AdjustSet {
		delta = req.Quantity - r.View.CurrentQuantity(req.Product, req.Location)
		if delta == 0 {
			return "", nil
		}
	}

	ref, err := r.Refs.Next(ctx, RefAdjustment)
	if err != nil {
		return "", fmt.Errorf("allocate reference: %w", err)
	}

	return r.Ledger.Append(ctx, Move{
		Type:      MoveAdjustment,
		Reference: ref,
		Product:   req.Product,
		To:        req.Location,
		Quantity:  delta,
		CreatedBy: req.Actor,
	})
}
