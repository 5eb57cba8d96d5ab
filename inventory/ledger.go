/*
ledger.go - Append-only stock ledger

PURPOSE:
  The StockLedger is the immutable source of truth for all stock changes.
  Every receipt, delivery, transfer and adjustment is recorded here as a
  Move. Current stock is always derivable by replaying Moves - the
  materialized StockView is a cache, never the system of record.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, Moves cannot be modified
  3. ORDERED: Moves carry a monotonic sequence so replay is deterministic
  4. SYNCHRONOUS VIEW: a successful append has already been applied to the
     StockView by the time Append returns - callers observing the append
     are guaranteed the view reflects it

CORRECTIONS:
  A mistake is never edited away. A corrective Adjustment Move is appended
  and both entries remain in history.

SEE ALSO:
  - view.go: Materialized current stock
  - store/sqlite: Persistent MoveStore
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MOVE STORE - Persistence interface (append-only)
// =============================================================================

// MoveFilter narrows ledger queries. Zero values mean "no filter".
type MoveFilter struct {
	Product   ProductID
	Location  LocationID // matches either endpoint
	Type      MoveType
	Reference string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// MoveStore persists Moves. APPEND-ONLY: no Update, no Delete. The store
// assigns the monotonic Seq and returns the stored Move.
type MoveStore interface {
	// Append persists one Move.
	Append(ctx context.Context, m Move) (Move, error)

	// AppendBatch persists several Moves atomically: all or none.
	AppendBatch(ctx context.Context, ms []Move) ([]Move, error)

	// Moves returns matching entries ordered by date ascending, then by
	// insertion order.
	Moves(ctx context.Context, f MoveFilter) ([]Move, error)
}

// =============================================================================
// STOCK LEDGER
// =============================================================================

// StockLedger validates and appends Moves, publishing each resulting delta
// to the StockView before returning.
type StockLedger struct {
	Store MoveStore
	View  *StockView
}

func NewStockLedger(store MoveStore, view *StockView) *StockLedger {
	return &StockLedger{Store: store, View: view}
}

// Append validates the Move, persists it and updates the view.
// Returns the assigned MoveID.
func (l *StockLedger) Append(ctx context.Context, m Move) (MoveID, error) {
	prepared, err := l.prepare(m)
	if err != nil {
		return "", err
	}

	stored, err := l.Store.Append(ctx, prepared)
	if err != nil {
		return "", fmt.Errorf("append move: %w", err)
	}

	l.View.Apply(stored.Deltas()...)
	return stored.ID, nil
}

// AppendBatch validates and persists several Moves atomically, then updates
// the view with all of their deltas. Used by Validate, where one operation
// produces one Move per line and partial application is never acceptable.
func (l *StockLedger) AppendBatch(ctx context.Context, ms []Move) ([]MoveID, error) {
	prepared := make([]Move, len(ms))
	for i, m := range ms {
		p, err := l.prepare(m)
		if err != nil {
			return nil, err
		}
		prepared[i] = p
	}

	stored, err := l.Store.AppendBatch(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("append move batch: %w", err)
	}

	ids := make([]MoveID, len(stored))
	for i, m := range stored {
		l.View.Apply(m.Deltas()...)
		ids[i] = m.ID
	}
	return ids, nil
}

// Moves returns ledger entries matching the filter, date ascending.
func (l *StockLedger) Moves(ctx context.Context, f MoveFilter) ([]Move, error) {
	return l.Store.Moves(ctx, f)
}

// prepare fills identity and timestamps and enforces the per-type shape.
func (l *StockLedger) prepare(m Move) (Move, error) {
	if err := validateMove(m); err != nil {
		return Move{}, err
	}
	if m.ID == "" {
		m.ID = MoveID(uuid.NewString())
	}
	now := time.Now().UTC()
	if m.Date.IsZero() {
		m.Date = now
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	return m, nil
}

func validateMove(m Move) error {
	if m.Product == "" {
		return &InvalidMoveError{Type: m.Type, Reason: "product required"}
	}
	if m.Quantity == 0 {
		return &InvalidMoveError{Type: m.Type, Reason: "quantity must be non-zero"}
	}

	switch m.Type {
	case MoveReceipt:
		if m.To == "" {
			return &InvalidMoveError{Type: m.Type, Reason: "destination location required"}
		}
		if m.Quantity < 0 {
			return &InvalidMoveError{Type: m.Type, Reason: "quantity must be positive"}
		}
	case MoveDelivery:
		if m.From == "" {
			return &InvalidMoveError{Type: m.Type, Reason: "source location required"}
		}
		if m.Quantity > 0 {
			return &InvalidMoveError{Type: m.Type, Reason: "quantity must be negative"}
		}
	case MoveInternal:
		if m.From == "" || m.To == "" {
			return &InvalidMoveError{Type: m.Type, Reason: "both locations required"}
		}
		if m.From == m.To {
			return &InvalidMoveError{Type: m.Type, Reason: "locations must differ"}
		}
		if m.Quantity < 0 {
			return &InvalidMoveError{Type: m.Type, Reason: "quantity must be positive"}
		}
	case MoveAdjustment:
		if m.To == "" {
			return &InvalidMoveError{Type: m.Type, Reason: "location required"}
		}
	default:
		return &InvalidMoveError{Type: m.Type, Reason: "unknown move type"}
	}
	return nil
}
