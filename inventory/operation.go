/*
operation.go - Lifecycle rules for Receipt and Delivery documents

PURPOSE:
  One state machine governs both kinds of operation; the kind only decides
  the Move sign and which endpoint (source vs destination) the document
  carries. This file holds the pure rules - persistence lives behind
  OperationStore, and side effects in coordinator.go.

LIFECYCLE:
  Draft → Waiting ⇄ Ready → Done, with Cancelled reachable from any
  non-Done state. Only the Ready → Done transition (Validate) touches the
  ledger; everything else is pure status bookkeeping.

SUFFICIENCY:
  Deliveries draw stock, so "To DO", "Recheck Stock" and "Validate" test
  every line against what the warehouse-side endpoint currently holds.
  Receipts bring stock in from outside and are always sufficient.
*/
package inventory

import (
	"context"
	"time"
)

// =============================================================================
// OPERATION STORE
// =============================================================================

// OperationFilter narrows listing. Zero values mean "no filter".
type OperationFilter struct {
	Kind   OperationKind
	Status OperationStatus
}

// OperationStore persists operation documents. Unlike Moves, operations are
// mutable records: status and Draft-stage edits are saved in place.
type OperationStore interface {
	Save(ctx context.Context, op *Operation) error
	Get(ctx context.Context, id OperationID) (*Operation, error)
	List(ctx context.Context, f OperationFilter) ([]*Operation, error)
}

// =============================================================================
// PURE LIFECYCLE RULES
// =============================================================================

// canTransition reports whether the named action is permitted from the
// operation's current status. Validate-from-Waiting is deliberately absent:
// it is not an error but a refusal, handled in the coordinator.
func canTransition(op *Operation, action string) error {
	ok := false
	switch action {
	case "to-do":
		ok = op.Status == StatusDraft
	case "recheck":
		ok = op.Status == StatusWaiting
	case "validate":
		ok = op.Status == StatusReady
	case "cancel":
		ok = op.Status != StatusDone && op.Status != StatusCancelled
	case "update":
		ok = op.Status == StatusDraft
	}
	if !ok {
		return &InvalidTransitionError{Operation: op.ID, From: op.Status, Action: action}
	}
	return nil
}

// validateDraft checks the fields a Draft must carry before it can exist.
// Rejected before any lock is taken.
func validateDraft(op *Operation) error {
	if op.Kind != KindReceipt && op.Kind != KindDelivery {
		return inputErr("operation kind must be Receipt or Delivery")
	}
	if op.Warehouse == "" && op.Location == "" {
		return inputErr("warehouse or location endpoint required")
	}
	if len(op.Lines) == 0 {
		return inputErr("at least one line required")
	}
	for _, ln := range op.Lines {
		if ln.Product == "" {
			return inputErr("line product required")
		}
		if ln.Quantity <= 0 {
			return inputErr("line quantity must be positive")
		}
	}
	return nil
}

type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Unwrap() error { return ErrValidationInput }

func inputErr(msg string) error { return &inputError{msg: msg} }

// =============================================================================
// SUFFICIENCY CHECK
// =============================================================================

// checkSufficiency tests every line against current stock at the
// operation's warehouse-side endpoint. Receipts never fall short. The
// returned shortfalls are empty when the operation may proceed.
func checkSufficiency(ctx context.Context, view *StockView, op *Operation) ([]Shortfall, error) {
	if op.Kind == KindReceipt {
		return nil, nil
	}

	var shorts []Shortfall
	for _, ln := range op.Lines {
		var avail int64
		if op.Warehouse != "" {
			a, err := view.Available(ctx, ln.Product, op.Warehouse)
			if err != nil {
				return nil, err
			}
			avail = a
		} else {
			avail = view.CurrentQuantity(ln.Product, op.Location)
		}
		if avail < ln.Quantity {
			shorts = append(shorts, Shortfall{
				Product:   ln.Product,
				Requested: ln.Quantity,
				Available: avail,
			})
		}
	}
	return shorts, nil
}

// lineMoves builds the ledger entries a validation commits: one Move per
// line, signed by kind, all sharing the operation's reference.
func lineMoves(op *Operation, endpoint LocationID, at time.Time) []Move {
	moves := make([]Move, 0, len(op.Lines))
	for _, ln := range op.Lines {
		m := Move{
			Date:      at,
			Reference: op.Reference,
			Product:   ln.Product,
			CreatedBy: op.ValidatedBy,
		}
		switch op.Kind {
		case KindReceipt:
			m.Type = MoveReceipt
			m.To = endpoint
			m.Quantity = ln.Quantity
		case KindDelivery:
			m.Type = MoveDelivery
			m.From = endpoint
			m.Quantity = -ln.Quantity
		}
		moves = append(moves, m)
	}
	return moves
}
