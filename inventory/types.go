/*
Package inventory provides the stock ledger and operation lifecycle engine.

PURPOSE:
  This package contains the core types and algorithms for tracking physical
  stock per product per storage location. All stock changes flow through an
  append-only ledger of Moves; current stock is a derived view, never an
  independently writable record.

KEY CONCEPTS IN THIS FILE (types.go):
  - Move: An immutable ledger entry recording a signed quantity change
  - StockDelta: The effect of a Move on one (product, location) pair
  - Operation: A Receipt or Delivery document with a status lifecycle
  - TransferRequest/AdjustmentRequest: Immediate-effect reconciliation inputs

DESIGN PRINCIPLES:
  1. Immutability: Moves are never modified or deleted, only corrected by
     new Moves
  2. Single encoding: an Internal transfer is ONE Move with both endpoints
     set; replay subtracts at the source and adds at the destination
  3. Type Safety: Strong typing for IDs prevents mixing product/location IDs
  4. Auditability: Every Move carries a reference and the acting user

SEE ALSO:
  - ledger.go: Append and query over Moves
  - view.go: Derived current stock
  - operation.go: Lifecycle rules for Receipts and Deliveries
*/
package inventory

import (
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MoveID string
type ProductID string
type LocationID string
type WarehouseID string
type OperationID string

// =============================================================================
// MOVE - Immutable signed ledger entry
// =============================================================================

type MoveType string

const (
	MoveReceipt    MoveType = "Receipt"    // stock entering from outside
	MoveDelivery   MoveType = "Delivery"   // stock leaving to outside
	MoveInternal   MoveType = "Internal"   // transfer between locations
	MoveAdjustment MoveType = "Adjustment" // manual correction
)

// Move is a single entry in the stock ledger.
//
// Sign convention:
//   - Receipt: Quantity > 0, To set; stock increases at To
//   - Delivery: Quantity < 0, From set; stock decreases at From
//   - Internal: Quantity > 0, From and To set; one row interpreted both ways
//   - Adjustment: Quantity signed, To set; stock changes at To
type Move struct {
	ID        MoveID
	Seq       int64 // monotonic insertion order, assigned by the store
	Date      time.Time
	Type      MoveType
	Reference string
	Product   ProductID
	From      LocationID // empty when not applicable
	To        LocationID // empty when not applicable
	Quantity  int64

	CreatedBy string
	CreatedAt time.Time
}

// StockDelta is the effect of a Move on a single (product, location) pair.
type StockDelta struct {
	Product  ProductID
	Location LocationID
	Quantity int64
}

// Deltas expands a Move into its per-location effects. Replaying Deltas over
// the full ledger and applying them incrementally must produce identical
// totals; every consumer of ledger state goes through this one function.
func (m Move) Deltas() []StockDelta {
	switch m.Type {
	case MoveReceipt:
		return []StockDelta{{Product: m.Product, Location: m.To, Quantity: m.Quantity}}
	case MoveDelivery:
		return []StockDelta{{Product: m.Product, Location: m.From, Quantity: m.Quantity}}
	case MoveInternal:
		return []StockDelta{
			{Product: m.Product, Location: m.From, Quantity: -m.Quantity},
			{Product: m.Product, Location: m.To, Quantity: m.Quantity},
		}
	case MoveAdjustment:
		return []StockDelta{{Product: m.Product, Location: m.To, Quantity: m.Quantity}}
	default:
		return nil
	}
}

// =============================================================================
// STOCK - Derived current quantity (query result, never a system of record)
// =============================================================================

type Stock struct {
	Product  ProductID
	Location LocationID
	Quantity int64
}

// =============================================================================
// OPERATION - Receipt or Delivery document with a staged lifecycle
// =============================================================================

type OperationKind string

const (
	KindReceipt  OperationKind = "Receipt"
	KindDelivery OperationKind = "Delivery"
)

type OperationStatus string

const (
	StatusDraft     OperationStatus = "Draft"
	StatusWaiting   OperationStatus = "Waiting"
	StatusReady     OperationStatus = "Ready"
	StatusDone      OperationStatus = "Done"
	StatusCancelled OperationStatus = "Cancelled"
)

// Line is a product/quantity pair on an Operation. Quantity is always
// positive; the Move sign is derived from the operation kind at validation.
type Line struct {
	Product  ProductID
	Quantity int64
}

// Operation is a Receipt or Delivery progressing Draft → Waiting ⇄ Ready →
// Done, with Cancelled reachable from any non-Done state. The warehouse-side
// endpoint is either a concrete Location or a Warehouse (resolved to the
// warehouse's default stock location at validation).
type Operation struct {
	ID        OperationID
	Reference string
	Kind      OperationKind

	Contact       string
	ScheduledDate time.Time
	Warehouse     WarehouseID // endpoint by warehouse (default location used)
	Location      LocationID  // endpoint by concrete location
	Address       string      // delivery address / source document
	Responsible   string

	Status OperationStatus
	Lines  []Line

	ValidatedBy string
	ValidatedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Editable reports whether line and header edits are still permitted.
// Past Draft, contents are immutable except through corrective Moves.
func (o *Operation) Editable() bool { return o.Status == StatusDraft }

// Terminal reports whether no further transitions are possible.
func (o *Operation) Terminal() bool {
	return o.Status == StatusDone || o.Status == StatusCancelled
}

// =============================================================================
// RECONCILIATION REQUESTS - Immediate effect, no staged lifecycle
// =============================================================================

type AdjustMode string

const (
	AdjustSet AdjustMode = "Set" // replace current quantity (emits the delta)
	AdjustAdd AdjustMode = "Add" // apply the signed quantity as given
)

// TransferRequest moves stock between two locations immediately.
type TransferRequest struct {
	Product  ProductID
	From     LocationID
	To       LocationID
	Quantity int64 // must be > 0
	Actor    string
}

// AdjustmentRequest corrects stock at one location immediately.
// Set may drive the delta to zero, in which case no Move is emitted.
// Add may drive stock negative; that is accepted correction policy.
type AdjustmentRequest struct {
	Product  ProductID
	Location LocationID
	Quantity int64
	Mode     AdjustMode
	Actor    string
}

// =============================================================================
// SHORTFALL - Result detail for failed sufficiency checks
// =============================================================================

// Shortfall reports one line that could not be covered by current stock.
type Shortfall struct {
	Product   ProductID
	Requested int64
	Available int64
}
