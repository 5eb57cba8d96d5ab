/*
coordinator.go - Transactional boundary for operation lifecycle requests

PURPOSE:
  The Coordinator turns caller intents (create, edit, To DO, Recheck,
  Validate, Cancel) into consistent state: at most one lifecycle transition
  per request, plus - for Validate only - the ledger entries that commit the
  operation's effect. Sufficiency is always decided inside the exclusive
  section, never trusted from a caller's possibly-stale read.

REQUEST FLOW (Validate):
  1. Serialize on the operation id
  2. Refuse unless Ready (Waiting is re-reported, not an error)
  3. Resolve the warehouse-side endpoint to a concrete location
  4. Take the (product, location) sections for every line
  5. Re-check sufficiency against the live view
  6. Short  → demote to Waiting, no ledger effect
     Enough → append one Move per line atomically, mark Done

  Before step 6 a cancelled request leaves no trace; once the batch append
  begins, the transition completes regardless of the caller going away.

SEE ALSO:
  - operation.go: Pure lifecycle rules
  - reconcile.go: The immediate-effect path for transfers and adjustments
*/
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransitionResult reports the status an operation landed in, with the
// still-short lines when that status is Waiting. Returned so callers can
// render the outcome without re-fetching.
type TransitionResult struct {
	Status     OperationStatus
	Shortfalls []Shortfall
}

// Coordinator orchestrates operation lifecycles over the ledger and view.
type Coordinator struct {
	Ledger  *StockLedger
	View    *StockView
	Ops     OperationStore
	Topo    Topology
	Catalog Catalog
	Refs    RefSource
	Recon   *Reconciler

	stockLocks *KeyedLocks
	opLocks    *KeyedLocks
	log        zerolog.Logger
}

// NewCoordinator wires the engine together. The stock lock instance is
// shared with the Reconciler so transfers and validations contend on the
// same (product, location) sections.
func NewCoordinator(ledger *StockLedger, view *StockView, ops OperationStore,
	topo Topology, catalog Catalog, refs RefSource, lockWait time.Duration, log zerolog.Logger) *Coordinator {

	stockLocks := NewKeyedLocks(lockWait)
	return &Coordinator{
		Ledger:  ledger,
		View:    view,
		Ops:     ops,
		Topo:    topo,
		Catalog: catalog,
		Refs:    refs,
		Recon: &Reconciler{
			Ledger:  ledger,
			View:    view,
			Topo:    topo,
			Catalog: catalog,
			Refs:    refs,
			Locks:   stockLocks,
		},
		stockLocks: stockLocks,
		opLocks:    NewKeyedLocks(lockWait),
		log:        log,
	}
}

// =============================================================================
// CREATE / EDIT (Draft only)
// =============================================================================

// OperationDraft carries the caller-supplied fields for a new operation.
type OperationDraft struct {
	Kind          OperationKind
	Contact       string
	ScheduledDate time.Time
	Warehouse     WarehouseID
	Location      LocationID
	Address       string
	Responsible   string
	Lines         []Line
}

// CreateOperation creates a Draft with a generated reference.
func (c *Coordinator) CreateOperation(ctx context.Context, draft OperationDraft) (*Operation, error) {
	op := &Operation{
		Kind:          draft.Kind,
		Contact:       draft.Contact,
		ScheduledDate: draft.ScheduledDate,
		Warehouse:     draft.Warehouse,
		Location:      draft.Location,
		Address:       draft.Address,
		Responsible:   draft.Responsible,
		Lines:         draft.Lines,
		Status:        StatusDraft,
	}
	if err := validateDraft(op); err != nil {
		return nil, err
	}
	if err := c.checkReferences(ctx, op); err != nil {
		return nil, err
	}

	prefix := RefReceipt
	if op.Kind == KindDelivery {
		prefix = RefDelivery
	}
	ref, err := c.Refs.Next(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("allocate reference: %w", err)
	}

	now := time.Now().UTC()
	op.ID = OperationID(uuid.NewString())
	op.Reference = ref
	op.CreatedAt = now
	op.UpdatedAt = now

	if err := c.Ops.Save(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// OperationUpdate carries Draft-stage edits. Nil fields are left unchanged.
type OperationUpdate struct {
	Contact       *string
	ScheduledDate *time.Time
	Address       *string
	Responsible   *string
	Lines         []Line // nil = unchanged
}

// UpdateOperation edits a Draft. Past Draft, contents are immutable except
// through corrective reconciliation.
func (c *Coordinator) UpdateOperation(ctx context.Context, id OperationID, upd OperationUpdate) (*Operation, error) {
	release, err := c.opLocks.Acquire(ctx, OperationKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	op, err := c.Ops.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canTransition(op, "update"); err != nil {
		return nil, err
	}

	if upd.Contact != nil {
		op.Contact = *upd.Contact
	}
	if upd.ScheduledDate != nil {
		op.ScheduledDate = *upd.ScheduledDate
	}
	if upd.Address != nil {
		op.Address = *upd.Address
	}
	if upd.Responsible != nil {
		op.Responsible = *upd.Responsible
	}
	if upd.Lines != nil {
		op.Lines = upd.Lines
	}

	if err := validateDraft(op); err != nil {
		return nil, err
	}
	if err := c.checkReferences(ctx, op); err != nil {
		return nil, err
	}

	op.UpdatedAt = time.Now().UTC()
	if err := c.Ops.Save(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// checkReferences confirms the endpoint and every line product exist.
// Collaborator reads only; rejected before any lock is taken.
func (c *Coordinator) checkReferences(ctx context.Context, op *Operation) error {
	if op.Location != "" {
		if _, err := c.Topo.Location(ctx, op.Location); err != nil {
			return err
		}
	} else {
		if _, err := c.Topo.DefaultLocation(ctx, op.Warehouse); err != nil {
			return err
		}
	}
	for _, ln := range op.Lines {
		if _, err := c.Catalog.Product(ctx, ln.Product); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// TransitionToDo moves a Draft to Ready or Waiting depending on stock
// sufficiency. Never touches the ledger.
func (c *Coordinator) TransitionToDo(ctx context.Context, id OperationID) (TransitionResult, error) {
	release, err := c.opLocks.Acquire(ctx, OperationKey(id))
	if err != nil {
		return TransitionResult{}, err
	}
	defer release()

	op, err := c.Ops.Get(ctx, id)
	if err != nil {
		return TransitionResult{}, err
	}
	if err := canTransition(op, "to-do"); err != nil {
		return TransitionResult{}, err
	}

	return c.settleSufficiency(ctx, op)
}

// RecheckStock re-runs the sufficiency test on a Waiting operation and
// promotes it to Ready when everything is now covered. A no-op (current
// status returned) when the operation is not Waiting.
func (c *Coordinator) RecheckStock(ctx context.Context, id OperationID) (TransitionResult, error) {
	release, err := c.opLocks.Acquire(ctx, OperationKey(id))
	if err != nil {
		return TransitionResult{}, err
	}
	defer release()

	op, err := c.Ops.Get(ctx, id)
	if err != nil {
		return TransitionResult{}, err
	}
	if op.Status != StatusWaiting {
		return TransitionResult{Status: op.Status}, nil
	}

	return c.settleSufficiency(ctx, op)
}

// settleSufficiency lands the operation in Ready or Waiting per the live
// view. Shared by To DO and Recheck.
func (c *Coordinator) settleSufficiency(ctx context.Context, op *Operation) (TransitionResult, error) {
	shorts, err := checkSufficiency(ctx, c.View, op)
	if err != nil {
		return TransitionResult{}, err
	}

	if len(shorts) > 0 {
		op.Status = StatusWaiting
	} else {
		op.Status = StatusReady
	}
	op.UpdatedAt = time.Now().UTC()
	if err := c.Ops.Save(ctx, op); err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Status: op.Status, Shortfalls: shorts}, nil
}

// Validate commits a Ready operation: one Move per line plus the Done
// transition, all-or-nothing. A Waiting operation is re-reported as Waiting
// with no effect; any other state is an InvalidTransitionError.
func (c *Coordinator) Validate(ctx context.Context, id OperationID, actor string) (TransitionResult, error) {
	release, err := c.opLocks.Acquire(ctx, OperationKey(id))
	if err != nil {
		return TransitionResult{}, err
	}
	defer release()

	op, err := c.Ops.Get(ctx, id)
	if err != nil {
		return TransitionResult{}, err
	}
	if op.Status == StatusWaiting {
		// Refused, not an error: the caller must go through Recheck first.
		return TransitionResult{Status: StatusWaiting}, nil
	}
	if err := canTransition(op, "validate"); err != nil {
		return TransitionResult{}, err
	}

	// A prior Validate may have committed its batch and then failed to save
	// the Done flip. The ledger is the source of truth: when this reference
	// already has moves the effect is applied, and appending again would
	// count the stock twice. Heal the status instead of re-committing.
	applied, err := c.Ledger.Moves(ctx, MoveFilter{Reference: op.Reference})
	if err != nil {
		return TransitionResult{}, err
	}
	if len(applied) > 0 {
		op.Status = StatusDone
		op.UpdatedAt = time.Now().UTC()
		if err := c.Ops.Save(ctx, op); err != nil {
			return TransitionResult{}, err
		}
		c.log.Warn().
			Str("operation", string(op.ID)).
			Str("reference", op.Reference).
			Msg("status healed to Done from already-committed moves")
		return TransitionResult{Status: StatusDone}, nil
	}

	endpoint, err := c.resolveEndpoint(ctx, op)
	if err != nil {
		return TransitionResult{}, err
	}

	// A warehouse-addressed operation is checked against every location in
	// the warehouse, so every one of them must sit inside the exclusive
	// section. Locking only the endpoint would let a concurrent transfer
	// out of a sibling location slip past the sufficiency check.
	checkLocs := []LocationID{endpoint}
	if op.Location == "" {
		locs, err := c.Topo.LocationsIn(ctx, op.Warehouse)
		if err != nil {
			return TransitionResult{}, err
		}
		checkLocs = checkLocs[:0]
		for _, l := range locs {
			checkLocs = append(checkLocs, l.ID)
		}
	}

	keys := make([]string, 0, len(op.Lines)*len(checkLocs))
	for _, ln := range op.Lines {
		for _, loc := range checkLocs {
			keys = append(keys, StockKey(ln.Product, loc))
		}
	}
	unlock, err := c.stockLocks.Acquire(ctx, keys...)
	if err != nil {
		return TransitionResult{}, err
	}
	defer unlock()

	// Re-verify against the live view: stock may have changed since Ready
	// was computed. A short delivery demotes to Waiting instead of partially
	// applying.
	shorts, err := checkSufficiency(ctx, c.View, op)
	if err != nil {
		return TransitionResult{}, err
	}
	if len(shorts) > 0 {
		op.Status = StatusWaiting
		op.UpdatedAt = time.Now().UTC()
		if err := c.Ops.Save(ctx, op); err != nil {
			return TransitionResult{}, err
		}
		return TransitionResult{Status: StatusWaiting, Shortfalls: shorts}, nil
	}

	// Commit point. A caller abort before here leaves no trace.
	if err := ctx.Err(); err != nil {
		return TransitionResult{}, err
	}

	now := time.Now().UTC()
	op.ValidatedBy = actor
	op.ValidatedAt = &now

	if _, err := c.Ledger.AppendBatch(ctx, lineMoves(op, endpoint, now)); err != nil {
		return TransitionResult{}, err
	}

	// Past the commit point: finish the status flip even if the caller is
	// gone, so Moves and status never diverge.
	op.Status = StatusDone
	op.UpdatedAt = now
	if err := c.Ops.Save(context.WithoutCancel(ctx), op); err != nil {
		return TransitionResult{}, err
	}

	c.log.Info().
		Str("operation", string(op.ID)).
		Str("reference", op.Reference).
		Str("kind", string(op.Kind)).
		Int("lines", len(op.Lines)).
		Msg("operation validated")

	return TransitionResult{Status: StatusDone}, nil
}

// Cancel closes a not-yet-Done operation. No ledger effect: a Done
// operation is reversed with a corrective Adjustment, never by
// un-committing history.
func (c *Coordinator) Cancel(ctx context.Context, id OperationID) (TransitionResult, error) {
	release, err := c.opLocks.Acquire(ctx, OperationKey(id))
	if err != nil {
		return TransitionResult{}, err
	}
	defer release()

	op, err := c.Ops.Get(ctx, id)
	if err != nil {
		return TransitionResult{}, err
	}
	if err := canTransition(op, "cancel"); err != nil {
		return TransitionResult{}, err
	}

	op.Status = StatusCancelled
	op.UpdatedAt = time.Now().UTC()
	if err := c.Ops.Save(ctx, op); err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Status: StatusCancelled}, nil
}

// resolveEndpoint turns the operation's warehouse-side endpoint into the
// concrete location its Moves read and write.
func (c *Coordinator) resolveEndpoint(ctx context.Context, op *Operation) (LocationID, error) {
	if op.Location != "" {
		return op.Location, nil
	}
	loc, err := c.Topo.DefaultLocation(ctx, op.Warehouse)
	if err != nil {
		return "", err
	}
	return loc.ID, nil
}

// =============================================================================
// RECONCILIATION PASS-THROUGH
// =============================================================================

// Transfer executes an immediate internal transfer (see reconcile.go).
func (c *Coordinator) Transfer(ctx context.Context, req TransferRequest) (MoveID, error) {
	return c.Recon.Transfer(ctx, req)
}

// Adjust executes an immediate stock adjustment (see reconcile.go).
func (c *Coordinator) Adjust(ctx context.Context, req AdjustmentRequest) (MoveID, error) {
	return c.Recon.Adjust(ctx, req)
}

// =============================================================================
// READ PATHS
// =============================================================================

func (c *Coordinator) Operation(ctx context.Context, id OperationID) (*Operation, error) {
	return c.Ops.Get(ctx, id)
}

func (c *Coordinator) Operations(ctx context.Context, f OperationFilter) ([]*Operation, error) {
	return c.Ops.List(ctx, f)
}

// Moves is the stock ledger history feed.
func (c *Coordinator) Moves(ctx context.Context, f MoveFilter) ([]Move, error) {
	return c.Ledger.Moves(ctx, f)
}

// VerifyStock replays the ledger for every materialized entry and heals
// any divergence (see StockView.Verify). Run periodically from the server;
// the joined ConsistencyViolationErrors are for operator attention, the
// entries themselves are already healed on return.
func (c *Coordinator) VerifyStock(ctx context.Context) error {
	var violations error
	for _, row := range c.View.Rows() {
		err := c.View.Verify(ctx, c.Ledger.Store, row.Product, row.Location)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrConsistencyViolation) {
			return err
		}
		violations = errors.Join(violations, err)
	}
	return violations
}

// CurrentStock returns the materialized rows, optionally narrowed to one
// product and/or location.
func (c *Coordinator) CurrentStock(product ProductID, location LocationID) []Stock {
	rows := c.View.Rows()
	if product == "" && location == "" {
		return rows
	}
	filtered := rows[:0]
	for _, r := range rows {
		if product != "" && r.Product != product {
			continue
		}
		if location != "" && r.Location != location {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
