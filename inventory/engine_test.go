package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/inventory/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testEngine struct {
	Coordinator *inventory.Coordinator
	Ledger      *inventory.StockLedger
	View        *inventory.StockView
	Moves       *store.MemoryMoves
	Ops         *store.MemoryOperations
}

// newTestEngine wires the full engine over in-memory stores with a small
// fixed topology: one warehouse with a default stock location plus an
// input dock, and an annex with a single location.
func newTestEngine() *testEngine {
	topo := store.NewMemoryTopology(
		[]inventory.Warehouse{
			{ID: "wh1", Name: "Main", Code: "WH"},
			{ID: "wh2", Name: "Annex", Code: "AX"},
		},
		[]inventory.Location{
			{ID: "stock", Name: "WH/Stock", Warehouse: "wh1", IsDefault: true},
			{ID: "input", Name: "WH/Input", Warehouse: "wh1"},
			{ID: "annex", Name: "AX/Stock", Warehouse: "wh2", IsDefault: true},
		},
	)
	catalog := store.NewMemoryCatalog(
		inventory.Product{ID: "p1", Name: "Widget", SKU: "W-1", Unit: "unit", UnitCost: decimal.NewFromInt(10)},
		inventory.Product{ID: "p2", Name: "Gadget", SKU: "G-2", Unit: "unit", UnitCost: decimal.NewFromInt(25)},
	)

	moves := store.NewMemoryMoves()
	view := inventory.NewStockView(topo, zerolog.Nop())
	ledger := inventory.NewStockLedger(moves, view)
	ops := store.NewMemoryOperations()

	coord := inventory.NewCoordinator(ledger, view, ops, topo, catalog,
		store.NewMemoryRefs(), time.Second, zerolog.Nop())

	return &testEngine{
		Coordinator: coord,
		Ledger:      ledger,
		View:        view,
		Moves:       moves,
		Ops:         ops,
	}
}

// receive puts stock at a location by running a receipt through its full
// lifecycle. Tests that need stock on hand start here, never by poking
// the view.
func receive(t *testing.T, e *testEngine, product inventory.ProductID, location inventory.LocationID, qty int64) {
	t.Helper()
	ctx := context.Background()

	op, err := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:     inventory.KindReceipt,
		Location: location,
		Lines:    []inventory.Line{{Product: product, Quantity: qty}},
	})
	if err != nil {
		t.Fatalf("create receipt: %v", err)
	}
	if _, err := e.Coordinator.TransitionToDo(ctx, op.ID); err != nil {
		t.Fatalf("to-do receipt: %v", err)
	}
	res, err := e.Coordinator.Validate(ctx, op.ID, "setup")
	if err != nil {
		t.Fatalf("validate receipt: %v", err)
	}
	if res.Status != inventory.StatusDone {
		t.Fatalf("setup receipt landed in %s, want Done", res.Status)
	}
}

func draftDelivery(t *testing.T, e *testEngine, location inventory.LocationID, lines ...inventory.Line) *inventory.Operation {
	t.Helper()
	op, err := e.Coordinator.CreateOperation(context.Background(), inventory.OperationDraft{
		Kind:     inventory.KindDelivery,
		Location: location,
		Lines:    lines,
	})
	if err != nil {
		t.Fatalf("create delivery: %v", err)
	}
	return op
}

// =============================================================================
// RECEIPT LIFECYCLE
// =============================================================================

func TestReceipt_FullLifecycle_ProducesOneMoveAndDone(t *testing.T) {
	// GIVEN: A Draft receipt of 5 widgets into the stock location
	// WHEN: To DO, then Validate
	// THEN: Exactly one Receipt move of +5 exists and the operation is Done

	e := newTestEngine()
	ctx := context.Background()

	op, err := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:     inventory.KindReceipt,
		Contact:  "Acme Supply",
		Location: "stock",
		Lines:    []inventory.Line{{Product: "p1", Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if op.Status != inventory.StatusDraft {
		t.Fatalf("new operation status = %s, want Draft", op.Status)
	}
	if op.Reference == "" {
		t.Fatal("new operation has no reference")
	}

	res, err := e.Coordinator.TransitionToDo(ctx, op.ID)
	if err != nil {
		t.Fatalf("to-do: %v", err)
	}
	// Receipts bring stock in; they are never short.
	if res.Status != inventory.StatusReady {
		t.Fatalf("to-do landed in %s, want Ready", res.Status)
	}

	res, err = e.Coordinator.Validate(ctx, op.ID, "alice")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Status != inventory.StatusDone {
		t.Fatalf("validate landed in %s, want Done", res.Status)
	}

	moves, err := e.Ledger.Moves(ctx, inventory.MoveFilter{})
	if err != nil {
		t.Fatalf("moves: %v", err)
	}
	if len(moves) != 1 {
		t.Fatalf("ledger holds %d moves, want 1", len(moves))
	}
	m := moves[0]
	if m.Type != inventory.MoveReceipt || m.To != "stock" || m.Quantity != 5 {
		t.Fatalf("move = %+v, want Receipt +5 into stock", m)
	}
	if m.Reference != op.Reference {
		t.Fatalf("move reference = %q, want %q", m.Reference, op.Reference)
	}
	if m.CreatedBy != "alice" {
		t.Fatalf("move created_by = %q, want alice", m.CreatedBy)
	}

	if got := e.View.CurrentQuantity("p1", "stock"); got != 5 {
		t.Fatalf("stock after receipt = %d, want 5", got)
	}

	stored, err := e.Coordinator.Operation(ctx, op.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ValidatedBy != "alice" || stored.ValidatedAt == nil {
		t.Fatalf("validation audit fields not set: %+v", stored)
	}
}

// =============================================================================
// DELIVERY SUFFICIENCY
// =============================================================================

func TestDelivery_InsufficientStock_LandsInWaiting(t *testing.T) {
	// GIVEN: 3 widgets on hand, a Draft delivery of 10
	// WHEN: To DO
	// THEN: The operation waits, reporting the 7-short line; no ledger effect

	e := newTestEngine()
	ctx := context.Background()
	receive(t, e, "p1", "stock", 3)

	op := draftDelivery(t, e, "stock", inventory.Line{Product: "p1", Quantity: 10})

	res, err := e.Coordinator.TransitionToDo(ctx, op.ID)
	if err != nil {
		t.Fatalf("to-do: %v", err)
	}
	if res.Status != inventory.StatusWaiting {
		t.Fatalf("to-do landed in %s, want Waiting", res.Status)
	}
	if len(res.Shortfalls) != 1 {
		t.Fatalf("shortfalls = %v, want one entry", res.Shortfalls)
	}
	s := res.Shortfalls[0]
	if s.Product != "p1" || s.Requested != 10 || s.Available != 3 {
		t.Fatalf("shortfall = %+v, want p1 requested 10 available 3", s)
	}

	// Stock untouched; only the setup receipt is in the ledger.
	if got := e.View.CurrentQuantity("p1", "stock"); got != 3 {
		t.Fatalf("stock = %d, want 3", got)
	}
	moves, _ := e.Ledger.Moves(ctx, inventory.MoveFilter{Type: inventory.MoveDelivery})
	if len(moves) != 0 {
		t.Fatalf("delivery moves = %d, want 0", len(moves))
	}
}

func TestDelivery_ValidateWhileWaiting_RefusedWithoutError(t *testing.T) {
	// GIVEN: A delivery stuck in Waiting
	// WHEN: Validate is called directly
	// THEN: The call returns Waiting with no error and no ledger effect

	e := newTestEngine()
	ctx := context.Background()
	receive(t, e, "p1", "stock", 3)

	op := draftDelivery(t, e, "stock", inventory.Line{Product: "p1", Quantity: 10})
	if _, err := e.Coordinator.TransitionToDo(ctx, op.ID); err != nil {
		t.Fatalf("to-do: %v", err)
	}

	res, err := e.Coordinator.Validate(ctx, op.ID, "bob")
	if err != nil {
		t.Fatalf("validate while waiting errored: %v", err)
	}
	if res.Status != inventory.StatusWaiting {
		t.Fatalf("validate landed in %s, want Waiting", res.Status)
	}

	moves, _ := e.Ledger.Moves(ctx, inventory.MoveFilter{Type: inventory.MoveDelivery})
	if len(moves) != 0 {
		t.Fatalf("delivery moves = %d, want 0", len(moves))
	}
}

func TestDelivery_RecheckAfterReceipt_PromotesAndCommits(t *testing.T) {
	// GIVEN: A delivery of 10 waiting on 3 in stock
	// WHEN: 12 more arrive and the delivery is rechecked, then validated
	// THEN: Ready, then Done with a single -10 move; 5 remain

	e := newTestEngine()
	ctx := context.Background()
	receive(t, e, "p1", "stock", 3)

	op := draftDelivery(t, e, "stock", inventory.Line{Product: "p1", Quantity: 10})
	if _, err := e.Coordinator.TransitionToDo(ctx, op.ID); err != nil {
		t.Fatalf("to-do: %v", err)
	}

	receive(t, e, "p1", "stock", 12)

	res, err := e.Coordinator.RecheckStock(ctx, op.ID)
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if res.Status != inventory.StatusReady {
		t.Fatalf("recheck landed in %s, want Ready", res.Status)
	}

	res, err = e.Coordinator.Validate(ctx, op.ID, "carol")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Status != inventory.StatusDone {
		t.Fatalf("validate landed in %s, want Done", res.Status)
	}

	moves, _ := e.Ledger.Moves(ctx, inventory.MoveFilter{Type: inventory.MoveDelivery})
	if len(moves) != 1 {
		t.Fatalf("delivery moves = %d, want 1", len(moves))
	}
	if moves[0].Quantity != -10 || moves[0].From != "stock" {
		t.Fatalf("delivery move = %+v, want -10 from stock", moves[0])
	}
	if got := e.View.CurrentQuantity("p1", "stock"); got != 5 {
		t.Fatalf("stock = %d, want 5", got)
	}
}

func TestDelivery_RecheckWhenNotWaiting_IsNoOp(t *testing.T) {
	// GIVEN: A delivery already Ready
	// WHEN: Recheck Stock is called
	// THEN: Status is re-reported unchanged, no error

	e := newTestEngine()
	ctx := context.Background()
	receive(t, e, "p1", "stock", 20)

	op := draftDelivery(t, e, "stock", inventory.Line{Product: "p1", Quantity: 5})
	if _, err := e.Coordinator.TransitionToDo(ctx, op.ID); err != nil {
		t.Fatalf("to-do: %v", err)
	}

	res, err := e.Coordinator.RecheckStock(ctx, op.ID)
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if res.Status != inventory.StatusReady {
		t.Fatalf("recheck landed in %s, want Ready", res.Status)
	}
}

func TestDelivery_WarehouseEndpoint_SumsAcrossLocations(t *testing.T) {
	// GIVEN: 4 widgets in stock and 4 at the input dock (same warehouse),
	//        a delivery of 6 addressed to the warehouse
	// WHEN: To DO, then Validate
	// THEN: Sufficiency passes on the warehouse total and the moves draw
	//       from the warehouse's default stock location

	e := newTestEngine()
	ctx := context.Background()
	receive(t, e, "p1", "stock", 4)
	receive(t, e, "p1", "input", 4)

	op, err := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:      inventory.KindDelivery,
		Warehouse: "wh1",
		Lines:     []inventory.Line{{Product: "p1", Quantity: 6}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := e.Coordinator.TransitionToDo(ctx, op.ID)
	if err != nil {
		t.Fatalf("to-do: %v", err)
	}
	if res.Status != inventory.StatusReady {
		t.Fatalf("to-do landed in %s, want Ready (warehouse holds 8)", res.Status)
	}

	if _, err := e.Coordinator.Validate(ctx, op.ID, "dave"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	moves, _ := e.Ledger.Moves(ctx, inventory.MoveFilter{Type: inventory.MoveDelivery})
	if len(moves) != 1 {
		t.Fatalf("delivery moves = %d, want 1", len(moves))
	}
	if moves[0].From != "stock" {
		t.Fatalf("delivery drew from %s, want the default stock location", moves[0].From)
	}
	// The default location goes negative; the dock still holds 4. The view
	// carries the imbalance, it does not forbid it.
	if got := e.View.CurrentQuantity("p1", "stock"); got != -2 {
		t.Fatalf("stock location = %d, want -2", got)
	}
	if got := e.View.CurrentQuantity("p1", "input"); got != 4 {
		t.Fatalf("input dock = %d, want 4", got)
	}
}

// =============================================================================
// CANCEL AND TRANSITION GUARDS
// =============================================================================

func TestCancel_BeforeValidate_LeavesLedgerUntouched(t *testing.T) {
	// GIVEN: A Ready delivery
	// WHEN: Cancelled
	// THEN: Status is Cancelled, the ledger holds only the setup receipt,
	//       and no further transition is accepted

	e := newTestEngine()
	ctx := context.Background()
	receive(t, e, "p1", "stock", 10)

	op := draftDelivery(t, e, "stock", inventory.Line{Product: "p1", Quantity: 5})
	if _, err := e.Coordinator.TransitionToDo(ctx, op.ID); err != nil {
		t.Fatalf("to-do: %v", err)
	}

	res, err := e.Coordinator.Cancel(ctx, op.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.Status != inventory.StatusCancelled {
		t.Fatalf("cancel landed in %s, want Cancelled", res.Status)
	}

	moves, _ := e.Ledger.Moves(ctx, inventory.MoveFilter{})
	if len(moves) != 1 {
		t.Fatalf("ledger holds %d moves, want only the setup receipt", len(moves))
	}

	if _, err := e.Coordinator.Validate(ctx, op.ID, "eve"); !isInvalidTransition(err) {
		t.Fatalf("validate after cancel = %v, want InvalidTransitionError", err)
	}
}

func TestValidate_FromDraft_IsInvalidTransition(t *testing.T) {
	// GIVEN: A Draft receipt that never went through To DO
	// WHEN: Validate is called
	// THEN: InvalidTransitionError; the ledger stays empty

	e := newTestEngine()
	ctx := context.Background()

	op, err := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:     inventory.KindReceipt,
		Location: "stock",
		Lines:    []inventory.Line{{Product: "p1", Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := e.Coordinator.Validate(ctx, op.ID, "frank"); !isInvalidTransition(err) {
		t.Fatalf("validate from draft = %v, want InvalidTransitionError", err)
	}
	moves, _ := e.Ledger.Moves(ctx, inventory.MoveFilter{})
	if len(moves) != 0 {
		t.Fatalf("ledger holds %d moves, want 0", len(moves))
	}
}

func TestCancel_AfterDone_Rejected(t *testing.T) {
	// GIVEN: A validated (Done) receipt
	// WHEN: Cancel is called
	// THEN: InvalidTransitionError - committed history is never unwound

	e := newTestEngine()
	ctx := context.Background()

	op, _ := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:     inventory.KindReceipt,
		Location: "stock",
		Lines:    []inventory.Line{{Product: "p1", Quantity: 5}},
	})
	e.Coordinator.TransitionToDo(ctx, op.ID)
	e.Coordinator.Validate(ctx, op.ID, "alice")

	if _, err := e.Coordinator.Cancel(ctx, op.ID); !isInvalidTransition(err) {
		t.Fatalf("cancel after done = %v, want InvalidTransitionError", err)
	}
}

// =============================================================================
// DRAFT EDITS AND CREATION GUARDS
// =============================================================================

func TestUpdateOperation_DraftOnly(t *testing.T) {
	// GIVEN: A Draft receipt
	// WHEN: Contact and lines are edited, then the operation leaves Draft
	// THEN: Draft edits apply; post-Draft edits are rejected

	e := newTestEngine()
	ctx := context.Background()

	op, _ := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:     inventory.KindReceipt,
		Location: "stock",
		Lines:    []inventory.Line{{Product: "p1", Quantity: 5}},
	})

	contact := "New Vendor"
	updated, err := e.Coordinator.UpdateOperation(ctx, op.ID, inventory.OperationUpdate{
		Contact: &contact,
		Lines:   []inventory.Line{{Product: "p2", Quantity: 7}},
	})
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if updated.Contact != "New Vendor" || len(updated.Lines) != 1 || updated.Lines[0].Product != "p2" {
		t.Fatalf("draft edit not applied: %+v", updated)
	}

	e.Coordinator.TransitionToDo(ctx, op.ID)

	if _, err := e.Coordinator.UpdateOperation(ctx, op.ID, inventory.OperationUpdate{Contact: &contact}); !isInvalidTransition(err) {
		t.Fatalf("update after to-do = %v, want InvalidTransitionError", err)
	}
}

func TestCreateOperation_RejectsBadDrafts(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	cases := []struct {
		name  string
		draft inventory.OperationDraft
	}{
		{"no lines", inventory.OperationDraft{
			Kind: inventory.KindReceipt, Location: "stock",
		}},
		{"zero quantity line", inventory.OperationDraft{
			Kind: inventory.KindReceipt, Location: "stock",
			Lines: []inventory.Line{{Product: "p1", Quantity: 0}},
		}},
		{"negative quantity line", inventory.OperationDraft{
			Kind: inventory.KindDelivery, Location: "stock",
			Lines: []inventory.Line{{Product: "p1", Quantity: -3}},
		}},
		{"no endpoint", inventory.OperationDraft{
			Kind:  inventory.KindReceipt,
			Lines: []inventory.Line{{Product: "p1", Quantity: 1}},
		}},
		{"bad kind", inventory.OperationDraft{
			Kind: "Restock", Location: "stock",
			Lines: []inventory.Line{{Product: "p1", Quantity: 1}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Coordinator.CreateOperation(ctx, tc.draft)
			if !isInputError(err) {
				t.Fatalf("error = %v, want ValidationInput", err)
			}
		})
	}
}

func TestCreateOperation_UnknownReferences(t *testing.T) {
	// GIVEN: Drafts naming a product or location that does not exist
	// WHEN: Created
	// THEN: Rejected with not-found before anything is stored

	e := newTestEngine()
	ctx := context.Background()

	_, err := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:     inventory.KindReceipt,
		Location: "stock",
		Lines:    []inventory.Line{{Product: "ghost", Quantity: 1}},
	})
	if !isNotFound(err) {
		t.Fatalf("unknown product error = %v, want not found", err)
	}

	_, err = e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:     inventory.KindReceipt,
		Location: "nowhere",
		Lines:    []inventory.Line{{Product: "p1", Quantity: 1}},
	})
	if !isNotFound(err) {
		t.Fatalf("unknown location error = %v, want not found", err)
	}
}

// =============================================================================
// COMMIT FAILURE RECOVERY
// =============================================================================

// failingDoneOps rejects the first save of a Done status; later saves
// succeed. Simulates the operations store going away between the ledger
// batch and the status flip.
type failingDoneOps struct {
	*store.MemoryOperations
	failed bool
}

func (f *failingDoneOps) Save(ctx context.Context, op *inventory.Operation) error {
	if !f.failed && op.Status == inventory.StatusDone {
		f.failed = true
		return errors.New("operations store unavailable")
	}
	return f.MemoryOperations.Save(ctx, op)
}

func TestValidate_RetryAfterStatusSaveFailure_DoesNotDoubleApply(t *testing.T) {
	// GIVEN: A Ready receipt of 5 whose ledger batch commits but whose Done
	//        save fails
	// WHEN: Validate is retried
	// THEN: The retry heals the status from the already-committed moves;
	//       the ledger still holds one move and 5 are on hand, not 10

	topo := store.NewMemoryTopology(
		[]inventory.Warehouse{{ID: "wh1", Name: "Main", Code: "WH"}},
		[]inventory.Location{{ID: "stock", Name: "WH/Stock", Warehouse: "wh1", IsDefault: true}},
	)
	catalog := store.NewMemoryCatalog(
		inventory.Product{ID: "p1", Name: "Widget", SKU: "W-1", UnitCost: decimal.NewFromInt(10)},
	)
	moves := store.NewMemoryMoves()
	view := inventory.NewStockView(topo, zerolog.Nop())
	ledger := inventory.NewStockLedger(moves, view)
	ops := &failingDoneOps{MemoryOperations: store.NewMemoryOperations()}
	coord := inventory.NewCoordinator(ledger, view, ops, topo, catalog,
		store.NewMemoryRefs(), time.Second, zerolog.Nop())
	ctx := context.Background()

	op, err := coord.CreateOperation(ctx, inventory.OperationDraft{
		Kind:     inventory.KindReceipt,
		Location: "stock",
		Lines:    []inventory.Line{{Product: "p1", Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := coord.TransitionToDo(ctx, op.ID); err != nil {
		t.Fatalf("to-do: %v", err)
	}

	if _, err := coord.Validate(ctx, op.ID, "alice"); err == nil {
		t.Fatal("first validate succeeded, want the injected save failure")
	}

	// The batch committed, the status did not.
	stored, _ := coord.Operation(ctx, op.ID)
	if stored.Status != inventory.StatusReady {
		t.Fatalf("status after failed save = %s, want Ready", stored.Status)
	}

	res, err := coord.Validate(ctx, op.ID, "alice")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Status != inventory.StatusDone {
		t.Fatalf("retry landed in %s, want Done", res.Status)
	}

	got, _ := ledger.Moves(ctx, inventory.MoveFilter{Reference: op.Reference})
	if len(got) != 1 {
		t.Fatalf("moves for %s after retry = %d, want 1", op.Reference, len(got))
	}
	if q := view.CurrentQuantity("p1", "stock"); q != 5 {
		t.Fatalf("stock after retry = %d, want 5", q)
	}
	stored, _ = coord.Operation(ctx, op.ID)
	if stored.Status != inventory.StatusDone {
		t.Fatalf("stored status after retry = %s, want Done", stored.Status)
	}
}

// =============================================================================
// WAREHOUSE-LEVEL LOCK COVERAGE
// =============================================================================

func TestValidate_WarehouseEndpoint_LocksEveryWarehouseLocation(t *testing.T) {
	// GIVEN: A Ready warehouse-addressed delivery whose sufficiency rests
	//        on the sum of two locations, and the input section held by a
	//        concurrent actor
	// WHEN: Validate runs
	// THEN: It waits on the input section and times out rather than
	//       committing against a sum that could go stale under it

	e := newTestEngine()
	ctx := context.Background()
	receive(t, e, "p1", "stock", 4)
	receive(t, e, "p1", "input", 8)

	op, err := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind:      inventory.KindDelivery,
		Warehouse: "wh1",
		Lines:     []inventory.Line{{Product: "p1", Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.Coordinator.TransitionToDo(ctx, op.ID); err != nil {
		t.Fatalf("to-do: %v", err)
	}

	// Hold the input dock's section the way an in-flight transfer would.
	release, err := e.Coordinator.Recon.Locks.Acquire(ctx, inventory.StockKey("p1", "input"))
	if err != nil {
		t.Fatalf("hold input section: %v", err)
	}

	_, err = e.Coordinator.Validate(ctx, op.ID, "alice")
	if !inventory.IsRetryable(err) {
		t.Fatalf("validate with input held = %v, want lock timeout", err)
	}

	release()

	res, err := e.Coordinator.Validate(ctx, op.ID, "alice")
	if err != nil {
		t.Fatalf("validate after release: %v", err)
	}
	if res.Status != inventory.StatusDone {
		t.Fatalf("validate landed in %s, want Done", res.Status)
	}
	total, err := e.View.Available(ctx, "p1", "wh1")
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if total != 2 {
		t.Fatalf("warehouse total = %d, want 2", total)
	}
}

// =============================================================================
// CONSISTENCY SWEEP
// =============================================================================

func TestVerifyStock_HealsDivergedEntries(t *testing.T) {
	// GIVEN: A materialized entry corrupted behind the ledger's back
	// WHEN: The consistency sweep runs
	// THEN: The divergence is reported, the entry healed, and a second
	//       sweep is clean

	e := newTestEngine()
	ctx := context.Background()
	receive(t, e, "p1", "stock", 5)

	e.View.Apply(inventory.StockDelta{Product: "p1", Location: "stock", Quantity: 2})

	err := e.Coordinator.VerifyStock(ctx)
	if !errors.Is(err, inventory.ErrConsistencyViolation) {
		t.Fatalf("sweep over corrupted view = %v, want ConsistencyViolation", err)
	}
	if q := e.View.CurrentQuantity("p1", "stock"); q != 5 {
		t.Fatalf("quantity after heal = %d, want 5", q)
	}
	if err := e.Coordinator.VerifyStock(ctx); err != nil {
		t.Fatalf("sweep after heal = %v, want clean", err)
	}
}

// =============================================================================
// REFERENCE NUMBERING
// =============================================================================

func TestReferences_PerKindPrefixesAndSequence(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	r1, _ := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind: inventory.KindReceipt, Location: "stock",
		Lines: []inventory.Line{{Product: "p1", Quantity: 1}},
	})
	r2, _ := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind: inventory.KindReceipt, Location: "stock",
		Lines: []inventory.Line{{Product: "p1", Quantity: 1}},
	})
	d1, _ := e.Coordinator.CreateOperation(ctx, inventory.OperationDraft{
		Kind: inventory.KindDelivery, Location: "stock",
		Lines: []inventory.Line{{Product: "p1", Quantity: 1}},
	})

	if r1.Reference != "WH/IN/00001" || r2.Reference != "WH/IN/00002" {
		t.Fatalf("receipt references = %q, %q", r1.Reference, r2.Reference)
	}
	if d1.Reference != "WH/OUT/00001" {
		t.Fatalf("delivery reference = %q", d1.Reference)
	}
}

// =============================================================================
// ERROR CLASSIFICATION HELPERS
// =============================================================================

func isInvalidTransition(err error) bool {
	return errors.Is(err, inventory.ErrInvalidTransition)
}

func isInputError(err error) bool {
	return errors.Is(err, inventory.ErrValidationInput)
}

func isNotFound(err error) bool {
	return errors.Is(err, inventory.ErrNotFound)
}

func isInsufficient(err error) bool {
	return errors.Is(err, inventory.ErrInsufficientStock)
}
