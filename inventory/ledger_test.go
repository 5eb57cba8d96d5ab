package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/inventory/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() (*inventory.StockLedger, *store.MemoryMoves, *inventory.StockView) {
	topo := store.NewMemoryTopology(
		[]inventory.Warehouse{{ID: "wh1", Name: "Main"}},
		[]inventory.Location{
			{ID: "stock", Name: "Stock", Warehouse: "wh1", IsDefault: true},
			{ID: "dock", Name: "Dock", Warehouse: "wh1"},
		},
	)
	moves := store.NewMemoryMoves()
	view := inventory.NewStockView(topo, zerolog.Nop())
	return inventory.NewStockLedger(moves, view), moves, view
}

func receiptMove(product inventory.ProductID, to inventory.LocationID, qty int64) inventory.Move {
	return inventory.Move{
		Type:      inventory.MoveReceipt,
		Reference: "WH/IN/00001",
		Product:   product,
		To:        to,
		Quantity:  qty,
	}
}

// =============================================================================
// APPEND AND VALIDATION
// =============================================================================

func TestLedger_Append_FillsIdentityAndUpdatesView(t *testing.T) {
	ledger, _, view := newTestLedger()
	ctx := context.Background()

	id, err := ledger.Append(ctx, receiptMove("p1", "stock", 5))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	moves, err := ledger.Moves(ctx, inventory.MoveFilter{})
	require.NoError(t, err)
	require.Len(t, moves, 1)

	m := moves[0]
	assert.Equal(t, inventory.MoveID(id), m.ID)
	assert.Equal(t, int64(1), m.Seq)
	assert.False(t, m.Date.IsZero())
	assert.False(t, m.CreatedAt.IsZero())

	// The view reflects the append before Append returns.
	assert.Equal(t, int64(5), view.CurrentQuantity("p1", "stock"))
}

func TestLedger_RejectsMalformedMoves(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	cases := []struct {
		name string
		move inventory.Move
	}{
		{"zero quantity", inventory.Move{Type: inventory.MoveReceipt, Product: "p1", To: "stock", Quantity: 0}},
		{"no product", inventory.Move{Type: inventory.MoveReceipt, To: "stock", Quantity: 5}},
		{"receipt without destination", inventory.Move{Type: inventory.MoveReceipt, Product: "p1", Quantity: 5}},
		{"receipt negative", inventory.Move{Type: inventory.MoveReceipt, Product: "p1", To: "stock", Quantity: -5}},
		{"delivery without source", inventory.Move{Type: inventory.MoveDelivery, Product: "p1", Quantity: -5}},
		{"delivery positive", inventory.Move{Type: inventory.MoveDelivery, Product: "p1", From: "stock", Quantity: 5}},
		{"internal one endpoint", inventory.Move{Type: inventory.MoveInternal, Product: "p1", From: "stock", Quantity: 5}},
		{"internal same endpoints", inventory.Move{Type: inventory.MoveInternal, Product: "p1", From: "stock", To: "stock", Quantity: 5}},
		{"internal negative", inventory.Move{Type: inventory.MoveInternal, Product: "p1", From: "stock", To: "dock", Quantity: -5}},
		{"adjustment without location", inventory.Move{Type: inventory.MoveAdjustment, Product: "p1", Quantity: 5}},
		{"unknown type", inventory.Move{Type: "Teleport", Product: "p1", To: "stock", Quantity: 5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ledger.Append(ctx, tc.move)
			require.Error(t, err)
			assert.ErrorIs(t, err, inventory.ErrValidationInput)

			var ime *inventory.InvalidMoveError
			assert.ErrorAs(t, err, &ime)
		})
	}

	moves, err := ledger.Moves(ctx, inventory.MoveFilter{})
	require.NoError(t, err)
	assert.Empty(t, moves, "rejected moves must not reach the store")
}

func TestLedger_AppendBatch_AllOrNothing(t *testing.T) {
	ledger, _, view := newTestLedger()
	ctx := context.Background()

	// Second move is malformed; the whole batch must be rejected at
	// validation, before anything is stored or applied.
	_, err := ledger.AppendBatch(ctx, []inventory.Move{
		receiptMove("p1", "stock", 5),
		{Type: inventory.MoveReceipt, Product: "p2", Quantity: 3}, // no destination
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrValidationInput)

	moves, err := ledger.Moves(ctx, inventory.MoveFilter{})
	require.NoError(t, err)
	assert.Empty(t, moves)
	assert.Equal(t, int64(0), view.CurrentQuantity("p1", "stock"))

	// A clean batch lands whole.
	ids, err := ledger.AppendBatch(ctx, []inventory.Move{
		receiptMove("p1", "stock", 5),
		receiptMove("p2", "stock", 3),
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Equal(t, int64(5), view.CurrentQuantity("p1", "stock"))
	assert.Equal(t, int64(3), view.CurrentQuantity("p2", "stock"))
}

// =============================================================================
// QUERY FILTERS AND ORDERING
// =============================================================================

func TestLedger_Moves_FiltersAndOrder(t *testing.T) {
	ledger, _, _ := newTestLedger()
	ctx := context.Background()

	jan := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	// Inserted out of date order on purpose.
	_, err := ledger.Append(ctx, inventory.Move{
		Type: inventory.MoveReceipt, Reference: "WH/IN/00002",
		Product: "p1", To: "stock", Quantity: 4, Date: feb,
	})
	require.NoError(t, err)
	_, err = ledger.Append(ctx, inventory.Move{
		Type: inventory.MoveReceipt, Reference: "WH/IN/00001",
		Product: "p1", To: "stock", Quantity: 2, Date: jan,
	})
	require.NoError(t, err)
	_, err = ledger.Append(ctx, inventory.Move{
		Type: inventory.MoveInternal, Reference: "WH/INT/00001",
		Product: "p1", From: "stock", To: "dock", Quantity: 3, Date: mar,
	})
	require.NoError(t, err)
	_, err = ledger.Append(ctx, inventory.Move{
		Type: inventory.MoveReceipt, Reference: "WH/IN/00003",
		Product: "p2", To: "dock", Quantity: 7, Date: mar,
	})
	require.NoError(t, err)

	all, err := ledger.Moves(ctx, inventory.MoveFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "WH/IN/00001", all[0].Reference, "date ascending")
	assert.Equal(t, "WH/IN/00002", all[1].Reference)

	byProduct, err := ledger.Moves(ctx, inventory.MoveFilter{Product: "p1"})
	require.NoError(t, err)
	assert.Len(t, byProduct, 3)

	// A location filter matches either endpoint of an internal move.
	byLocation, err := ledger.Moves(ctx, inventory.MoveFilter{Location: "dock"})
	require.NoError(t, err)
	assert.Len(t, byLocation, 2)

	byType, err := ledger.Moves(ctx, inventory.MoveFilter{Type: inventory.MoveInternal})
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	byRef, err := ledger.Moves(ctx, inventory.MoveFilter{Reference: "WH/IN/00002"})
	require.NoError(t, err)
	assert.Len(t, byRef, 1)

	windowed, err := ledger.Moves(ctx, inventory.MoveFilter{DateFrom: &feb, DateTo: &feb})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, "WH/IN/00002", windowed[0].Reference)
}

// =============================================================================
// DELTA EXPANSION
// =============================================================================

func TestMove_Deltas_SingleEncodingForTransfers(t *testing.T) {
	internal := inventory.Move{
		Type: inventory.MoveInternal, Product: "p1",
		From: "stock", To: "dock", Quantity: 4,
	}

	deltas := internal.Deltas()
	require.Len(t, deltas, 2)
	assert.Equal(t, inventory.StockDelta{Product: "p1", Location: "stock", Quantity: -4}, deltas[0])
	assert.Equal(t, inventory.StockDelta{Product: "p1", Location: "dock", Quantity: 4}, deltas[1])

	receipt := inventory.Move{Type: inventory.MoveReceipt, Product: "p1", To: "stock", Quantity: 5}
	require.Len(t, receipt.Deltas(), 1)
	assert.Equal(t, int64(5), receipt.Deltas()[0].Quantity)

	delivery := inventory.Move{Type: inventory.MoveDelivery, Product: "p1", From: "stock", Quantity: -5}
	require.Len(t, delivery.Deltas(), 1)
	assert.Equal(t, inventory.LocationID("stock"), delivery.Deltas()[0].Location)

	adjustment := inventory.Move{Type: inventory.MoveAdjustment, Product: "p1", To: "stock", Quantity: -2}
	require.Len(t, adjustment.Deltas(), 1)
	assert.Equal(t, int64(-2), adjustment.Deltas()[0].Quantity)
}
