/*
seed.go - Demo data for local development

PURPOSE:
  Seeds a fresh database with a small but realistic warehouse: two
  warehouses, their storage locations, and a handful of catalog products.
  Lets the console show something on first run without any setup.

IDEMPOTENCY:
  All seed writes are upserts keyed by stable IDs, so running SeedDemo
  against an already-seeded database changes nothing.
*/
package sqlite

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/inventory"
)

// SeedDemo loads the demo catalog and topology. Stock itself is not
// seeded: it only ever enters through the ledger (validate a receipt or
// post an adjustment).
func (s *Store) SeedDemo(ctx context.Context) error {
	warehouses := []inventory.Warehouse{
		{ID: "wh-main", Name: "Main Warehouse", Code: "WH"},
		{ID: "wh-annex", Name: "Annex", Code: "AX"},
	}
	for _, w := range warehouses {
		if err := s.SaveWarehouse(ctx, w); err != nil {
			return err
		}
	}

	locations := []inventory.Location{
		{ID: "loc-main-stock", Name: "WH/Stock", Warehouse: "wh-main", IsDefault: true},
		{ID: "loc-main-input", Name: "WH/Input", Warehouse: "wh-main"},
		{ID: "loc-main-output", Name: "WH/Output", Warehouse: "wh-main"},
		{ID: "loc-annex-stock", Name: "AX/Stock", Warehouse: "wh-annex", IsDefault: true},
	}
	for _, l := range locations {
		if err := s.SaveLocation(ctx, l); err != nil {
			return err
		}
	}

	products := []inventory.Product{
		{ID: "prod-desk", Name: "Standing Desk", SKU: "DESK-001", Unit: "unit", UnitCost: decimal.NewFromInt(240)},
		{ID: "prod-chair", Name: "Office Chair", SKU: "CHAIR-014", Unit: "unit", UnitCost: decimal.NewFromInt(89)},
		{ID: "prod-lamp", Name: "LED Desk Lamp", SKU: "LAMP-203", Unit: "unit", UnitCost: decimal.NewFromFloat(17.50)},
		{ID: "prod-cable", Name: "USB-C Cable 2m", SKU: "CBL-777", Unit: "unit", UnitCost: decimal.NewFromFloat(4.20)},
	}
	for _, p := range products {
		if err := s.SaveProduct(ctx, p); err != nil {
			return err
		}
	}

	return nil
}
