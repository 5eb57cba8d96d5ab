/*
collaborators.go - Read-only interfaces onto data the engine does not own

PURPOSE:
  The engine reads product and warehouse topology data owned by other parts
  of the console (catalog and settings). These interfaces keep that boundary
  explicit: the core never creates, updates or deletes a product, location
  or warehouse.

SEE ALSO:
  - store/sqlite: persistent implementations
  - inventory/store: in-memory implementations for tests
*/
package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG - Product data (owned by the catalog collaborator)
// =============================================================================

// Product carries the catalog fields the engine reads: identity for
// referential checks, unit cost for valuation display.
type Product struct {
	ID       ProductID
	Name     string
	SKU      string
	Unit     string
	UnitCost decimal.Decimal
}

type Catalog interface {
	// Product returns the product or ErrNotFound.
	Product(ctx context.Context, id ProductID) (*Product, error)

	// Products lists the full catalog, ordered by name.
	Products(ctx context.Context) ([]Product, error)
}

// =============================================================================
// TOPOLOGY - Warehouse/location mapping (owned by the settings collaborator)
// =============================================================================

type Warehouse struct {
	ID   WarehouseID
	Name string
	Code string
}

// Location belongs to exactly one Warehouse. At most one location per
// warehouse is flagged as its default stock location.
type Location struct {
	ID        LocationID
	Name      string
	Warehouse WarehouseID
	IsDefault bool
}

type Topology interface {
	// Location returns the location or ErrNotFound.
	Location(ctx context.Context, id LocationID) (*Location, error)

	Locations(ctx context.Context) ([]Location, error)

	Warehouses(ctx context.Context) ([]Warehouse, error)

	// LocationsIn returns every location belonging to the warehouse.
	LocationsIn(ctx context.Context, id WarehouseID) ([]Location, error)

	// DefaultLocation resolves a warehouse to its default stock location,
	// used when an operation names only a warehouse. ErrNotFound if the
	// warehouse has no locations.
	DefaultLocation(ctx context.Context, id WarehouseID) (*Location, error)
}

// =============================================================================
// REFERENCES - Document numbering (owned by an external sequence source)
// =============================================================================

// Reference prefixes follow the console's numbering scheme.
const (
	RefReceipt    = "WH/IN"
	RefDelivery   = "WH/OUT"
	RefInternal   = "WH/INT"
	RefAdjustment = "WH/ADJ"
)

// RefSource hands out unique document references per prefix,
// e.g. Next("WH/IN") → "WH/IN/00042".
type RefSource interface {
	Next(ctx context.Context, prefix string) (string, error)
}
