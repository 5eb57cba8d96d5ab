/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces the engine consumes using SQLite.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  inventory.MoveStore:      Append-only stock ledger
  inventory.OperationStore: Receipt/Delivery documents
  inventory.Catalog:        Product reads
  inventory.Topology:       Warehouse/location reads
  inventory.RefSource:      Document reference numbering

APPEND-ONLY ENFORCEMENT:
  The MoveStore enforces append-only semantics:
  - No UPDATE statements on the moves table
  - No DELETE statements on the moves table
  - Corrections via Adjustment moves only

KEY TABLES:
  moves:      Immutable ledger of all stock changes (seq = rowid)
  operations: Receipt/Delivery documents (lines stored as JSON)
  products:   Catalog records (read-only to the engine)
  warehouses: Warehouse records
  locations:  Storage locations, each belonging to one warehouse
  sequences:  Per-prefix counters backing reference numbering

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  // Use with ledger
  ledger := inventory.NewStockLedger(store, view)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/ledger.go: Higher-level ledger using MoveStore
  - inventory/store: In-memory implementations for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/inventory"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases coherent and sidesteps
	// SQLITE_BUSY under the engine's already-serialized writes.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Moves (append-only stock ledger; seq = rowid)
	CREATE TABLE IF NOT EXISTS moves (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		reference TEXT NOT NULL,
		product_id TEXT NOT NULL,
		from_location TEXT,
		to_location TEXT,
		quantity INTEGER NOT NULL,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_moves_product
		ON moves(product_id);
	CREATE INDEX IF NOT EXISTS idx_moves_date
		ON moves(date);
	CREATE INDEX IF NOT EXISTS idx_moves_reference
		ON moves(reference);

	-- Composite index for replaying one (product, location) pair (hot path)
	CREATE INDEX IF NOT EXISTS idx_moves_product_from
		ON moves(product_id, from_location);
	CREATE INDEX IF NOT EXISTS idx_moves_product_to
		ON moves(product_id, to_location);

	-- Operations (Receipt/Delivery documents)
	CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL,
		kind TEXT NOT NULL,
		contact TEXT,
		scheduled_date TEXT,
		warehouse_id TEXT,
		location_id TEXT,
		address TEXT,
		responsible TEXT,
		status TEXT NOT NULL,
		lines_json TEXT NOT NULL,
		validated_by TEXT,
		validated_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_operations_status
		ON operations(status);
	CREATE INDEX IF NOT EXISTS idx_operations_kind
		ON operations(kind);

	-- Products (catalog; read-only to the engine)
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sku TEXT,
		unit TEXT,
		unit_cost TEXT NOT NULL DEFAULT '0'
	);

	-- Warehouses
	CREATE TABLE IF NOT EXISTS warehouses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT
	);

	-- Locations (each belongs to one warehouse)
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		warehouse_id TEXT NOT NULL,
		is_default BOOLEAN DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_locations_warehouse
		ON locations(warehouse_id);

	-- Sequences (per-prefix counters backing reference numbering)
	CREATE TABLE IF NOT EXISTS sequences (
		prefix TEXT PRIMARY KEY,
		next_value INTEGER NOT NULL DEFAULT 1
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MOVE STORE (inventory.MoveStore interface)
// =============================================================================

// Append adds a move to the ledger.
func (s *Store) Append(ctx context.Context, m inventory.Move) (inventory.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendMove(ctx, s.db, m)
}

func (s *Store) appendMove(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, m inventory.Move) (inventory.Move, error) {
	query := `
		INSERT INTO moves
		(id, date, type, reference, product_id, from_location, to_location, quantity, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := db.ExecContext(ctx, query,
		string(m.ID),
		m.Date.Format(time.RFC3339),
		string(m.Type),
		m.Reference,
		string(m.Product),
		nullString(string(m.From)),
		nullString(string(m.To)),
		m.Quantity,
		nullString(m.CreatedBy),
		m.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return inventory.Move{}, fmt.Errorf("failed to append move: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return inventory.Move{}, fmt.Errorf("failed to read move seq: %w", err)
	}
	m.Seq = seq
	return m, nil
}

// AppendBatch adds multiple moves atomically.
func (s *Store) AppendBatch(ctx context.Context, ms []inventory.Move) ([]inventory.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	stored := make([]inventory.Move, len(ms))
	for i, m := range ms {
		sm, err := s.appendMove(ctx, sqlTx, m)
		if err != nil {
			return nil, err
		}
		stored[i] = sm
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move batch: %w", err)
	}
	return stored, nil
}

// Moves returns ledger entries matching the filter, date ascending then
// insertion order. No write path exists for this table beyond Append.
func (s *Store) Moves(ctx context.Context, f inventory.MoveFilter) ([]inventory.Move, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		conds []string
		args  []any
	)
	if f.Product != "" {
		conds = append(conds, "product_id = ?")
		args = append(args, string(f.Product))
	}
	if f.Location != "" {
		conds = append(conds, "(from_location = ? OR to_location = ?)")
		args = append(args, string(f.Location), string(f.Location))
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Reference != "" {
		conds = append(conds, "reference = ?")
		args = append(args, f.Reference)
	}
	if f.DateFrom != nil {
		conds = append(conds, "date >= ?")
		args = append(args, f.DateFrom.Format(time.RFC3339))
	}
	if f.DateTo != nil {
		conds = append(conds, "date <= ?")
		args = append(args, f.DateTo.Format(time.RFC3339))
	}

	query := `
		SELECT seq, id, date, type, reference, product_id, from_location, to_location, quantity, created_by, created_at
		FROM moves
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date ASC, seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query moves: %w", err)
	}
	defer rows.Close()

	var moves []inventory.Move
	for rows.Next() {
		m, err := scanMove(rows)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

func scanMove(rows *sql.Rows) (inventory.Move, error) {
	var (
		m         inventory.Move
		date      string
		from, to  sql.NullString
		createdBy sql.NullString
		createdAt string
	)

	err := rows.Scan(
		&m.Seq, &m.ID, &date, &m.Type, &m.Reference, &m.Product,
		&from, &to, &m.Quantity, &createdBy, &createdAt,
	)
	if err != nil {
		return m, fmt.Errorf("failed to scan move: %w", err)
	}

	m.Date, _ = time.Parse(time.RFC3339, date)
	m.From = inventory.LocationID(from.String)
	m.To = inventory.LocationID(to.String)
	m.CreatedBy = createdBy.String
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return m, nil
}

// =============================================================================
// OPERATION STORE (inventory.OperationStore interface)
// =============================================================================

// Save upserts an operation document. Unlike moves, operations are mutable:
// status flips and Draft edits are saved in place.
func (s *Store) Save(ctx context.Context, op *inventory.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	linesJSON, err := json.Marshal(op.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode operation lines: %w", err)
	}

	var validatedAt *string
	if op.ValidatedAt != nil {
		v := op.ValidatedAt.Format(time.RFC3339)
		validatedAt = &v
	}

	query := `
		INSERT INTO operations
		(id, reference, kind, contact, scheduled_date, warehouse_id, location_id, address,
		 responsible, status, lines_json, validated_by, validated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contact = excluded.contact,
			scheduled_date = excluded.scheduled_date,
			warehouse_id = excluded.warehouse_id,
			location_id = excluded.location_id,
			address = excluded.address,
			responsible = excluded.responsible,
			status = excluded.status,
			lines_json = excluded.lines_json,
			validated_by = excluded.validated_by,
			validated_at = excluded.validated_at,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		string(op.ID), op.Reference, string(op.Kind), op.Contact,
		op.ScheduledDate.Format(time.RFC3339),
		nullString(string(op.Warehouse)),
		nullString(string(op.Location)),
		op.Address, op.Responsible, string(op.Status),
		string(linesJSON),
		nullString(op.ValidatedBy), validatedAt,
		op.CreatedAt.Format(time.RFC3339), op.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// Get retrieves an operation by ID.
func (s *Store) Get(ctx context.Context, id inventory.OperationID) (*inventory.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, reference, kind, contact, scheduled_date, warehouse_id, location_id, address,
		       responsible, status, lines_json, validated_by, validated_at, created_at, updated_at
		FROM operations WHERE id = ?
	`

	ops, err := s.queryOperations(ctx, query, string(id))
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("operation %s: %w", id, inventory.ErrNotFound)
	}
	return ops[0], nil
}

// List returns operations matching the filter, oldest first.
func (s *Store) List(ctx context.Context, f inventory.OperationFilter) ([]*inventory.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		conds []string
		args  []any
	)
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `
		SELECT id, reference, kind, contact, scheduled_date, warehouse_id, location_id, address,
		       responsible, status, lines_json, validated_by, validated_at, created_at, updated_at
		FROM operations
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	return s.queryOperations(ctx, query, args...)
}

func (s *Store) queryOperations(ctx context.Context, query string, args ...any) ([]*inventory.Operation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var ops []*inventory.Operation
	for rows.Next() {
		var (
			op           inventory.Operation
			scheduled    string
			warehouse    sql.NullString
			location     sql.NullString
			linesJSON    string
			validatedBy  sql.NullString
			validatedAt  sql.NullString
			createdAt    string
			updatedAt    string
		)

		if err := rows.Scan(
			&op.ID, &op.Reference, &op.Kind, &op.Contact, &scheduled,
			&warehouse, &location, &op.Address, &op.Responsible, &op.Status,
			&linesJSON, &validatedBy, &validatedAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		op.ScheduledDate, _ = time.Parse(time.RFC3339, scheduled)
		op.Warehouse = inventory.WarehouseID(warehouse.String)
		op.Location = inventory.LocationID(location.String)
		op.ValidatedBy = validatedBy.String
		if validatedAt.Valid {
			t, _ := time.Parse(time.RFC3339, validatedAt.String)
			op.ValidatedAt = &t
		}
		op.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		op.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		if err := json.Unmarshal([]byte(linesJSON), &op.Lines); err != nil {
			return nil, fmt.Errorf("failed to decode operation lines: %w", err)
		}

		ops = append(ops, &op)
	}
	return ops, rows.Err()
}

// =============================================================================
// CATALOG (inventory.Catalog interface)
// =============================================================================

// SaveProduct upserts a catalog record. Used by seeding; the engine itself
// only reads.
func (s *Store) SaveProduct(ctx context.Context, p inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO products (id, name, sku, unit, unit_cost)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			sku = excluded.sku,
			unit = excluded.unit,
			unit_cost = excluded.unit_cost
	`

	_, err := s.db.ExecContext(ctx, query,
		string(p.ID), p.Name, p.SKU, p.Unit, p.UnitCost.String(),
	)
	return err
}

// Product retrieves a product by ID.
func (s *Store) Product(ctx context.Context, id inventory.ProductID) (*inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p        inventory.Product
		unitCost string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, sku, unit, unit_cost FROM products WHERE id = ?",
		string(id),
	).Scan(&p.ID, &p.Name, &p.SKU, &p.Unit, &unitCost)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, inventory.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	p.UnitCost, _ = decimal.NewFromString(unitCost)
	return &p, nil
}

// Products returns the full catalog, ordered by name.
func (s *Store) Products(ctx context.Context) ([]inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, sku, unit, unit_cost FROM products ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []inventory.Product
	for rows.Next() {
		var (
			p        inventory.Product
			unitCost string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Unit, &unitCost); err != nil {
			return nil, err
		}
		p.UnitCost, _ = decimal.NewFromString(unitCost)
		products = append(products, p)
	}
	return products, rows.Err()
}

// =============================================================================
// TOPOLOGY (inventory.Topology interface)
// =============================================================================

// SaveWarehouse upserts a warehouse record. Seeding only.
func (s *Store) SaveWarehouse(ctx context.Context, w inventory.Warehouse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO warehouses (id, name, code)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code
	`
	_, err := s.db.ExecContext(ctx, query, string(w.ID), w.Name, w.Code)
	return err
}

// SaveLocation upserts a location record. Seeding only.
func (s *Store) SaveLocation(ctx context.Context, l inventory.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO locations (id, name, warehouse_id, is_default)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			warehouse_id = excluded.warehouse_id,
			is_default = excluded.is_default
	`
	_, err := s.db.ExecContext(ctx, query, string(l.ID), l.Name, string(l.Warehouse), l.IsDefault)
	return err
}

// Location retrieves a location by ID.
func (s *Store) Location(ctx context.Context, id inventory.LocationID) (*inventory.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var l inventory.Location
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, warehouse_id, is_default FROM locations WHERE id = ?",
		string(id),
	).Scan(&l.ID, &l.Name, &l.Warehouse, &l.IsDefault)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("location %s: %w", id, inventory.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Locations returns all locations, ordered by name.
func (s *Store) Locations(ctx context.Context) ([]inventory.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLocations(ctx,
		"SELECT id, name, warehouse_id, is_default FROM locations ORDER BY name")
}

// Warehouses returns all warehouses, ordered by name.
func (s *Store) Warehouses(ctx context.Context) ([]inventory.Warehouse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, code FROM warehouses ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warehouses []inventory.Warehouse
	for rows.Next() {
		var w inventory.Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Code); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

// LocationsIn returns every location belonging to the warehouse.
func (s *Store) LocationsIn(ctx context.Context, id inventory.WarehouseID) ([]inventory.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLocations(ctx,
		"SELECT id, name, warehouse_id, is_default FROM locations WHERE warehouse_id = ? ORDER BY name",
		string(id))
}

// DefaultLocation resolves a warehouse to its default stock location,
// falling back to any location when none is flagged.
func (s *Store) DefaultLocation(ctx context.Context, id inventory.WarehouseID) (*inventory.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var l inventory.Location
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, warehouse_id, is_default FROM locations
		 WHERE warehouse_id = ?
		 ORDER BY is_default DESC, name ASC
		 LIMIT 1`,
		string(id),
	).Scan(&l.ID, &l.Name, &l.Warehouse, &l.IsDefault)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("warehouse %s has no locations: %w", id, inventory.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) queryLocations(ctx context.Context, query string, args ...any) ([]inventory.Location, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []inventory.Location
	for rows.Next() {
		var l inventory.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Warehouse, &l.IsDefault); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// =============================================================================
// REFERENCE SOURCE (inventory.RefSource interface)
// =============================================================================

// Next hands out the next reference for a prefix, e.g. "WH/IN/00042".
// The counter increment and read run in one transaction so two callers
// never receive the same reference.
func (s *Store) Next(ctx context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO sequences (prefix, next_value) VALUES (?, 2)
		ON CONFLICT(prefix) DO UPDATE SET next_value = sequences.next_value + 1
	`, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to advance sequence: %w", err)
	}

	var next int
	err = sqlTx.QueryRowContext(ctx,
		"SELECT next_value FROM sequences WHERE prefix = ?", prefix,
	).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("failed to read sequence: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%05d", prefix, next-1), nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"moves", "operations", "products", "locations", "warehouses", "sequences"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
