/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Operations:
    OperationDTO, LineDTO, CreateOperationRequest, UpdateOperationRequest,
    TransitionDTO

  Ledger:
    MoveDTO

  Reconciliation:
    TransferRequestDTO, AdjustmentRequestDTO, MoveCreatedDTO

  Stock:
    StockRowDTO, DashboardDTO

  Collaborators:
    ProductDTO, LocationDTO, WarehouseDTO

VALIDATION:
  Structural validation (JSON shape, date formats) is done in handlers;
  domain validation lives in the engine. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: The domain model these map onto
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// OPERATION TYPES
// =============================================================================

// LineDTO is one product/quantity pair on an operation.
type LineDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// OperationDTO represents a receipt or delivery in API responses.
type OperationDTO struct {
	ID            string    `json:"id"`
	Reference     string    `json:"reference"`
	Kind          string    `json:"kind"`
	Contact       string    `json:"contact,omitempty"`
	ScheduledDate string    `json:"scheduled_date,omitempty"`
	WarehouseID   string    `json:"warehouse_id,omitempty"`
	LocationID    string    `json:"location_id,omitempty"`
	Address       string    `json:"address,omitempty"`
	Responsible   string    `json:"responsible,omitempty"`
	Status        string    `json:"status"`
	Lines         []LineDTO `json:"lines"`
	ValidatedBy   string    `json:"validated_by,omitempty"`
	ValidatedAt   *string   `json:"validated_at,omitempty"`
	CreatedAt     string    `json:"created_at"`
	UpdatedAt     string    `json:"updated_at"`
}

// CreateOperationRequest is the request to create a Draft receipt or
// delivery. Exactly one of warehouse_id / location_id names the endpoint.
type CreateOperationRequest struct {
	Contact       string    `json:"contact"`
	ScheduledDate string    `json:"scheduled_date"`
	WarehouseID   string    `json:"warehouse_id"`
	LocationID    string    `json:"location_id"`
	Address       string    `json:"address"`
	Responsible   string    `json:"responsible"`
	Lines         []LineDTO `json:"lines"`
}

// UpdateOperationRequest carries Draft-stage edits. Omitted fields are
// left unchanged; lines, when present, replace the whole set.
type UpdateOperationRequest struct {
	Contact       *string   `json:"contact,omitempty"`
	ScheduledDate *string   `json:"scheduled_date,omitempty"`
	Address       *string   `json:"address,omitempty"`
	Responsible   *string   `json:"responsible,omitempty"`
	Lines         []LineDTO `json:"lines,omitempty"`
}

// TransitionDTO reports where a lifecycle action landed the operation,
// with per-line shortfalls when it landed in Waiting.
type TransitionDTO struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Shortfalls []ShortfallDTO `json:"shortfalls,omitempty"`
}

// ShortfallDTO is one line current stock could not cover.
type ShortfallDTO struct {
	ProductID string `json:"product_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// ValidateRequest names who validates; recorded on the operation and its
// moves.
type ValidateRequest struct {
	ValidatedBy string `json:"validated_by"`
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// MoveDTO represents a stock ledger entry.
type MoveDTO struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Type       string `json:"type"`
	Reference  string `json:"reference"`
	ProductID  string `json:"product_id"`
	FromID     string `json:"from_location_id,omitempty"`
	ToID       string `json:"to_location_id,omitempty"`
	Quantity   int64  `json:"quantity"`
	CreatedBy  string `json:"created_by,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// MoveCreatedDTO is the response after an immediate transfer or
// adjustment. A Set adjustment landing exactly on the current quantity
// emits no move and reports applied=false.
type MoveCreatedDTO struct {
	MoveID  string `json:"move_id,omitempty"`
	Applied bool   `json:"applied"`
}

// =============================================================================
// RECONCILIATION TYPES
// =============================================================================

// TransferRequestDTO is the request for an immediate internal transfer.
type TransferRequestDTO struct {
	ProductID      string `json:"product_id"`
	FromLocationID string `json:"from_location_id"`
	ToLocationID   string `json:"to_location_id"`
	Quantity       int64  `json:"quantity"`
	Actor          string `json:"actor"`
}

// AdjustmentRequestDTO is the request for an immediate adjustment.
// Mode "Set" replaces the current quantity; "Add" applies the signed
// quantity as given.
type AdjustmentRequestDTO struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
	Mode       string `json:"mode"`
	Actor      string `json:"actor"`
}

// =============================================================================
// STOCK AND DASHBOARD TYPES
// =============================================================================

// StockRowDTO is one materialized (product, location) quantity, joined
// with catalog data for display.
type StockRowDTO struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	LocationID  string          `json:"location_id"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Value       decimal.Decimal `json:"value"`
}

// DashboardDTO is the console landing-page summary.
type DashboardDTO struct {
	OperationsByStatus map[string]int  `json:"operations_by_status"`
	TotalValuation     decimal.Decimal `json:"total_valuation"`
	ProductCount       int             `json:"product_count"`
	LowStockProducts   int             `json:"low_stock_products"`
}

// =============================================================================
// COLLABORATOR TYPES
// =============================================================================

type ProductDTO struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku,omitempty"`
	Unit     string          `json:"unit,omitempty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

type LocationDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WarehouseID string `json:"warehouse_id"`
	IsDefault   bool   `json:"is_default"`
}

type WarehouseDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toOperationDTO(op *inventory.Operation) OperationDTO {
	dto := OperationDTO{
		ID:          string(op.ID),
		Reference:   op.Reference,
		Kind:        string(op.Kind),
		Contact:     op.Contact,
		WarehouseID: string(op.Warehouse),
		LocationID:  string(op.Location),
		Address:     op.Address,
		Responsible: op.Responsible,
		Status:      string(op.Status),
		Lines:       toLineDTOs(op.Lines),
		ValidatedBy: op.ValidatedBy,
		CreatedAt:   op.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   op.UpdatedAt.Format(time.RFC3339),
	}
	if !op.ScheduledDate.IsZero() {
		dto.ScheduledDate = op.ScheduledDate.Format("2006-01-02")
	}
	if op.ValidatedAt != nil {
		v := op.ValidatedAt.Format(time.RFC3339)
		dto.ValidatedAt = &v
	}
	return dto
}

func toLineDTOs(lines []inventory.Line) []LineDTO {
	dtos := make([]LineDTO, len(lines))
	for i, ln := range lines {
		dtos[i] = LineDTO{ProductID: string(ln.Product), Quantity: ln.Quantity}
	}
	return dtos
}

func fromLineDTOs(dtos []LineDTO) []inventory.Line {
	lines := make([]inventory.Line, len(dtos))
	for i, d := range dtos {
		lines[i] = inventory.Line{Product: inventory.ProductID(d.ProductID), Quantity: d.Quantity}
	}
	return lines
}

func toMoveDTO(m inventory.Move) MoveDTO {
	return MoveDTO{
		ID:        string(m.ID),
		Date:      m.Date.Format(time.RFC3339),
		Type:      string(m.Type),
		Reference: m.Reference,
		ProductID: string(m.Product),
		FromID:    string(m.From),
		ToID:      string(m.To),
		Quantity:  m.Quantity,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

func toMoveDTOs(ms []inventory.Move) []MoveDTO {
	dtos := make([]MoveDTO, len(ms))
	for i, m := range ms {
		dtos[i] = toMoveDTO(m)
	}
	return dtos
}

func toTransitionDTO(id inventory.OperationID, res inventory.TransitionResult) TransitionDTO {
	dto := TransitionDTO{ID: string(id), Status: string(res.Status)}
	for _, s := range res.Shortfalls {
		dto.Shortfalls = append(dto.Shortfalls, ShortfallDTO{
			ProductID: string(s.Product),
			Requested: s.Requested,
			Available: s.Available,
		})
	}
	return dto
}
