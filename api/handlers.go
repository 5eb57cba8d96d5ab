/*
handlers.go - HTTP API handlers for the inventory console

PURPOSE:
  Exposes the stock ledger and operation lifecycle engine via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Operations (same set under /api/receipts and /api/deliveries):
    GET    /api/receipts               List (optional ?status=)
    POST   /api/receipts               Create Draft
    GET    /api/receipts/{id}          Get one
    PUT    /api/receipts/{id}          Draft-only edits
    POST   /api/receipts/{id}/todo     Draft -> Ready|Waiting
    POST   /api/receipts/{id}/recheck  Waiting -> Ready|Waiting
    POST   /api/receipts/{id}/validate Ready -> Done (ledger commit)
    POST   /api/receipts/{id}/cancel   Close without ledger effect

  Reconciliation:
    POST   /api/transfers              Immediate internal transfer
    POST   /api/adjustments            Immediate adjustment (Set|Add)

  Reads:
    GET    /api/moves                  Ledger feed with filters
    GET    /api/stocks                 Current stock with valuation
    GET    /api/dashboard              Console summary
    GET    /api/products|locations|warehouses

REQUEST FLOW:
  1. Parse HTTP request
  2. Structural validation (dates, enums)
  3. Call domain logic (coordinator, reconciler)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Engine errors map onto HTTP status by classification:
  - 400: Input errors (bad references, malformed quantities)
  - 404: Unknown operation, product or location
  - 409: Invalid transitions, insufficient stock, lock timeouts
         (timeouts additionally flagged retryable)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// LowStockThreshold marks a product as low on the dashboard when its total
// on-hand quantity sits at or below this value.
const LowStockThreshold = 5

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *inventory.Coordinator
	Catalog inventory.Catalog
	Topo    inventory.Topology

	log zerolog.Logger
}

// NewHandler creates a new handler around the engine.
func NewHandler(engine *inventory.Coordinator, catalog inventory.Catalog, topo inventory.Topology, log zerolog.Logger) *Handler {
	return &Handler{Engine: engine, Catalog: catalog, Topo: topo, log: log}
}

// =============================================================================
// OPERATION HANDLERS
// =============================================================================

// listOperations returns the operations of one kind, optionally narrowed
// by ?status=.
func (h *Handler) listOperations(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := inventory.OperationFilter{
			Kind:   inventory.OperationKind(kind),
			Status: inventory.OperationStatus(r.URL.Query().Get("status")),
		}

		ops, err := h.Engine.Operations(r.Context(), filter)
		if err != nil {
			h.writeEngineError(w, "Failed to list operations", err)
			return
		}

		dtos := make([]OperationDTO, len(ops))
		for i, op := range ops {
			dtos[i] = toOperationDTO(op)
		}
		writeJSON(w, http.StatusOK, dtos)
	}
}

// createOperation creates a Draft of one kind.
func (h *Handler) createOperation(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateOperationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}

		draft := inventory.OperationDraft{
			Kind:        inventory.OperationKind(kind),
			Contact:     req.Contact,
			Warehouse:   inventory.WarehouseID(req.WarehouseID),
			Location:    inventory.LocationID(req.LocationID),
			Address:     req.Address,
			Responsible: req.Responsible,
			Lines:       fromLineDTOs(req.Lines),
		}
		if req.ScheduledDate != "" {
			d, err := time.Parse("2006-01-02", req.ScheduledDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid scheduled_date format (use YYYY-MM-DD)", err)
				return
			}
			draft.ScheduledDate = d
		}

		op, err := h.Engine.CreateOperation(r.Context(), draft)
		if err != nil {
			h.writeEngineError(w, "Failed to create operation", err)
			return
		}
		writeJSON(w, http.StatusCreated, toOperationDTO(op))
	}
}

// GetOperation returns a single operation.
func (h *Handler) GetOperation(w http.ResponseWriter, r *http.Request) {
	id := inventory.OperationID(chi.URLParam(r, "id"))

	op, err := h.Engine.Operation(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "Failed to get operation", err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationDTO(op))
}

// UpdateOperation applies Draft-stage edits.
func (h *Handler) UpdateOperation(w http.ResponseWriter, r *http.Request) {
	id := inventory.OperationID(chi.URLParam(r, "id"))

	var req UpdateOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := inventory.OperationUpdate{
		Contact:     req.Contact,
		Address:     req.Address,
		Responsible: req.Responsible,
	}
	if req.ScheduledDate != nil {
		d, err := time.Parse("2006-01-02", *req.ScheduledDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid scheduled_date format (use YYYY-MM-DD)", err)
			return
		}
		upd.ScheduledDate = &d
	}
	if req.Lines != nil {
		upd.Lines = fromLineDTOs(req.Lines)
	}

	op, err := h.Engine.UpdateOperation(r.Context(), id, upd)
	if err != nil {
		h.writeEngineError(w, "Failed to update operation", err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationDTO(op))
}

// TransitionToDo moves a Draft into the active pipeline.
func (h *Handler) TransitionToDo(w http.ResponseWriter, r *http.Request) {
	id := inventory.OperationID(chi.URLParam(r, "id"))

	res, err := h.Engine.TransitionToDo(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "Failed to transition operation", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransitionDTO(id, res))
}

// RecheckStock re-tests a Waiting operation against current stock.
func (h *Handler) RecheckStock(w http.ResponseWriter, r *http.Request) {
	id := inventory.OperationID(chi.URLParam(r, "id"))

	res, err := h.Engine.RecheckStock(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "Failed to recheck operation", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransitionDTO(id, res))
}

// ValidateOperation commits a Ready operation to the ledger.
func (h *Handler) ValidateOperation(w http.ResponseWriter, r *http.Request) {
	id := inventory.OperationID(chi.URLParam(r, "id"))

	var req ValidateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	res, err := h.Engine.Validate(r.Context(), id, req.ValidatedBy)
	if err != nil {
		h.writeEngineError(w, "Failed to validate operation", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransitionDTO(id, res))
}

// CancelOperation closes a not-yet-Done operation.
func (h *Handler) CancelOperation(w http.ResponseWriter, r *http.Request) {
	id := inventory.OperationID(chi.URLParam(r, "id"))

	res, err := h.Engine.Cancel(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "Failed to cancel operation", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransitionDTO(id, res))
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// CreateTransfer executes an immediate internal transfer.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	moveID, err := h.Engine.Transfer(r.Context(), inventory.TransferRequest{
		Product:  inventory.ProductID(req.ProductID),
		From:     inventory.LocationID(req.FromLocationID),
		To:       inventory.LocationID(req.ToLocationID),
		Quantity: req.Quantity,
		Actor:    req.Actor,
	})
	if err != nil {
		h.writeEngineError(w, "Failed to transfer stock", err)
		return
	}
	writeJSON(w, http.StatusCreated, MoveCreatedDTO{MoveID: string(moveID), Applied: true})
}

// CreateAdjustment executes an immediate stock adjustment.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	moveID, err := h.Engine.Adjust(r.Context(), inventory.AdjustmentRequest{
		Product:  inventory.ProductID(req.ProductID),
		Location: inventory.LocationID(req.LocationID),
		Quantity: req.Quantity,
		Mode:     inventory.AdjustMode(req.Mode),
		Actor:    req.Actor,
	})
	if err != nil {
		h.writeEngineError(w, "Failed to adjust stock", err)
		return
	}

	if moveID == "" {
		// Set landed exactly on the current quantity; nothing was written.
		writeJSON(w, http.StatusOK, MoveCreatedDTO{Applied: false})
		return
	}
	writeJSON(w, http.StatusCreated, MoveCreatedDTO{MoveID: string(moveID), Applied: true})
}

// =============================================================================
// LEDGER AND STOCK HANDLERS
// =============================================================================

// ListMoves returns the ledger feed, date ascending.
// Filters: ?product_id= &location_id= &type= &reference= &from= &to=
func (h *Handler) ListMoves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := inventory.MoveFilter{
		Product:   inventory.ProductID(q.Get("product_id")),
		Location:  inventory.LocationID(q.Get("location_id")),
		Type:      inventory.MoveType(q.Get("type")),
		Reference: q.Get("reference"),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		filter.DateFrom = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		// Inclusive through end of day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}

	moves, err := h.Engine.Moves(r.Context(), filter)
	if err != nil {
		h.writeEngineError(w, "Failed to list moves", err)
		return
	}
	writeJSON(w, http.StatusOK, toMoveDTOs(moves))
}

// ListStocks returns current stock joined with catalog data.
// Filters: ?product_id= &location_id=
func (h *Handler) ListStocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows := h.Engine.CurrentStock(
		inventory.ProductID(q.Get("product_id")),
		inventory.LocationID(q.Get("location_id")),
	)

	products, err := h.Catalog.Products(r.Context())
	if err != nil {
		h.writeEngineError(w, "Failed to load catalog", err)
		return
	}
	byID := make(map[inventory.ProductID]inventory.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	dtos := make([]StockRowDTO, len(rows))
	for i, row := range rows {
		p := byID[row.Product]
		dtos[i] = StockRowDTO{
			ProductID:   string(row.Product),
			ProductName: p.Name,
			SKU:         p.SKU,
			LocationID:  string(row.Location),
			Quantity:    row.Quantity,
			UnitCost:    p.UnitCost,
			Value:       p.UnitCost.Mul(decimal.NewFromInt(row.Quantity)),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDashboard returns the console summary: operation counts by status,
// total stock valuation and low-stock product count.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ops, err := h.Engine.Operations(ctx, inventory.OperationFilter{})
	if err != nil {
		h.writeEngineError(w, "Failed to list operations", err)
		return
	}
	byStatus := make(map[string]int)
	for _, op := range ops {
		byStatus[string(op.Status)]++
	}

	products, err := h.Catalog.Products(ctx)
	if err != nil {
		h.writeEngineError(w, "Failed to load catalog", err)
		return
	}
	byID := make(map[inventory.ProductID]inventory.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	valuation := decimal.Zero
	totals := make(map[inventory.ProductID]int64)
	for _, row := range h.Engine.CurrentStock("", "") {
		totals[row.Product] += row.Quantity
		valuation = valuation.Add(byID[row.Product].UnitCost.Mul(decimal.NewFromInt(row.Quantity)))
	}

	lowStock := 0
	for _, p := range products {
		if totals[p.ID] <= LowStockThreshold {
			lowStock++
		}
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		OperationsByStatus: byStatus,
		TotalValuation:     valuation,
		ProductCount:       len(products),
		LowStockProducts:   lowStock,
	})
}

// =============================================================================
// COLLABORATOR HANDLERS (read-only)
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.Products(r.Context())
	if err != nil {
		h.writeEngineError(w, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = ProductDTO{
			ID: string(p.ID), Name: p.Name, SKU: p.SKU, Unit: p.Unit, UnitCost: p.UnitCost,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Topo.Locations(r.Context())
	if err != nil {
		h.writeEngineError(w, "Failed to list locations", err)
		return
	}

	dtos := make([]LocationDTO, len(locations))
	for i, l := range locations {
		dtos[i] = LocationDTO{
			ID: string(l.ID), Name: l.Name, WarehouseID: string(l.Warehouse), IsDefault: l.IsDefault,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.Topo.Warehouses(r.Context())
	if err != nil {
		h.writeEngineError(w, "Failed to list warehouses", err)
		return
	}

	dtos := make([]WarehouseDTO, len(warehouses))
	for i, wh := range warehouses {
		dtos[i] = WarehouseDTO{ID: string(wh.ID), Name: wh.Name, Code: wh.Code}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeEngineError classifies a domain error onto an HTTP status.
func (h *Handler) writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, inventory.ErrValidationInput):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, inventory.ErrInvalidTransition),
		errors.Is(err, inventory.ErrInsufficientStock):
		writeError(w, http.StatusConflict, message, err)
	case inventory.IsRetryable(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: message, Retryable: true, Details: err.Error(),
		})
	default:
		h.log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
