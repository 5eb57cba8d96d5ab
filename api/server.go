/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the console frontend

ROUTE GROUPS:
  /api/receipts/*     Receipt lifecycle
  /api/deliveries/*   Delivery lifecycle
  /api/transfers      Immediate internal transfers
  /api/adjustments    Immediate stock adjustments
  /api/moves          Ledger history feed
  /api/stocks         Current stock with valuation
  /api/dashboard      Console summary
  /api/products, /api/locations, /api/warehouses
                      Read-only collaborator data

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Receipt and delivery lifecycles share one handler set; the
		// route group fixes the kind.
		r.Route("/receipts", func(r chi.Router) {
			operationRoutes(r, h, "Receipt")
		})
		r.Route("/deliveries", func(r chi.Router) {
			operationRoutes(r, h, "Delivery")
		})

		// Immediate-effect reconciliation
		r.Post("/transfers", h.CreateTransfer)
		r.Post("/adjustments", h.CreateAdjustment)

		// Ledger and stock reads
		r.Get("/moves", h.ListMoves)
		r.Get("/stocks", h.ListStocks)
		r.Get("/dashboard", h.GetDashboard)

		// Read-only collaborator data
		r.Get("/products", h.ListProducts)
		r.Get("/locations", h.ListLocations)
		r.Get("/warehouses", h.ListWarehouses)
	})

	return r
}

func operationRoutes(r chi.Router, h *Handler, kind string) {
	r.Get("/", h.listOperations(kind))
	r.Post("/", h.createOperation(kind))
	r.Get("/{id}", h.GetOperation)
	r.Put("/{id}", h.UpdateOperation)
	r.Post("/{id}/todo", h.TransitionToDo)
	r.Post("/{id}/recheck", h.RecheckStock)
	r.Post("/{id}/validate", h.ValidateOperation)
	r.Post("/{id}/cancel", h.CancelOperation)
}
