/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the inventory engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (viper: defaults, optional file, INVENTORY_* env)
  2. Apply command-line flag overrides
  3. Initialize SQLite store, optionally seed demo data
  4. Rebuild the stock view from full ledger replay
  5. Wire the coordinator and API handler
  6. Start the periodic consistency sweep and the server with graceful
     shutdown

COMMAND-LINE FLAGS:
  -config  Path to a config file (optional)
  -addr    HTTP listen address override
  -db      SQLite database path override
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and demo seed
  INVENTORY_SEED_DEMO=true ./server -db="./data/inventory.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - pkg/config: Configuration loading
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/inventory-engine/api"
	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/pkg/config"
	"github.com/warp/inventory-engine/pkg/logger"
	"github.com/warp/inventory-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	addr := flag.String("addr", "", "HTTP listen address override")
	dbPath := flag.String("db", "", "SQLite database path override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet; fall back to stderr.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	ctx := context.Background()
	if cfg.SeedDemo {
		if err := store.SeedDemo(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
		log.Info().Msg("demo catalog and topology seeded")
	}

	// The materialized view is a cache; on startup it is rebuilt from a
	// full ledger replay so the process never trusts stale state.
	view := inventory.NewStockView(store, log)
	if err := view.Rebuild(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("failed to rebuild stock view")
	}

	ledger := inventory.NewStockLedger(store, view)
	engine := inventory.NewCoordinator(ledger, view, store, store, store, store, cfg.LockWait, log)

	handler := api.NewHandler(engine, store, store, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Periodic consistency sweep: every materialized entry is replayed
	// against the ledger and healed if it diverged. VerifyStock logs the
	// heal itself; the joined error here is the operator signal.
	verifyCtx, stopVerify := context.WithCancel(ctx)
	defer stopVerify()
	if cfg.VerifyInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.VerifyInterval)
			defer ticker.Stop()
			for {
				select {
				case <-verifyCtx.Done():
					return
				case <-ticker.C:
					if err := engine.VerifyStock(verifyCtx); err != nil {
						log.Error().Err(err).Msg("stock view diverged from ledger")
					}
				}
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
