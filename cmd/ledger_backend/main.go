package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	portsrepo "github.com/finacct/ledger_backend/internal/core/ports/repositories"
	"github.com/finacct/ledger_backend/internal/core/services"
	"github.com/finacct/ledger_backend/internal/handlers"
	"github.com/finacct/ledger_backend/internal/middleware"
	"github.com/finacct/ledger_backend/internal/repositories/database/pgsql"
	"github.com/finacct/ledger_backend/internal/repositories/memory"
	"github.com/finacct/ledger_backend/pkg/config"
	"github.com/finacct/ledger_backend/pkg/database"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ledgerRepo, reconciliationRepo, cleanup, err := buildStores(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize stores", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	ledgerService := services.NewLedgerService(ledgerRepo)
	reconciliationService := services.NewReconciliationService(reconciliationRepo, services.NewDefaultScoringStrategy())

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.StructuredLoggingMiddleware(logger))
	r.Use(cors.Default())

	handlers.RegisterRoutes(r, ledgerService, reconciliationService)

	logger.Info("Starting server", slog.String("port", cfg.Port), slog.String("store_backend", cfg.StoreBackend))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildStores wires the repository implementations selected by
// STORE_BACKEND. The returned cleanup releases the database pool when one was
// opened.
func buildStores(cfg *config.Config, logger *slog.Logger) (portsrepo.LedgerRepositoryFacade, portsrepo.ReconciliationRepositoryFacade, func(), error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		logger.Info("Using in-memory stores")
		return memory.NewLedgerStore(), memory.NewReconciliationStore(), func() {}, nil
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			return nil, nil, nil, err
		}
	}

	pool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("Using PostgreSQL stores")
	cleanup := func() { database.ClosePgxPool(pool) }
	return pgsql.NewPgxLedgerRepository(pool), pgsql.NewPgxReconciliationRepository(pool), cleanup, nil
}
