package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fincrate/fincrate-backend/internal/api"
	"github.com/fincrate/fincrate-backend/internal/auth"
	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/fincrate/fincrate-backend/internal/database"
	"github.com/fincrate/fincrate-backend/internal/logging"
	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/repository"
	"github.com/fincrate/fincrate-backend/internal/scheduler"
	"github.com/fincrate/fincrate-backend/internal/service"
	"github.com/fincrate/fincrate-backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// Amounts are emitted as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	schemaVersion, err := database.Migrate(context.Background(), db)
	if err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.String("path", cfg.Database.Path),
		zap.Int64("schema_version", schemaVersion))

	sellPolicy, err := service.ParseSellPolicy(cfg.Ledger.SellPolicy)
	if err != nil {
		logger.Fatal("Invalid ledger configuration", zap.Error(err))
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("Failed to create token manager", zap.Error(err))
	}
	if cfg.Auth.Secret == "" {
		logger.Warn("AUTH_SECRET is not set; tokens are only valid until restart")
	}

	jobs := scheduler.New(logger)

	// Market data, optionally cached
	var market marketdata.Service = marketdata.NewProvider(cfg.Market, logger)
	if cfg.Market.CacheTTL > 0 {
		cached := marketdata.NewCached(market, cfg.Market.CacheTTL)
		if err := jobs.Add(scheduler.CachePruneJob(cfg.Market.CachePruneSchedule, cached, logger)); err != nil {
			logger.Fatal("Failed to schedule cache pruning", zap.Error(err))
		}
		market = cached
	}

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	// Create services
	systemService := service.NewSystemService(db, map[string]bool{
		"market_cache":     cfg.Market.CacheTTL > 0,
		"yahoo_history":    cfg.Market.YahooEnabled,
		"crypto_quotes":    true,
		"synthetic_series": cfg.Market.SyntheticWhenUnconfigured,
	})
	valuationService := service.NewValuationService(market, cfg.Market.MaxConcurrentFetches, logger)
	pricer := service.NewPositionPricer(market, logger)
	ledger := service.NewHoldingsLedger(db, assetRepo, holdingRepo, transactionRepo, sellPolicy)
	portfolioService := service.NewPortfolioService(portfolioRepo, holdingRepo, pricer, valuationService)
	transactionService := service.NewTransactionService(portfolioRepo, transactionRepo, ledger)

	// Create router
	router := api.NewRouter(api.Services{
		System:      systemService,
		Portfolio:   portfolioService,
		Transaction: transactionService,
		Valuation:   valuationService,
		Market:      market,
		Tokens:      tokens,
	}, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	jobs.Start()

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", version.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs.Stop(ctx)
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("Server exited")
}
