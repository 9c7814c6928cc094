// Package api wires the HTTP handlers into a chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fincrate/fincrate-backend/internal/api/handlers"
	custommiddleware "github.com/fincrate/fincrate-backend/internal/api/middleware"
	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/service"
)

// Services bundles everything the router exposes over HTTP.
type Services struct {
	System      *service.SystemService
	Portfolio   *service.PortfolioService
	Transaction *service.TransactionService
	Valuation   *service.ValuationService
	Market      marketdata.Service
	Tokens      custommiddleware.TokenVerifier
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolios", func(r chi.Router) {
			r.Use(custommiddleware.Authenticate(svc.Tokens))

			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio)
			transactionHandler := handlers.NewTransactionHandler(svc.Transaction)

			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", portfolioHandler.Portfolio)
				r.Get("/timeline", portfolioHandler.Timeline)
				r.Get("/transactions", transactionHandler.Transactions)
				r.Post("/transactions", transactionHandler.CreateTransaction)
			})
		})

		r.Route("/market", func(r chi.Router) {
			marketHandler := handlers.NewMarketHandler(svc.Market, svc.Valuation)
			r.Get("/quote/{symbol}", marketHandler.Quote)
			r.Get("/crypto/{id}", marketHandler.CryptoQuote)
			r.Get("/history/{symbol}", marketHandler.History)
			r.Post("/portfolio", marketHandler.Portfolio)
		})
	})

	return r
}
