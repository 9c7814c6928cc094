package handlers

import (
	"net/http"
	"time"

	"github.com/fincrate/fincrate-backend/internal/api/request"
	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/service"
	"github.com/fincrate/fincrate-backend/internal/validation"
	"github.com/go-chi/chi/v5"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	now              func() time.Time
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		now:              time.Now,
	}
}

// Portfolios handles GET /api/portfolios and lists the caller's portfolios.
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	portfolios, err := h.portfolioService.GetPortfolios(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrievePortfolios.Error())
		return
	}
	if portfolios == nil {
		portfolios = []model.Portfolio{}
	}

	respondJSON(w, http.StatusOK, portfolios)
}

// CreatePortfolio handles POST /api/portfolios.
//
// Request body: {"name": "...", "description": "..."}
// Response: 201 Created with the portfolio
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req request.CreatePortfolioRequest
	if err := parseJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}
	if err := validation.ValidateCreatePortfolio(req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToCreatePortfolio.Error())
		return
	}

	respondJSON(w, http.StatusCreated, portfolio)
}

// Portfolio handles GET /api/portfolios/{uuid}: the portfolio with every holding
// priced at the current market, plus totals.
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	detail, err := h.portfolioService.GetPortfolio(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrievePortfolio.Error())
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// Timeline handles GET /api/portfolios/{uuid}/timeline?outputsize=compact|full.
// Crypto holdings are listed under warnings.unsupportedSymbols.
func (h *PortfolioHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	size, err := marketdata.ParseOutputSize(r.URL.Query().Get("outputsize"))
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	timeline, err := h.portfolioService.GetPortfolioTimeline(r.Context(), userID, chi.URLParam(r, "uuid"), size)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToBuildTimeline.Error())
		return
	}

	respondJSON(w, http.StatusOK, newTimelineResponse(timeline.TimelineResult, size, timeline.SkippedSymbols, h.now()))
}
