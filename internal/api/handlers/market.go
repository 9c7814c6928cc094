package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/fincrate/fincrate-backend/internal/api/request"
	"github.com/fincrate/fincrate-backend/internal/api/response"
	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// MarketHandler handles the public market data endpoints.
type MarketHandler struct {
	market    marketdata.Service
	valuation *service.ValuationService
	now       func() time.Time
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(market marketdata.Service, valuation *service.ValuationService) *MarketHandler {
	return &MarketHandler{
		market:    market,
		valuation: valuation,
		now:       time.Now,
	}
}

// HistoryResponse is the body of GET /api/market/history/{symbol}.
type HistoryResponse struct {
	Symbol  string             `json:"symbol"`
	History []model.PricePoint `json:"history"`
}

// TimelineMeta describes how a timeline was produced.
type TimelineMeta struct {
	OutputSize  marketdata.OutputSize `json:"outputsize"`
	LastUpdated time.Time             `json:"lastUpdated"`
}

// TimelineWarnings lists holdings left out of a timeline.
type TimelineWarnings struct {
	// SkippedSymbols failed to fetch.
	SkippedSymbols []string `json:"skippedSymbols,omitempty"`
	// UnsupportedSymbols have no history source (crypto holdings).
	UnsupportedSymbols []string `json:"unsupportedSymbols,omitempty"`
}

// TimelineResponse is the body of a successful batch valuation.
// Warnings is omitted when every holding was valued.
type TimelineResponse struct {
	Timeline []model.TimelinePoint   `json:"timeline"`
	Holdings []model.ValuationSeries `json:"holdings"`
	Meta     TimelineMeta            `json:"meta"`
	Warnings *TimelineWarnings       `json:"warnings,omitempty"`
}

func newTimelineResponse(result service.TimelineResult, size marketdata.OutputSize, unsupported []string, now time.Time) TimelineResponse {
	resp := TimelineResponse{
		Timeline: result.Timeline,
		Holdings: result.Holdings,
		Meta: TimelineMeta{
			OutputSize:  size,
			LastUpdated: now.UTC(),
		},
	}
	if resp.Timeline == nil {
		resp.Timeline = []model.TimelinePoint{}
	}
	if len(result.FailedSymbols) > 0 || len(unsupported) > 0 {
		resp.Warnings = &TimelineWarnings{
			SkippedSymbols:     result.FailedSymbols,
			UnsupportedSymbols: unsupported,
		}
	}
	return resp
}

// Quote handles GET /api/market/quote/{symbol}.
func (h *MarketHandler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		response.RespondError(w, http.StatusBadRequest, "symbol is required", "")
		return
	}

	quote, err := h.market.GetQuote(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, err, "failed to fetch quote")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// CryptoQuote handles GET /api/market/crypto/{id}. The id is a CoinGecko coin id.
func (h *MarketHandler) CryptoQuote(w http.ResponseWriter, r *http.Request) {
	id := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "id")))
	if id == "" {
		response.RespondError(w, http.StatusBadRequest, "coin id is required", "")
		return
	}

	quote, err := h.market.GetCryptoQuote(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "failed to fetch crypto quote")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// History handles GET /api/market/history/{symbol}?outputsize=compact|full.
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		response.RespondError(w, http.StatusBadRequest, "symbol is required", "")
		return
	}

	size, err := marketdata.ParseOutputSize(r.URL.Query().Get("outputsize"))
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	history, err := h.market.GetHistory(r.Context(), symbol, size)
	if err != nil {
		respondServiceError(w, err, "failed to fetch history")
		return
	}
	respondJSON(w, http.StatusOK, HistoryResponse{Symbol: symbol, History: history})
}

// Portfolio handles POST /api/market/portfolio, the ad-hoc valuation of a list
// of (symbol, shares) pairs that are not stored anywhere.
//
// Returns 400 when the holdings list is missing or has no valid entry and 429
// with failedSymbols when no symbol could be fetched.
func (h *MarketHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	var req request.MarketPortfolioRequest
	if err := parseJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	if len(req.Holdings) == 0 {
		response.RespondError(w, http.StatusBadRequest, "Holdings array is required", "")
		return
	}

	size, err := marketdata.ParseOutputSize(req.OutputSize)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	inputs := make([]service.HoldingInput, len(req.Holdings))
	for i, holding := range req.Holdings {
		inputs[i] = service.HoldingInput{Symbol: holding.Symbol, Shares: holding.Shares}
	}
	if len(service.NormalizeHoldings(inputs)) == 0 {
		response.RespondError(w, http.StatusBadRequest, "Invalid holdings supplied", "")
		return
	}

	result, err := h.valuation.BuildTimeline(r.Context(), inputs, size)
	if err != nil {
		respondServiceError(w, err, "Unable to fetch market data")
		return
	}

	respondJSON(w, http.StatusOK, newTimelineResponse(result, size, nil, h.now()))
}
