package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PortfolioService handles portfolio-related business logic operations.
// It combines stored holdings with live prices and historical valuations.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	holdingRepo   *repository.HoldingRepository
	pricer        *PositionPricer
	valuation     *ValuationService
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	holdingRepo *repository.HoldingRepository,
	pricer *PositionPricer,
	valuation *ValuationService,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		holdingRepo:   holdingRepo,
		pricer:        pricer,
		valuation:     valuation,
	}
}

// PortfolioTimeline is the historical valuation of a portfolio's stored holdings.
type PortfolioTimeline struct {
	TimelineResult
	// SkippedSymbols lists crypto holdings, which have no history source.
	SkippedSymbols []string
}

// GetPortfolios retrieves all portfolios owned by userID.
func (s *PortfolioService) GetPortfolios(ctx context.Context, userID string) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(ctx, userID)
}

// CreatePortfolio creates a portfolio for userID.
func (s *PortfolioService) CreatePortfolio(ctx context.Context, userID string, name, description string) (model.Portfolio, error) {
	p := model.Portfolio{
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: description,
	}
	if err := s.portfolioRepo.InsertPortfolio(ctx, &p); err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// GetPortfolio returns a portfolio owned by userID with every holding priced at
// the current market, portfolio totals and per-holding allocation.
//
// Holdings are priced concurrently. A holding whose quote fails is still
// returned, degraded, and counted in Totals.FailedHoldings.
func (s *PortfolioService) GetPortfolio(ctx context.Context, userID, portfolioID string) (model.PortfolioDetail, error) {
	portfolio, err := s.portfolioRepo.GetPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return model.PortfolioDetail{}, err
	}

	holdings, err := s.holdingRepo.GetHoldingsWithAssets(ctx, portfolioID)
	if err != nil {
		return model.PortfolioDetail{}, err
	}

	enriched := make([]model.EnrichedHolding, len(holdings))
	var g errgroup.Group
	for i, h := range holdings {
		g.Go(func() error {
			e := s.pricer.PriceHolding(ctx, h.Asset.Symbol, h.Asset.Type, h.Quantity, h.AverageBuyPrice)
			e.AssetID = h.AssetID
			e.Name = h.Asset.Name
			e.Currency = h.Asset.Currency
			enriched[i] = e
			return nil
		})
	}
	_ = g.Wait()

	return model.PortfolioDetail{
		Portfolio: portfolio,
		Holdings:  enriched,
		Totals:    summarize(enriched),
	}, nil
}

// summarize computes portfolio totals and fills in each holding's allocation percent.
func summarize(holdings []model.EnrichedHolding) model.PortfolioTotals {
	var totals model.PortfolioTotals
	value, invested := decimal.Zero, decimal.Zero

	for _, h := range holdings {
		value = value.Add(decimal.NewFromFloat(h.CurrentValue))
		invested = invested.Add(decimal.NewFromFloat(h.InvestedValue))
		if h.PriceError != "" {
			totals.FailedHoldings++
		} else {
			totals.PricedHoldings++
		}
	}

	hundred := decimal.NewFromInt(100)
	for i := range holdings {
		if value.IsPositive() {
			holdings[i].AllocationPercent = decimal.NewFromFloat(holdings[i].CurrentValue).
				Div(value).Mul(hundred).Round(2).InexactFloat64()
		}
	}

	gain := value.Sub(invested)
	totals.CurrentValue = value.Round(2).InexactFloat64()
	totals.InvestedValue = invested.Round(2).InexactFloat64()
	totals.GainLoss = gain.Round(2).InexactFloat64()
	if !invested.IsZero() {
		totals.GainLossPercent = gain.Div(invested).Mul(hundred).Round(2).InexactFloat64()
	}
	return totals
}

// GetPortfolioTimeline values the stored non-crypto holdings of a portfolio over time.
// Returns ErrInvalidInput when the portfolio holds no stock positions.
func (s *PortfolioService) GetPortfolioTimeline(ctx context.Context, userID, portfolioID string, size marketdata.OutputSize) (PortfolioTimeline, error) {
	if _, err := s.portfolioRepo.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return PortfolioTimeline{}, err
	}

	holdings, err := s.holdingRepo.GetHoldingsWithAssets(ctx, portfolioID)
	if err != nil {
		return PortfolioTimeline{}, err
	}

	inputs := make([]HoldingInput, 0, len(holdings))
	skipped := []string{}
	for _, h := range holdings {
		if h.Asset.IsCrypto() {
			skipped = append(skipped, h.Asset.Symbol)
			continue
		}
		inputs = append(inputs, HoldingInput{Symbol: h.Asset.Symbol, Shares: h.Quantity.InexactFloat64()})
	}
	if len(inputs) == 0 {
		return PortfolioTimeline{}, fmt.Errorf("%w: portfolio has no stock holdings to value", apperrors.ErrInvalidInput)
	}

	result, err := s.valuation.BuildTimeline(ctx, inputs, size)
	if err != nil {
		return PortfolioTimeline{}, err
	}
	return PortfolioTimeline{TimelineResult: result, SkippedSymbols: skipped}, nil
}
