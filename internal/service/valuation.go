package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HoldingInput is one requested position of a batch valuation.
type HoldingInput struct {
	Symbol string
	Shares float64
}

// TimelineResult is the outcome of a batch valuation.
type TimelineResult struct {
	Timeline      []model.TimelinePoint
	Holdings      []model.ValuationSeries
	FailedSymbols []string
}

// ValuationService values positions over time and sums them into a portfolio timeline.
type ValuationService struct {
	market         marketdata.Service
	maxConcurrency int
	logger         *zap.Logger
}

// NewValuationService creates a ValuationService. maxConcurrency caps parallel
// history fetches; zero or less means no cap.
func NewValuationService(market marketdata.Service, maxConcurrency int, logger *zap.Logger) *ValuationService {
	return &ValuationService{
		market:         market,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// NormalizeHoldings trims and upper-cases symbols and drops entries with an
// empty symbol or a share count that is not a positive finite number.
// Order is preserved.
func NormalizeHoldings(inputs []HoldingInput) []HoldingInput {
	out := make([]HoldingInput, 0, len(inputs))
	for _, in := range inputs {
		symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
		if symbol == "" || math.IsNaN(in.Shares) || math.IsInf(in.Shares, 0) || in.Shares <= 0 {
			continue
		}
		out = append(out, HoldingInput{Symbol: symbol, Shares: in.Shares})
	}
	return out
}

// BuildTimeline fetches the history of every holding concurrently and builds
// per-holding valuation series plus the summed portfolio timeline.
//
// A failed symbol is reported in FailedSymbols and excluded from the timeline.
// Only when every symbol fails is an *apperrors.UpstreamUnavailableError returned.
// Series and failed symbols follow input order; timeline dates are ascending and unique.
func (s *ValuationService) BuildTimeline(ctx context.Context, inputs []HoldingInput, size marketdata.OutputSize) (TimelineResult, error) {
	holdings := NormalizeHoldings(inputs)
	if len(holdings) == 0 {
		return TimelineResult{}, fmt.Errorf("%w: provide at least one holding with a symbol and positive shares", apperrors.ErrInvalidInput)
	}

	histories := make([][]model.PricePoint, len(holdings))
	errs := make([]error, len(holdings))

	// Each goroutine records its own outcome and returns nil, so one failure
	// never cancels the other fetches.
	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}
	for i, h := range holdings {
		g.Go(func() error {
			histories[i], errs[i] = s.market.GetHistory(ctx, h.Symbol, size)
			return nil
		})
	}
	_ = g.Wait()

	result := TimelineResult{
		Holdings:      []model.ValuationSeries{},
		FailedSymbols: []string{},
	}
	totals := make(map[string]decimal.Decimal)

	for i, h := range holdings {
		if errs[i] != nil {
			s.logger.Warn("Failed to fetch history",
				zap.String("symbol", h.Symbol),
				zap.Error(errs[i]))
			result.FailedSymbols = append(result.FailedSymbols, h.Symbol)
			continue
		}

		series, values := valueSeries(h, histories[i])
		result.Holdings = append(result.Holdings, series)
		for date, v := range values {
			totals[date] = totals[date].Add(v)
		}
	}

	if len(result.Holdings) == 0 {
		return TimelineResult{}, &apperrors.UpstreamUnavailableError{FailedSymbols: result.FailedSymbols}
	}

	result.Timeline = sumTimeline(totals)
	return result, nil
}

// valueSeries computes close times shares for every point, rounded to cents,
// and returns the same values keyed by date for summing.
func valueSeries(h HoldingInput, history []model.PricePoint) (model.ValuationSeries, map[string]decimal.Decimal) {
	shares := decimal.NewFromFloat(h.Shares)
	series := model.ValuationSeries{
		Symbol: h.Symbol,
		Shares: h.Shares,
		Series: make([]model.ValuationPoint, 0, len(history)),
	}
	values := make(map[string]decimal.Decimal, len(history))

	for _, p := range history {
		value := decimal.NewFromFloat(p.Close).Mul(shares).Round(2)
		values[p.Date] = values[p.Date].Add(value)
		series.Series = append(series.Series, model.ValuationPoint{
			PricePoint: p,
			Value:      value.InexactFloat64(),
		})
	}
	return series, values
}

func sumTimeline(totals map[string]decimal.Decimal) []model.TimelinePoint {
	dates := make([]string, 0, len(totals))
	for date := range totals {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	timeline := make([]model.TimelinePoint, len(dates))
	for i, date := range dates {
		timeline[i] = model.TimelinePoint{Date: date, Value: totals[date].Round(2).InexactFloat64()}
	}
	return timeline
}

