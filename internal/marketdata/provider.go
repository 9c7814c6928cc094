package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/fincrate/fincrate-backend/internal/model"
	"go.uber.org/zap"
)

// Service is the market data contract consumed by the valuation and pricing code.
type Service interface {
	// GetQuote returns the current quote of a stock symbol.
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	// GetHistory returns ascending daily price points for a stock symbol.
	GetHistory(ctx context.Context, symbol string, size OutputSize) ([]model.PricePoint, error)
	// GetCryptoQuote returns the current USD quote of a CoinGecko coin id.
	GetCryptoQuote(ctx context.Context, id string) (model.Quote, error)
}

type quoteSource interface {
	Name() string
	Configured() bool
	Quote(ctx context.Context, symbol string) (model.Quote, error)
}

type historySource interface {
	Name() string
	Configured() bool
	History(ctx context.Context, symbol string, size OutputSize, now time.Time) ([]model.PricePoint, error)
}

// Provider answers market data requests from the configured upstream sources.
//
// Quotes come from the first configured quote source (Finnhub, then Alpha Vantage).
// History tries Alpha Vantage, Finnhub and Yahoo in that order and falls through
// on any failure. When every source failed and one of them was rate limited,
// deterministic synthetic history is returned instead of the error.
type Provider struct {
	quotes                    []quoteSource
	histories                 []historySource
	crypto                    *CoinGecko
	syntheticWhenUnconfigured bool
	now                       func() time.Time
	logger                    *zap.Logger
}

var _ Service = (*Provider)(nil)

// NewProvider builds a provider with all sources from cfg.
func NewProvider(cfg config.MarketConfig, logger *zap.Logger) *Provider {
	finnhub := NewFinnhub(cfg, logger)
	alphaVantage := NewAlphaVantage(cfg, logger)
	yahoo := NewYahoo(cfg, logger)

	p := &Provider{
		quotes:                    []quoteSource{finnhub, alphaVantage},
		histories:                 []historySource{alphaVantage, finnhub, yahoo},
		crypto:                    NewCoinGecko(cfg, logger),
		syntheticWhenUnconfigured: cfg.SyntheticWhenUnconfigured,
		now:                       time.Now,
		logger:                    logger,
	}

	var configured []string
	for _, s := range p.histories {
		if s.Configured() {
			configured = append(configured, s.Name())
		}
	}
	if len(configured) == 0 {
		logger.Warn("No market data API keys configured. Set FINNHUB_API or ALPHA_VANTAGE_API")
	} else {
		logger.Info("Market data sources configured", zap.Strings("sources", configured))
	}

	return p
}

// GetQuote returns the quote of symbol from the primary configured source.
func (p *Provider) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return model.Quote{}, fmt.Errorf("%w: symbol is required", apperrors.ErrInvalidInput)
	}

	for _, source := range p.quotes {
		if source.Configured() {
			return source.Quote(ctx, symbol)
		}
	}
	return model.Quote{}, apperrors.ErrNotConfigured
}

// GetHistory returns at most size.Days() ascending daily points for symbol.
func (p *Provider) GetHistory(ctx context.Context, symbol string, size OutputSize) ([]model.PricePoint, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", apperrors.ErrInvalidInput)
	}

	now := p.now()
	var errs []error
	for _, source := range p.histories {
		if !source.Configured() {
			continue
		}
		points, err := source.History(ctx, symbol, size, now)
		if err == nil {
			return sortAndTrim(points, size.Days()), nil
		}
		p.logger.Debug("History source failed",
			zap.String("source", source.Name()),
			zap.String("symbol", symbol),
			zap.Error(err))
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		if p.syntheticWhenUnconfigured {
			return GenerateSyntheticHistory(symbol, size, now), nil
		}
		return nil, apperrors.ErrNotConfigured
	}

	for _, err := range errs {
		if errors.Is(err, apperrors.ErrRateLimited) {
			p.logger.Warn("History rate limited, serving synthetic data",
				zap.String("symbol", symbol),
				zap.Error(err))
			return GenerateSyntheticHistory(symbol, size, now), nil
		}
	}
	return nil, errs[0]
}

// GetCryptoQuote returns the USD quote of a CoinGecko coin id. There is no
// synthetic fallback for crypto.
func (p *Provider) GetCryptoQuote(ctx context.Context, id string) (model.Quote, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return model.Quote{}, fmt.Errorf("%w: coin id is required", apperrors.ErrInvalidInput)
	}
	return p.crypto.Quote(ctx, id)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// sortAndTrim orders points by date, drops duplicate dates and keeps the last days entries.
func sortAndTrim(points []model.PricePoint, days int) []model.PricePoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	unique := points[:0]
	for _, point := range points {
		if len(unique) > 0 && unique[len(unique)-1].Date == point.Date {
			continue
		}
		unique = append(unique, point)
	}

	if len(unique) > days {
		unique = unique[len(unique)-days:]
	}
	return unique
}
