package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/fincrate/fincrate-backend/internal/model"
	"go.uber.org/zap"
)

const sourceCoinGecko = "coingecko"

// CoinGecko fetches crypto prices in USD. The public API works without a key;
// a demo or pro key is sent when configured.
type CoinGecko struct {
	*client
	apiKey string
}

// NewCoinGecko creates a CoinGecko source.
func NewCoinGecko(cfg config.MarketConfig, logger *zap.Logger) *CoinGecko {
	c := newClient(sourceCoinGecko, cfg.CoinGeckoBaseURL, cfg, logger)
	if cfg.CoinGeckoAPIKey != "" {
		header := "x-cg-demo-api-key"
		if strings.Contains(cfg.CoinGeckoBaseURL, "pro-api") {
			header = "x-cg-pro-api-key"
		}
		c.http.SetHeader(header, cfg.CoinGeckoAPIKey)
	}

	return &CoinGecko{client: c, apiKey: cfg.CoinGeckoAPIKey}
}

// Quote returns the USD price and 24h change of the coin with the given
// CoinGecko id (for example "bitcoin").
func (g *CoinGecko) Quote(ctx context.Context, id string) (model.Quote, error) {
	req := g.http.R().SetQueryParams(map[string]string{
		"ids":                 id,
		"vs_currencies":       "usd",
		"include_24hr_change": "true",
	})

	var data map[string]map[string]float64
	if err := g.get(ctx, req, "/simple/price", &data); err != nil {
		return model.Quote{}, err
	}

	prices, ok := data[id]
	if !ok {
		return model.Quote{}, fmt.Errorf("%s: %w: %s", sourceCoinGecko, apperrors.ErrSymbolNotFound, id)
	}
	price, ok := prices["usd"]
	if !ok {
		return model.Quote{}, fmt.Errorf("%s: %w: no usd price for %s", sourceCoinGecko, apperrors.ErrSymbolNotFound, id)
	}

	changePercent := prices["usd_24h_change"]
	var change float64
	if changePercent != -100 {
		change = price - price/(1+changePercent/100)
	}

	return model.Quote{
		Symbol:        id,
		Price:         price,
		Change:        round2(change),
		ChangePercent: round2(changePercent),
		Source:        sourceCoinGecko,
	}, nil
}
