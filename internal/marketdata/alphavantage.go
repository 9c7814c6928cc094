package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/fincrate/fincrate-backend/internal/model"
	"go.uber.org/zap"
)

const sourceAlphaVantage = "alphavantage"

// AlphaVantage fetches global quotes and daily time series from alphavantage.co.
type AlphaVantage struct {
	*client
	apiKey string
}

// alphaVantageStatus holds the informational fields Alpha Vantage returns
// with HTTP 200 instead of data.
type alphaVantageStatus struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

type alphaVantageQuote struct {
	alphaVantageStatus
	GlobalQuote map[string]string `json:"Global Quote"`
}

type alphaVantageDay struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type alphaVantageSeries struct {
	alphaVantageStatus
	TimeSeries map[string]alphaVantageDay `json:"Time Series (Daily)"`
}

// NewAlphaVantage creates an Alpha Vantage source. It is configured only when
// AlphaVantageAPIKey is set.
func NewAlphaVantage(cfg config.MarketConfig, logger *zap.Logger) *AlphaVantage {
	return &AlphaVantage{
		client: newClient(sourceAlphaVantage, cfg.AlphaVantageURL, cfg, logger),
		apiKey: cfg.AlphaVantageAPIKey,
	}
}

// Name returns the source identifier reported in quotes.
func (a *AlphaVantage) Name() string { return sourceAlphaVantage }

// Configured reports whether an API key is available.
func (a *AlphaVantage) Configured() bool { return a.apiKey != "" }

// Quote returns the GLOBAL_QUOTE of symbol.
func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	req := a.http.R().SetQueryParams(map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
		"apikey":   a.apiKey,
	})

	var data alphaVantageQuote
	if err := a.get(ctx, req, "/query", &data); err != nil {
		return model.Quote{}, err
	}
	if err := data.err(symbol); err != nil {
		return model.Quote{}, err
	}
	if len(data.GlobalQuote) == 0 {
		return model.Quote{}, fmt.Errorf("%s: %w: %s", sourceAlphaVantage, apperrors.ErrSymbolNotFound, symbol)
	}

	price, err := parseNumber(data.GlobalQuote["05. price"])
	if err != nil {
		return model.Quote{}, fmt.Errorf("%s: %w: invalid price: %v", sourceAlphaVantage, apperrors.ErrUpstream, err)
	}
	change, _ := parseNumber(data.GlobalQuote["09. change"])
	changePercent, _ := parseNumber(strings.TrimSuffix(data.GlobalQuote["10. change percent"], "%"))

	return model.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		Source:        sourceAlphaVantage,
	}, nil
}

// History returns the TIME_SERIES_DAILY of symbol. Points come back unordered;
// the provider sorts and trims them.
func (a *AlphaVantage) History(ctx context.Context, symbol string, size OutputSize, _ time.Time) ([]model.PricePoint, error) {
	req := a.http.R().SetQueryParams(map[string]string{
		"function":   "TIME_SERIES_DAILY",
		"symbol":     symbol,
		"outputsize": string(size),
		"apikey":     a.apiKey,
	})

	var data alphaVantageSeries
	if err := a.get(ctx, req, "/query", &data); err != nil {
		return nil, err
	}
	if err := data.err(symbol); err != nil {
		return nil, err
	}
	if len(data.TimeSeries) == 0 {
		return nil, fmt.Errorf("%s: %w: no history for %s", sourceAlphaVantage, apperrors.ErrSymbolNotFound, symbol)
	}

	points := make([]model.PricePoint, 0, len(data.TimeSeries))
	for date, day := range data.TimeSeries {
		point := model.PricePoint{Date: date}
		var err error
		if point.Open, err = parseNumber(day.Open); err != nil {
			return nil, fmt.Errorf("%s: %w: invalid open on %s", sourceAlphaVantage, apperrors.ErrUpstream, date)
		}
		if point.High, err = parseNumber(day.High); err != nil {
			return nil, fmt.Errorf("%s: %w: invalid high on %s", sourceAlphaVantage, apperrors.ErrUpstream, date)
		}
		if point.Low, err = parseNumber(day.Low); err != nil {
			return nil, fmt.Errorf("%s: %w: invalid low on %s", sourceAlphaVantage, apperrors.ErrUpstream, date)
		}
		if point.Close, err = parseNumber(day.Close); err != nil {
			return nil, fmt.Errorf("%s: %w: invalid close on %s", sourceAlphaVantage, apperrors.ErrUpstream, date)
		}
		point.Volume, _ = parseNumber(day.Volume)
		points = append(points, point)
	}
	return points, nil
}

// err converts the informational fields into classified errors.
// A Note is always a throttling notice. An Information message is one only
// when it talks about request quotas.
func (s alphaVantageStatus) err(symbol string) error {
	switch {
	case s.ErrorMessage != "":
		return fmt.Errorf("%s: %w: %s: %s", sourceAlphaVantage, apperrors.ErrSymbolNotFound, symbol, s.ErrorMessage)
	case s.Note != "":
		return fmt.Errorf("%s: %w: %s", sourceAlphaVantage, apperrors.ErrRateLimited, s.Note)
	case s.Information != "" && isRateLimitMessage(s.Information):
		return fmt.Errorf("%s: %w: %s", sourceAlphaVantage, apperrors.ErrRateLimited, s.Information)
	case s.Information != "":
		return fmt.Errorf("%s: %w: %s", sourceAlphaVantage, apperrors.ErrUpstream, s.Information)
	}
	return nil
}

func parseNumber(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}
