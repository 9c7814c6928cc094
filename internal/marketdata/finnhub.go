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

const sourceFinnhub = "finnhub"

// Finnhub fetches stock quotes and daily candles from finnhub.io.
type Finnhub struct {
	*client
	apiKey string
}

type finnhubQuote struct {
	Current   float64 `json:"c"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	PrevClose float64 `json:"pc"`
	Error     string  `json:"error"`
}

type finnhubCandles struct {
	Status    string    `json:"s"`
	Timestamp []int64   `json:"t"`
	Open      []float64 `json:"o"`
	High      []float64 `json:"h"`
	Low       []float64 `json:"l"`
	Close     []float64 `json:"c"`
	Volume    []float64 `json:"v"`
	Error     string    `json:"error"`
}

// NewFinnhub creates a Finnhub source. It is configured only when FinnhubAPIKey is set.
func NewFinnhub(cfg config.MarketConfig, logger *zap.Logger) *Finnhub {
	return &Finnhub{
		client: newClient(sourceFinnhub, cfg.FinnhubBaseURL, cfg, logger),
		apiKey: cfg.FinnhubAPIKey,
	}
}

// Name returns the source identifier reported in quotes.
func (f *Finnhub) Name() string { return sourceFinnhub }

// Configured reports whether an API key is available.
func (f *Finnhub) Configured() bool { return f.apiKey != "" }

// Quote returns the current price of symbol with the change against the previous close.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	req := f.http.R().SetQueryParams(map[string]string{
		"symbol": symbol,
		"token":  f.apiKey,
	})

	var data finnhubQuote
	if err := f.get(ctx, req, "/quote", &data); err != nil {
		return model.Quote{}, err
	}
	if data.Error != "" {
		return model.Quote{}, f.classify(data.Error)
	}
	if data.Current == 0 && data.High == 0 && data.Low == 0 {
		return model.Quote{}, fmt.Errorf("%s: %w: %s", sourceFinnhub, apperrors.ErrSymbolNotFound, symbol)
	}

	change := data.Current - data.PrevClose
	var changePercent float64
	if data.PrevClose != 0 {
		changePercent = change / data.PrevClose * 100
	}

	return model.Quote{
		Symbol:        symbol,
		Price:         data.Current,
		Change:        round2(change),
		ChangePercent: round2(changePercent),
		Source:        sourceFinnhub,
	}, nil
}

// History returns daily candles covering size.Days() calendar days up to now.
// The free Finnhub tier has no access to candles; that answer is an upstream error.
func (f *Finnhub) History(ctx context.Context, symbol string, size OutputSize, now time.Time) ([]model.PricePoint, error) {
	to := now.Unix()
	from := now.AddDate(0, 0, -size.Days()).Unix()

	req := f.http.R().SetQueryParams(map[string]string{
		"symbol":     symbol,
		"resolution": "D",
		"from":       strconv.FormatInt(from, 10),
		"to":         strconv.FormatInt(to, 10),
		"token":      f.apiKey,
	})

	var data finnhubCandles
	if err := f.get(ctx, req, "/stock/candle", &data); err != nil {
		return nil, err
	}
	if data.Error != "" {
		return nil, f.classify(data.Error)
	}
	if data.Status == "no_data" || len(data.Close) == 0 {
		return nil, fmt.Errorf("%s: %w: no history for %s", sourceFinnhub, apperrors.ErrSymbolNotFound, symbol)
	}

	n := len(data.Timestamp)
	if len(data.Open) != n || len(data.High) != n || len(data.Low) != n || len(data.Close) != n {
		return nil, fmt.Errorf("%s: %w: mismatched candle lengths", sourceFinnhub, apperrors.ErrUpstream)
	}

	points := make([]model.PricePoint, n)
	for i, ts := range data.Timestamp {
		points[i] = model.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Format(dateLayout),
			Open:  data.Open[i],
			High:  data.High[i],
			Low:   data.Low[i],
			Close: data.Close[i],
		}
		if i < len(data.Volume) {
			points[i].Volume = data.Volume[i]
		}
	}
	return points, nil
}

func (f *Finnhub) classify(msg string) error {
	switch {
	case isRateLimitMessage(msg):
		return fmt.Errorf("%s: %w: %s", sourceFinnhub, apperrors.ErrRateLimited, msg)
	case strings.Contains(strings.ToLower(msg), "don't have access"):
		return fmt.Errorf("%s: %w: historical data requires a paid Finnhub plan", sourceFinnhub, apperrors.ErrUpstream)
	default:
		return fmt.Errorf("%s: %w: %s", sourceFinnhub, apperrors.ErrUpstream, msg)
	}
}
