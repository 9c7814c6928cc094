package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/fincrate/fincrate-backend/internal/model"
	"go.uber.org/zap"
)

const sourceYahoo = "yahoo"

// Yahoo fetches daily price charts from the Yahoo Finance chart API.
// It needs no credentials and is enabled explicitly through MarketConfig.YahooEnabled.
type Yahoo struct {
	*client
	enabled bool
}

// yahooChart maps the chart API response. Prices are pointers because Yahoo
// reports null for days without trading.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// NewYahoo creates a Yahoo chart source.
func NewYahoo(cfg config.MarketConfig, logger *zap.Logger) *Yahoo {
	c := newClient(sourceYahoo, cfg.YahooBaseURL, cfg, logger)
	c.http.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	c.http.SetHeader("Accept", "application/json")

	return &Yahoo{client: c, enabled: cfg.YahooEnabled}
}

// Name returns the source identifier.
func (y *Yahoo) Name() string { return sourceYahoo }

// Configured reports whether the source was enabled.
func (y *Yahoo) Configured() bool { return y.enabled }

// History fetches daily data for symbol between now minus size.Days() and now.
func (y *Yahoo) History(ctx context.Context, symbol string, size OutputSize, now time.Time) ([]model.PricePoint, error) {
	req := y.http.R().
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"period1":  strconv.FormatInt(now.AddDate(0, 0, -size.Days()).Unix(), 10),
			"period2":  strconv.FormatInt(now.Unix(), 10),
		})

	var data yahooChart
	if err := y.get(ctx, req, "/v8/finance/chart/{symbol}", &data); err != nil {
		return nil, err
	}
	return parseYahooChart(symbol, data)
}

// parseYahooChart converts a chart response into price points. Days with a
// missing open, high, low or close are skipped.
func parseYahooChart(symbol string, data yahooChart) ([]model.PricePoint, error) {
	if data.Chart.Error != nil {
		if data.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w: %s", sourceYahoo, apperrors.ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("%s: %w: %s", sourceYahoo, apperrors.ErrUpstream, data.Chart.Error.Description)
	}
	if len(data.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w: no results returned for %s", sourceYahoo, apperrors.ErrSymbolNotFound, symbol)
	}

	result := data.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w: no price data returned for %s", sourceYahoo, apperrors.ErrSymbolNotFound, symbol)
	}

	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n || len(quote.Close) != n {
		return nil, fmt.Errorf("%s: %w: mismatched data lengths", sourceYahoo, apperrors.ErrUpstream)
	}

	points := make([]model.PricePoint, 0, n)
	for i, ts := range result.Timestamp {
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		point := model.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Format(dateLayout),
			Open:  *quote.Open[i],
			High:  *quote.High[i],
			Low:   *quote.Low[i],
			Close: *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			point.Volume = *quote.Volume[i]
		}
		points = append(points, point)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w: no close prices returned for %s", sourceYahoo, apperrors.ErrSymbolNotFound, symbol)
	}
	return points, nil
}
