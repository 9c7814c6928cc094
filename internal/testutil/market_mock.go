package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/marketdata"
	"github.com/fincrate/fincrate-backend/internal/model"
)

// MockMarketData is an in-memory marketdata.Service for testing.
// Quotes and histories are configured per symbol; unknown symbols answer
// ErrSymbolNotFound. It is safe for concurrent use.
type MockMarketData struct {
	mu        sync.Mutex
	quotes    map[string]model.Quote
	histories map[string][]model.PricePoint
	errors    map[string]error
	calls     map[string]int
	delay     time.Duration
}

var _ marketdata.Service = (*MockMarketData)(nil)

// NewMockMarketData creates an empty mock.
func NewMockMarketData() *MockMarketData {
	return &MockMarketData{
		quotes:    make(map[string]model.Quote),
		histories: make(map[string][]model.PricePoint),
		errors:    make(map[string]error),
		calls:     make(map[string]int),
	}
}

// WithQuote configures the quote price of a stock symbol or crypto id.
func (m *MockMarketData) WithQuote(symbol string, price float64) *MockMarketData {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[symbol] = model.Quote{Symbol: symbol, Price: price, Source: "mock"}
	return m
}

// WithHistory configures the history returned for symbol.
func (m *MockMarketData) WithHistory(symbol string, points []model.PricePoint) *MockMarketData {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[symbol] = points
	return m
}

// WithError makes every call for symbol fail with err.
func (m *MockMarketData) WithError(symbol string, err error) *MockMarketData {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[symbol] = err
	return m
}

// WithDelay makes every call block for d or until the context is done.
func (m *MockMarketData) WithDelay(d time.Duration) *MockMarketData {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// Calls returns how many times symbol was requested, across all methods.
func (m *MockMarketData) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// GetQuote implements marketdata.Service.
func (m *MockMarketData) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	if err := m.record(ctx, symbol); err != nil {
		return model.Quote{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[symbol]
	if !ok {
		return model.Quote{}, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
	}
	return q, nil
}

// GetCryptoQuote implements marketdata.Service.
func (m *MockMarketData) GetCryptoQuote(ctx context.Context, id string) (model.Quote, error) {
	return m.GetQuote(ctx, id)
}

// GetHistory implements marketdata.Service. The size is ignored.
func (m *MockMarketData) GetHistory(ctx context.Context, symbol string, _ marketdata.OutputSize) ([]model.PricePoint, error) {
	if err := m.record(ctx, symbol); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.histories[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
	}
	return append([]model.PricePoint(nil), h...), nil
}

func (m *MockMarketData) record(ctx context.Context, symbol string) error {
	m.mu.Lock()
	m.calls[symbol]++
	delay := m.delay
	err := m.errors[symbol]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// MakeHistory builds one price point per consecutive day starting at start
// (YYYY-MM-DD). Open, high and low equal the close.
//
// Example usage:
//
//	history := testutil.MakeHistory("2024-01-01", 100, 101, 102)
func MakeHistory(start string, closes ...float64) []model.PricePoint {
	day, err := time.Parse("2006-01-02", start)
	if err != nil {
		panic(fmt.Sprintf("MakeHistory: bad start date %q", start))
	}

	points := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = model.PricePoint{
			Date:   day.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return points
}
