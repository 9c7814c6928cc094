package marketdata

import (
	"math"
	"time"
	"unicode/utf16"

	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/shopspring/decimal"
)

const (
	dateLayout      = "2006-01-02"
	sourceSynthetic = "synthetic"
)

// GenerateSyntheticHistory produces a deterministic daily series for symbol
// ending at today's UTC date, one point per calendar day.
//
// The series depends only on the symbol, the size and the date, so repeated
// calls on the same day return identical data. Prices are rounded to cents and
// every point satisfies high >= max(open, close) and low <= min(open, close).
func GenerateSyntheticHistory(symbol string, size OutputSize, today time.Time) []model.PricePoint {
	seed := 0
	for _, unit := range utf16.Encode([]rune(symbol)) {
		seed += int(unit)
	}

	fraction := func(n int) float64 {
		return float64(n%1000) / 1000
	}

	days := size.Days()
	day := today.UTC()
	price := 100 + fraction(seed+12345)*200

	history := make([]model.PricePoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		price *= 1 + (fraction(seed+i)-0.5)*0.06

		open := price * (1 + (fraction(seed+2*i)-0.5)*0.02)
		high := math.Max(open, price) * (1 + fraction(seed+3*i)*0.02)
		low := math.Min(open, price) * (1 - fraction(seed+4*i)*0.02)

		history = append(history, model.PricePoint{
			Date:   day.AddDate(0, 0, -i).Format(dateLayout),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(price),
			Volume: math.Floor(1_000_000 + fraction(seed+5*i)*50_000_000),
		})
	}
	return history
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
