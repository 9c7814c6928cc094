package model

import "time"

// User is the owner of portfolios. Only the identifier is used by the core;
// authentication is handled by the token middleware.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
}

// Portfolio represents a portfolio from the database
type Portfolio struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PortfolioTotals aggregates the priced holdings of a portfolio.
// Holdings whose live price is unavailable contribute zero current value.
type PortfolioTotals struct {
	CurrentValue    float64 `json:"currentValue"`
	InvestedValue   float64 `json:"investedValue"`
	GainLoss        float64 `json:"gainLoss"`
	GainLossPercent float64 `json:"gainLossPercent"`
	PricedHoldings  int     `json:"pricedHoldings"`
	FailedHoldings  int     `json:"failedHoldings"`
}

// PortfolioDetail is a portfolio with its holdings priced at the current market.
type PortfolioDetail struct {
	Portfolio
	Holdings []EnrichedHolding `json:"holdings"`
	Totals   PortfolioTotals   `json:"totals"`
}
