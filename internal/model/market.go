package model

// PricePoint is one day of OHLCV data for a symbol. Date is formatted YYYY-MM-DD.
type PricePoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Quote is a current price snapshot.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Source        string  `json:"source"`
}

// ValuationPoint is a price point together with the dollar value of a position on that day.
type ValuationPoint struct {
	PricePoint
	Value float64 `json:"value"`
}

// ValuationSeries is the daily value of a fixed share count of one symbol.
type ValuationSeries struct {
	Symbol string           `json:"symbol"`
	Shares float64          `json:"shares"`
	Series []ValuationPoint `json:"series"`
}

// TimelinePoint is the total portfolio value on one date.
type TimelinePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}
