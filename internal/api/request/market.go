package request

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MarketPortfolioRequest represents the body of an ad-hoc batch valuation.
type MarketPortfolioRequest struct {
	Holdings   []LooseHolding `json:"holdings"`
	OutputSize string         `json:"outputsize"`
}

// LooseHolding is a requested (symbol, shares) pair decoded leniently.
// A symbol that is not a JSON string decodes as empty. Shares may be a number
// or a numeric string; anything else decodes as NaN. Invalid entries are
// dropped later by the valuation service rather than failing the request.
type LooseHolding struct {
	Symbol string
	Shares float64
}

// UnmarshalJSON implements lenient decoding of a holding entry.
func (h *LooseHolding) UnmarshalJSON(data []byte) error {
	h.Symbol = ""
	h.Shares = math.NaN()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Entries that are not objects are skipped, not rejected.
		return nil
	}

	if raw, ok := fields["symbol"]; ok {
		var symbol string
		if json.Unmarshal(raw, &symbol) == nil {
			h.Symbol = symbol
		}
	}

	if raw, ok := fields["shares"]; ok {
		h.Shares = parseLooseNumber(raw)
	}
	return nil
}

func parseLooseNumber(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)

	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return math.NaN()
}
