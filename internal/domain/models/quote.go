package models

import "strings"

// DefaultCurrency is used when the upstream payload carries no currency.
const DefaultCurrency = "USD"

// MarketState mirrors the upstream market session flag.
type MarketState string

const (
	MarketRegular  MarketState = "REGULAR"
	MarketOpen     MarketState = "OPEN"
	MarketClosed   MarketState = "CLOSED"
	MarketPre      MarketState = "PRE"
	MarketPrePre   MarketState = "PREPRE"
	MarketPost     MarketState = "POST"
	MarketPostPost MarketState = "POSTPOST"
)

// IsOpen reports whether the session counts as a live trading session.
func (s MarketState) IsOpen() bool {
	return s == MarketRegular || s == MarketOpen
}

// Quote is a point-in-time snapshot for one ticker.
// Numeric fields are nil when upstream did not report them and encode as null.
type Quote struct {
	Ticker          string      `json:"ticker"`
	Name            string      `json:"name"`
	Price           *float64    `json:"price"`
	Currency        string      `json:"currency"`
	Change          *float64    `json:"change"`
	ChangePercent   *float64    `json:"changePercent"`
	DayHigh         *float64    `json:"dayHigh"`
	DayLow          *float64    `json:"dayLow"`
	UpdatedAt       string      `json:"updatedAt"`
	IsMarketClosed  bool        `json:"isMarketClosed"`
	MarketState     MarketState `json:"marketState,omitempty"`
	Exchange        string      `json:"exchange,omitempty"`
	LastTradingDate string      `json:"lastTradingDate,omitempty"`
	IsMockData      bool        `json:"isMockData"`
}

type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Clone returns a copy that shares no pointers with q.
func (q Quote) Clone() Quote {
	out := q
	out.Price = cloneFloat(q.Price)
	out.Change = cloneFloat(q.Change)
	out.ChangePercent = cloneFloat(q.ChangePercent)
	out.DayHigh = cloneFloat(q.DayHigh)
	out.DayLow = cloneFloat(q.DayLow)
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}
