package yahoo

// Upstream payload shapes. Numeric fields are pointers so that a missing
// value stays distinguishable from zero; strings use "" for missing.

type QuoteResponse struct {
	QuoteResponse *QuoteEnvelope `json:"quoteResponse"`
}

type QuoteEnvelope struct {
	// Result is nil when the field is absent and empty when upstream found nothing.
	Result []RawQuote `json:"result"`
	Error  *RawError  `json:"error"`
}

type RawQuote struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName"`
	LongName                   string   `json:"longName"`
	Currency                   string   `json:"currency"`
	MarketState                string   `json:"marketState"`
	FullExchangeName           string   `json:"fullExchangeName"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChange        *float64 `json:"regularMarketChange"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
	RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        *float64 `json:"regularMarketDayLow"`
	RegularMarketTime          *float64 `json:"regularMarketTime"`
}

type RawError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type SearchResponse struct {
	Quotes []RawSearchQuote `json:"quotes"`
}

type RawSearchQuote struct {
	Symbol    string `json:"symbol"`
	Shortname string `json:"shortname"`
	Longname  string `json:"longname"`
	Exchange  string `json:"exchange"`
	ExchDisp  string `json:"exchDisp"`
	QuoteType string `json:"quoteType"`
}

type ChartResponse struct {
	Chart *ChartEnvelope `json:"chart"`
}

type ChartEnvelope struct {
	Result []ChartResult `json:"result"`
	Error  *RawError     `json:"error"`
}

type ChartResult struct {
	Meta       ChartMeta       `json:"meta"`
	Timestamp  []int64         `json:"timestamp"`
	Indicators ChartIndicators `json:"indicators"`
}

type ChartMeta struct {
	Symbol       string `json:"symbol"`
	Currency     string `json:"currency"`
	ShortName    string `json:"shortName"`
	ExchangeName string `json:"exchangeName"`
}

type ChartIndicators struct {
	Quote []ChartBars `json:"quote"`
}

// ChartBars holds parallel arrays indexed like ChartResult.Timestamp.
// Upstream emits null for days without trades.
type ChartBars struct {
	Open  []*float64 `json:"open"`
	High  []*float64 `json:"high"`
	Low   []*float64 `json:"low"`
	Close []*float64 `json:"close"`
}
