package yahoo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sunpark20/lightstock/internal/domain/models"
	"github.com/sunpark20/lightstock/pkg/util"
)

// searchTypes are the instrument kinds kept from search results.
var searchTypes = map[string]bool{
	"EQUITY":         true,
	"ETF":            true,
	"MUTUALFUND":     true,
	"INDEX":          true,
	"CRYPTOCURRENCY": true,
}

// NormalizeQuote maps the first quote of a quote payload.
func NormalizeQuote(raw QuoteResponse, now time.Time) (models.Quote, error) {
	if raw.QuoteResponse == nil || raw.QuoteResponse.Result == nil {
		return models.Quote{}, fmt.Errorf("%w: quoteResponse.result missing", models.ErrMalformedUpstreamData)
	}
	if len(raw.QuoteResponse.Result) == 0 {
		return models.Quote{}, fmt.Errorf("%w: %w: empty quote result", models.ErrMalformedUpstreamData, models.ErrNotFound)
	}

	r := raw.QuoteResponse.Result[0]
	symbol := models.NormalizeSymbol(r.Symbol)
	if symbol == "" {
		return models.Quote{}, fmt.Errorf("%w: quote without symbol", models.ErrMalformedUpstreamData)
	}

	state := models.MarketState(strings.ToUpper(strings.TrimSpace(r.MarketState)))
	if state == "" {
		state = models.MarketClosed
	}

	updatedAt := util.FormatISO(now)
	if r.RegularMarketTime != nil && *r.RegularMarketTime > 0 {
		updatedAt = util.FormatUnixISO(int64(*r.RegularMarketTime))
	}

	return models.Quote{
		Ticker:         symbol,
		Name:           firstNonEmpty(r.ShortName, r.LongName, symbol),
		Price:          r.RegularMarketPrice,
		Currency:       firstNonEmpty(r.Currency, models.DefaultCurrency),
		Change:         r.RegularMarketChange,
		ChangePercent:  r.RegularMarketChangePercent,
		DayHigh:        r.RegularMarketDayHigh,
		DayLow:         r.RegularMarketDayLow,
		UpdatedAt:      updatedAt,
		IsMarketClosed: !state.IsOpen(),
		MarketState:    state,
		Exchange:       r.FullExchangeName,
	}, nil
}

// NormalizeSearch keeps instruments with a symbol and a short name, in upstream order.
func NormalizeSearch(raw SearchResponse) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(raw.Quotes))
	for _, q := range raw.Quotes {
		if q.Symbol == "" || q.Shortname == "" {
			continue
		}
		kind := strings.ToUpper(q.QuoteType)
		if kind != "" && !searchTypes[kind] {
			continue
		}
		out = append(out, models.SearchResult{
			Symbol:   q.Symbol,
			Name:     q.Shortname,
			Exchange: firstNonEmpty(q.ExchDisp, q.Exchange),
			Type:     kind,
		})
	}
	return out
}

// NormalizeChart builds a closed-market quote from the latest daily bar.
// A bar without a timestamp is dated now.
func NormalizeChart(raw ChartResponse, symbol string, now time.Time) (models.Quote, error) {
	if raw.Chart == nil || raw.Chart.Result == nil {
		return models.Quote{}, fmt.Errorf("%w: chart.result missing", models.ErrMalformedUpstreamData)
	}
	if len(raw.Chart.Result) == 0 {
		return models.Quote{}, fmt.Errorf("%w: %w: empty chart result", models.ErrMalformedUpstreamData, models.ErrNotFound)
	}

	res := raw.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return models.Quote{}, fmt.Errorf("%w: chart without bars", models.ErrMalformedUpstreamData)
	}
	bars := res.Indicators.Quote[0]

	last := lastValid(bars.Close, len(bars.Close)-1)
	if last < 0 {
		return models.Quote{}, fmt.Errorf("%w: %w: chart without closes", models.ErrMalformedUpstreamData, models.ErrNotFound)
	}

	sym := models.NormalizeSymbol(firstNonEmpty(res.Meta.Symbol, symbol))
	q := models.Quote{
		Ticker:         sym,
		Name:           firstNonEmpty(res.Meta.ShortName, res.Meta.ExchangeName, sym),
		Price:          bars.Close[last],
		Currency:       firstNonEmpty(res.Meta.Currency, models.DefaultCurrency),
		DayHigh:        at(bars.High, last),
		DayLow:         at(bars.Low, last),
		IsMarketClosed: true,
		MarketState:    models.MarketClosed,
	}

	if prev := lastValid(bars.Close, last-1); prev >= 0 {
		p, c := *bars.Close[prev], *bars.Close[last]
		q.Change = models.Float(c - p)
		if p != 0 {
			q.ChangePercent = models.Float((c - p) / p * 100)
		}
	}

	barTime := now
	if last < len(res.Timestamp) && res.Timestamp[last] > 0 {
		barTime = time.Unix(res.Timestamp[last], 0)
	}
	q.UpdatedAt = util.FormatUnixISO(barTime.Unix())
	q.LastTradingDate = util.DateOnly(barTime)
	return q, nil
}

func ParseQuote(body []byte, now time.Time) (models.Quote, error) {
	var raw QuoteResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.Quote{}, fmt.Errorf("%w: decode quote: %v", models.ErrMalformedUpstreamData, err)
	}
	return NormalizeQuote(raw, now)
}

func ParseSearch(body []byte) ([]models.SearchResult, error) {
	var raw SearchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", models.ErrMalformedUpstreamData, err)
	}
	return NormalizeSearch(raw), nil
}

func ParseChart(body []byte, symbol string, now time.Time) (models.Quote, error) {
	var raw ChartResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.Quote{}, fmt.Errorf("%w: decode chart: %v", models.ErrMalformedUpstreamData, err)
	}
	return NormalizeChart(raw, symbol, now)
}

// lastValid returns the highest index <= from holding a value, or -1.
func lastValid(xs []*float64, from int) int {
	for i := from; i >= 0; i-- {
		if i < len(xs) && xs[i] != nil {
			return i
		}
	}
	return -1
}

func at(xs []*float64, i int) *float64 {
	if i < 0 || i >= len(xs) {
		return nil
	}
	return xs[i]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
