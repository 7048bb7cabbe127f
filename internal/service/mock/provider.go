// Package mock serves canned and synthesized market data when the upstream is unavailable.
package mock

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/sunpark20/lightstock/internal/domain/models"
	"github.com/sunpark20/lightstock/internal/domain/repository"
	"github.com/sunpark20/lightstock/pkg/util"
)

// MinQueryLength is the shortest search query that yields results.
const MinQueryLength = 2

type Option func(*Provider)

// WithClock sets the time source used for updatedAt and lastTradingDate.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// Provider is stateless apart from its clock and safe for concurrent use.
type Provider struct {
	now func() time.Time
}

var _ repository.MockSource = (*Provider)(nil)

func NewProvider(opts ...Option) *Provider {
	p := &Provider{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Quote never fails: known tickers come from a fixed table, others are synthesized from the symbol.
func (p *Provider) Quote(symbol string) models.Quote {
	sym := models.NormalizeSymbol(symbol)
	now := p.now()

	var q models.Quote
	if s, ok := staticQuotes[sym]; ok {
		q = models.Quote{
			Ticker:        sym,
			Name:          s.name,
			Exchange:      s.exchange,
			Price:         models.Float(s.price),
			Change:        models.Float(s.change),
			ChangePercent: models.Float(s.changePercent),
			DayHigh:       models.Float(s.dayHigh),
			DayLow:        models.Float(s.dayLow),
		}
	} else {
		q = synthesize(sym)
	}

	q.Currency = models.DefaultCurrency
	q.UpdatedAt = util.FormatISO(now)
	q.LastTradingDate = util.DateOnly(now)
	q.IsMarketClosed = true
	q.MarketState = models.MarketClosed
	q.IsMockData = true
	return q
}

// Search returns canned matches, then known instruments, then one synthetic entry.
func (p *Provider) Search(query string) []models.SearchResult {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return []models.SearchResult{}
	}
	lower := strings.ToLower(q)

	for _, g := range searchGroups {
		if strings.Contains(g.key, lower) || strings.Contains(lower, g.key) {
			return clone(g.results)
		}
	}

	var out []models.SearchResult
	for _, inst := range knownInstruments {
		if strings.Contains(strings.ToLower(inst.Symbol), lower) ||
			strings.Contains(strings.ToLower(inst.Name), lower) {
			out = append(out, inst)
		}
	}
	if len(out) > 0 {
		return out
	}

	upper := strings.ToUpper(q)
	return []models.SearchResult{{Symbol: upper, Name: upper + " (Mock Data)"}}
}

// synthesize derives plausible values from the symbol so repeated calls agree.
func synthesize(sym string) models.Quote {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sym))
	seed := h.Sum64()
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	price := round2(1 + r.Float64()*999)
	high := round2(price.InexactFloat64() * (1 + r.Float64()*0.03))
	low := round2(price.InexactFloat64() * (1 - r.Float64()*0.03))
	if high.LessThan(price) {
		high = price
	}
	if low.GreaterThan(price) {
		low = price
	}

	return models.Quote{
		Ticker:        sym,
		Name:          sym + " (Mock Data)",
		Price:         models.Float(price.InexactFloat64()),
		Change:        models.Float(round2(r.Float64()*10 - 5).InexactFloat64()),
		ChangePercent: models.Float(round2(r.Float64()*6 - 3).InexactFloat64()),
		DayHigh:       models.Float(high.InexactFloat64()),
		DayLow:        models.Float(low.InexactFloat64()),
	}
}

func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func clone(in []models.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, len(in))
	copy(out, in)
	return out
}
