package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/sunpark20/lightstock/internal/domain/models"
	"github.com/sunpark20/lightstock/internal/domain/repository"
	"github.com/sunpark20/lightstock/pkg/cache"
	applogger "github.com/sunpark20/lightstock/pkg/logger"
	"github.com/sunpark20/lightstock/pkg/metrics"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	MinSearchLength = 2

	sourceLive       = "live"
	sourceHistorical = "historical"
	sourceMock       = "mock"
)

// QuoteCacheKey is the data-cache key for a normalized ticker.
func QuoteCacheKey(symbol string) string {
	return cache.GenerateKey("quote", models.NormalizeSymbol(symbol))
}

// SearchCacheKey is the data-cache key for a search query.
func SearchCacheKey(query string) string {
	return cache.GenerateKey("search", strings.ToLower(strings.TrimSpace(query)))
}

// SearchOutcome is a search answer together with where it came from.
type SearchOutcome struct {
	Results    []models.SearchResult `json:"results"`
	IsMockData bool                  `json:"isMockData"`
}

type QuoteServiceOption func(*QuoteService)

func WithTTL(ttl time.Duration) QuoteServiceOption {
	return func(s *QuoteService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCacheMock controls whether mock answers are cached like live ones.
func WithCacheMock(enabled bool) QuoteServiceOption {
	return func(s *QuoteService) { s.cacheMock = enabled }
}

func WithMockFallback(enabled bool) QuoteServiceOption {
	return func(s *QuoteService) { s.mockFallback = enabled }
}

func WithHistoricalFallback(enabled bool) QuoteServiceOption {
	return func(s *QuoteService) { s.historical = enabled }
}

// WithCoalescing makes concurrent misses for one key share a single upstream call.
func WithCoalescing(enabled bool) QuoteServiceOption {
	return func(s *QuoteService) {
		if enabled {
			s.flight = &singleflight.Group{}
		} else {
			s.flight = nil
		}
	}
}

func WithServiceMetrics(m repository.Metrics) QuoteServiceOption {
	return func(s *QuoteService) { s.metrics = m }
}

func WithServiceLogger(l *applogger.Logger) QuoteServiceOption {
	return func(s *QuoteService) { s.logger = l }
}

// QuoteService answers quote and search requests from the cache, the upstream
// API, the historical chart and finally the mock source, in that order.
type QuoteService struct {
	upstream repository.QuoteProvider
	mock     repository.MockSource
	store    cache.Store

	ttl          time.Duration
	cacheMock    bool
	mockFallback bool
	historical   bool
	flight       *singleflight.Group

	metrics repository.Metrics
	logger  *applogger.Logger
}

func NewQuoteService(upstream repository.QuoteProvider, mock repository.MockSource, store cache.Store, opts ...QuoteServiceOption) *QuoteService {
	s := &QuoteService{
		upstream:     upstream,
		mock:         mock,
		store:        store,
		ttl:          DefaultCacheTTL,
		cacheMock:    true,
		mockFallback: true,
		historical:   true,
		metrics:      metrics.Noop{},
		logger:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL is the lifetime of cached answers.
func (s *QuoteService) TTL() time.Duration { return s.ttl }

func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	sym := models.NormalizeSymbol(symbol)
	if sym == "" {
		return models.Quote{}, fmt.Errorf("%w: symbol is required", models.ErrInvalidArgument)
	}
	key := QuoteCacheKey(sym)

	if q, err := cache.GetJSON[models.Quote](s.store, key); err == nil {
		s.metrics.RecordCacheLookup("quote", true)
		s.logger.Debug("quote cache hit", applogger.String("symbol", sym))
		return q, nil
	}
	s.metrics.RecordCacheLookup("quote", false)

	if s.flight == nil {
		return s.loadQuote(ctx, key, sym)
	}
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.loadQuote(ctx, key, sym)
	})
	if err != nil {
		return models.Quote{}, err
	}
	return v.(models.Quote).Clone(), nil
}

func (s *QuoteService) loadQuote(ctx context.Context, key, sym string) (models.Quote, error) {
	ctx = context.WithoutCancel(ctx)

	q, liveErr := s.upstream.Quote(ctx, sym)
	if liveErr == nil {
		q.Ticker = sym
		s.remember(key, q, sourceLive)
		return q, nil
	}
	s.logger.Warn("live quote failed",
		applogger.String("symbol", sym),
		applogger.Error(liveErr),
	)

	var histErr error
	if s.historical {
		q, histErr = s.upstream.LastClose(ctx, sym)
		if histErr == nil {
			q.Ticker = sym
			s.metrics.RecordFallback("quote", sourceHistorical)
			s.remember(key, q, sourceHistorical)
			return q, nil
		}
		s.logger.Warn("historical quote failed",
			applogger.String("symbol", sym),
			applogger.Error(histErr),
		)
	}

	if !s.mockFallback {
		s.metrics.RecordError("quote_unavailable")
		if models.IsNotFound(liveErr) && (!s.historical || models.IsNotFound(histErr)) {
			return models.Quote{}, fmt.Errorf("%w: symbol %s", models.ErrNotFound, sym)
		}
		cause := liveErr
		if histErr != nil && models.IsNotFound(liveErr) {
			cause = histErr
		}
		return models.Quote{}, fmt.Errorf("quote %s: %w", sym, cause)
	}

	q = s.mock.Quote(sym)
	s.metrics.RecordFallback("quote", sourceMock)
	s.logger.Warn("serving mock quote", applogger.String("symbol", sym))
	if s.cacheMock {
		s.remember(key, q, sourceMock)
	}
	return q, nil
}

// Search returns instruments matching query.
func (s *QuoteService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	out, err := s.SearchWithSource(ctx, query)
	return out.Results, err
}

// SearchWithSource is Search that also reports whether the results are mock data.
func (s *QuoteService) SearchWithSource(ctx context.Context, query string) (SearchOutcome, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinSearchLength {
		return SearchOutcome{Results: []models.SearchResult{}},
			fmt.Errorf("%w: query must be at least %d characters", models.ErrInvalidArgument, MinSearchLength)
	}
	key := SearchCacheKey(q)

	if out, err := cache.GetJSON[SearchOutcome](s.store, key); err == nil {
		s.metrics.RecordCacheLookup("search", true)
		s.logger.Debug("search cache hit", applogger.String("query", q))
		return out, nil
	}
	s.metrics.RecordCacheLookup("search", false)

	if s.flight == nil {
		return s.loadSearch(ctx, key, q)
	}
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.loadSearch(ctx, key, q)
	})
	if err != nil {
		return SearchOutcome{Results: []models.SearchResult{}}, err
	}
	out := v.(SearchOutcome)
	out.Results = append([]models.SearchResult(nil), out.Results...)
	return out, nil
}

func (s *QuoteService) loadSearch(ctx context.Context, key, q string) (SearchOutcome, error) {
	results, err := s.upstream.Search(context.WithoutCancel(ctx), q)
	if err == nil {
		if results == nil {
			results = []models.SearchResult{}
		}
		out := SearchOutcome{Results: results}
		s.remember(key, out, sourceLive)
		return out, nil
	}
	s.logger.Warn("live search failed",
		applogger.String("query", q),
		applogger.Error(err),
	)

	if !s.mockFallback {
		s.metrics.RecordError("search_unavailable")
		return SearchOutcome{Results: []models.SearchResult{}}, fmt.Errorf("search %q: %w", q, err)
	}

	out := SearchOutcome{Results: s.mock.Search(q), IsMockData: true}
	s.metrics.RecordFallback("search", sourceMock)
	if s.cacheMock {
		s.remember(key, out, sourceMock)
	}
	return out, nil
}

// Invalidate drops the cached quote for symbol.
func (s *QuoteService) Invalidate(symbol string) error {
	sym := models.NormalizeSymbol(symbol)
	if sym == "" {
		return fmt.Errorf("%w: symbol is required", models.ErrInvalidArgument)
	}
	s.store.Delete(QuoteCacheKey(sym))
	s.logger.Info("quote cache invalidated", applogger.String("symbol", sym))
	return nil
}

func (s *QuoteService) CacheStats() models.CacheStats {
	st := s.store.Stats()
	return models.CacheStats{Size: st.Size, Keys: st.Keys}
}

func (s *QuoteService) remember(key string, v any, source string) {
	if err := cache.SetJSON(s.store, key, v, s.ttl); err != nil {
		s.metrics.RecordError("cache_encode")
		s.logger.Error("cache store failed",
			applogger.String("key", key),
			applogger.String("source", source),
			applogger.Error(err),
		)
	}
}

// IsUpstreamFailure reports whether err came from the finance API rather than the caller.
func IsUpstreamFailure(err error) bool {
	var ue *models.UpstreamError
	return errors.As(err, &ue) || errors.Is(err, models.ErrMalformedUpstreamData)
}
