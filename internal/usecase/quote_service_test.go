package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sunpark20/lightstock/internal/domain/models"
	"github.com/sunpark20/lightstock/internal/service/mock"
	"github.com/sunpark20/lightstock/internal/usecase"
	"github.com/sunpark20/lightstock/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	upstream *MockQuoteProvider
	store    *cache.MemoryCache
	clock    *fakeClock
	svc      *usecase.QuoteService
}

func newFixture(t *testing.T, opts ...usecase.QuoteServiceOption) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	clock := &fakeClock{now: time.Date(2025, 5, 9, 20, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryCache(cache.WithMemoryClock(clock.Now), cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = store.Close() })

	upstream := NewMockQuoteProvider(ctrl)
	svc := usecase.NewQuoteService(upstream, mock.NewProvider(mock.WithClock(clock.Now)), store, opts...)
	return &fixture{upstream: upstream, store: store, clock: clock, svc: svc}
}

func liveQuote(ticker string, price float64) models.Quote {
	return models.Quote{
		Ticker:         ticker,
		Name:           "Apple Inc.",
		Price:          models.Float(price),
		Currency:       "USD",
		UpdatedAt:      "2025-05-09T20:00:00.000Z",
		IsMarketClosed: true,
		MarketState:    models.MarketClosed,
	}
}

var errUnavailable = &models.UpstreamError{StatusCode: http.StatusServiceUnavailable, Message: "Service Unavailable"}

func TestGetQuoteUppercasesTicker(t *testing.T) {
	f := newFixture(t)
	f.upstream.EXPECT().Quote(gomock.Any(), "AAPL").Return(liveQuote("aapl", 198.53), nil)

	q, err := f.svc.GetQuote(context.Background(), "  aapl ")

	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Ticker)
	assert.False(t, q.IsMockData)
}

func TestGetQuoteServesRepeatsFromCache(t *testing.T) {
	f := newFixture(t)
	f.upstream.EXPECT().Quote(gomock.Any(), "AAPL").Return(liveQuote("AAPL", 198.53), nil).Times(1)

	first, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := f.svc.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, string(a), string(b))
}

func TestGetQuoteCacheReadsAreCopies(t *testing.T) {
	f := newFixture(t)
	f.upstream.EXPECT().Quote(gomock.Any(), "AAPL").Return(liveQuote("AAPL", 198.53), nil).Times(1)

	_, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	hit, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	*hit.Price = 1

	again, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 198.53, *again.Price)
}

func TestGetQuoteRefetchesAfterTTL(t *testing.T) {
	f := newFixture(t, usecase.WithTTL(time.Minute))
	gomock.InOrder(
		f.upstream.EXPECT().Quote(gomock.Any(), "AAPL").Return(liveQuote("AAPL", 198.53), nil),
		f.upstream.EXPECT().Quote(gomock.Any(), "AAPL").Return(liveQuote("AAPL", 199.10), nil),
	)

	first, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	f.clock.Advance(59 * time.Second)
	cached, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, *first.Price, *cached.Price)

	f.clock.Advance(time.Second)
	fresh, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 199.10, *fresh.Price)
}

func TestGetQuoteHistoricalFallback(t *testing.T) {
	f := newFixture(t)
	hist := liveQuote("MSFT", 438.73)
	hist.LastTradingDate = "2025-05-09"
	f.upstream.EXPECT().Quote(gomock.Any(), "MSFT").Return(models.Quote{}, errUnavailable)
	f.upstream.EXPECT().LastClose(gomock.Any(), "MSFT").Return(hist, nil)

	q, err := f.svc.GetQuote(context.Background(), "msft")

	require.NoError(t, err)
	assert.Equal(t, "MSFT", q.Ticker)
	assert.Equal(t, 438.73, *q.Price)
	assert.False(t, q.IsMockData)
	assert.Equal(t, 1, f.store.Stats().Size)
}

func TestGetQuoteFallsBackToMock(t *testing.T) {
	f := newFixture(t)
	f.upstream.EXPECT().Quote(gomock.Any(), "TSLA").Return(models.Quote{}, errUnavailable)
	f.upstream.EXPECT().LastClose(gomock.Any(), "TSLA").Return(models.Quote{}, errUnavailable)

	q, err := f.svc.GetQuote(context.Background(), "TSLA")

	require.NoError(t, err)
	assert.True(t, q.IsMockData)
	assert.Equal(t, "TSLA", q.Ticker)
	assert.Equal(t, 175.33, *q.Price)

	cached, err := f.svc.GetQuote(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.True(t, cached.IsMockData)
}

func TestGetQuoteMockNotCachedWhenDisabled(t *testing.T) {
	f := newFixture(t, usecase.WithCacheMock(false), usecase.WithHistoricalFallback(false))
	f.upstream.EXPECT().Quote(gomock.Any(), "TSLA").Return(models.Quote{}, errUnavailable).Times(2)

	for range 2 {
		q, err := f.svc.GetQuote(context.Background(), "TSLA")
		require.NoError(t, err)
		assert.True(t, q.IsMockData)
	}
	assert.Zero(t, f.store.Stats().Size)
}

func TestGetQuoteWithoutMockFallback(t *testing.T) {
	notFound := &models.UpstreamError{StatusCode: http.StatusNotFound, Message: "Not Found"}
	emptyResult := errors.Join(models.ErrMalformedUpstreamData, models.ErrNotFound)

	tests := []struct {
		name     string
		liveErr  error
		histErr  error
		wantNF   bool
		wantUpst bool
	}{
		{name: "both not found", liveErr: emptyResult, histErr: notFound, wantNF: true},
		{name: "upstream down", liveErr: errUnavailable, histErr: errUnavailable, wantUpst: true},
		{name: "live empty, chart down", liveErr: emptyResult, histErr: errUnavailable, wantUpst: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, usecase.WithMockFallback(false))
			f.upstream.EXPECT().Quote(gomock.Any(), "NOPE").Return(models.Quote{}, tt.liveErr)
			f.upstream.EXPECT().LastClose(gomock.Any(), "NOPE").Return(models.Quote{}, tt.histErr)

			_, err := f.svc.GetQuote(context.Background(), "NOPE")

			require.Error(t, err)
			assert.Equal(t, tt.wantNF, errors.Is(err, models.ErrNotFound))
			if tt.wantUpst {
				assert.True(t, usecase.IsUpstreamFailure(err))
			}
			assert.Zero(t, f.store.Stats().Size)
		})
	}
}

func TestGetQuoteEmptySymbol(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetQuote(context.Background(), "   ")

	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestGetQuoteSurvivesCallerCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.upstream.EXPECT().Quote(gomock.Any(), "AAPL").DoAndReturn(
		func(ctx context.Context, _ string) (models.Quote, error) {
			cancel()
			assert.NoError(t, ctx.Err())
			return liveQuote("AAPL", 198.53), nil
		})

	q, err := f.svc.GetQuote(ctx, "AAPL")

	require.NoError(t, err)
	assert.False(t, q.IsMockData)
}

func TestGetQuoteCoalescesConcurrentMisses(t *testing.T) {
	f := newFixture(t, usecase.WithCoalescing(true))
	release := make(chan struct{})
	f.upstream.EXPECT().Quote(gomock.Any(), "NVDA").DoAndReturn(
		func(context.Context, string) (models.Quote, error) {
			<-release
			return liveQuote("NVDA", 116.65), nil
		}).Times(1)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]models.Quote, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := f.svc.GetQuote(context.Background(), "NVDA")
			assert.NoError(t, err)
			results[i] = q
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, q := range results {
		assert.Equal(t, "NVDA", q.Ticker)
		assert.Equal(t, 116.65, *q.Price)
	}
}

func TestSearchShortQuery(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{"", "a", "  b  "} {
		res, err := f.svc.Search(context.Background(), q)

		assert.ErrorIs(t, err, models.ErrInvalidArgument)
		assert.NotNil(t, res)
		assert.Empty(t, res)
	}
}

func TestSearchCachesByLowercaseQuery(t *testing.T) {
	f := newFixture(t)
	want := []models.SearchResult{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "APLE", Name: "Apple Hospitality REIT"},
	}
	f.upstream.EXPECT().Search(gomock.Any(), "Apple").Return(want, nil).Times(1)

	first, err := f.svc.Search(context.Background(), "Apple")
	require.NoError(t, err)
	second, err := f.svc.Search(context.Background(), "apple")
	require.NoError(t, err)

	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
	_, ok := f.store.Get("search:apple")
	assert.True(t, ok)
}

func TestSearchFallsBackToMock(t *testing.T) {
	f := newFixture(t)
	f.upstream.EXPECT().Search(gomock.Any(), "apple").Return(nil, errUnavailable)

	out, err := f.svc.SearchWithSource(context.Background(), "apple")

	require.NoError(t, err)
	assert.True(t, out.IsMockData)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "AAPL", out.Results[0].Symbol)
}

func TestSearchWithoutMockFallback(t *testing.T) {
	f := newFixture(t, usecase.WithMockFallback(false))
	f.upstream.EXPECT().Search(gomock.Any(), "apple").Return(nil, errUnavailable)

	res, err := f.svc.Search(context.Background(), "apple")

	assert.True(t, usecase.IsUpstreamFailure(err))
	assert.Empty(t, res)
}

func TestInvalidateAndStats(t *testing.T) {
	f := newFixture(t)
	f.upstream.EXPECT().Quote(gomock.Any(), "AAPL").Return(liveQuote("AAPL", 198.53), nil).Times(2)

	_, err := f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"quote:AAPL"}, f.svc.CacheStats().Keys)

	require.NoError(t, f.svc.Invalidate("aapl"))
	assert.Zero(t, f.svc.CacheStats().Size)

	_, err = f.svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Invalidate(""), models.ErrInvalidArgument)
}
