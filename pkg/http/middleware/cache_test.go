package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunpark20/lightstock/pkg/cache"
	applogger "github.com/sunpark20/lightstock/pkg/logger"
)

func newCachedEcho(t *testing.T, ttl time.Duration, calls *int) (*echo.Echo, *cache.MemoryCache) {
	t.Helper()
	store := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = store.Close() })

	e := echo.New()
	e.Use(ResponseCache(cache.NewNamespace(store, "http"), ttl, applogger.Nop()))
	e.GET("/quote", func(c echo.Context) error {
		*calls++
		c.Response().Header().Set(HeaderXDataSource, "mock")
		c.Response().Header().Set("X-Other", "dropped")
		return c.JSON(http.StatusOK, map[string]any{"n": *calls})
	})
	e.GET("/fail", func(c echo.Context) error {
		*calls++
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "nope"})
	})
	return e, store
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestResponseCacheReplaysSuccess(t *testing.T) {
	calls := 0
	e, store := newCachedEcho(t, time.Minute, &calls)

	first := serve(e, http.MethodGet, "/quote?symbol=AAPL")
	second := serve(e, http.MethodGet, "/quote?symbol=AAPL")

	assert.Equal(t, 1, calls)
	assert.Equal(t, CacheMiss, first.Header().Get(HeaderXCache))
	assert.Equal(t, CacheHit, second.Header().Get(HeaderXCache))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "mock", second.Header().Get(HeaderXDataSource))
	assert.Empty(t, second.Header().Get("X-Other"))
	assert.Equal(t, []string{"http:/quote?symbol=AAPL"}, store.Stats().Keys)
}

func TestResponseCacheKeyIncludesQuery(t *testing.T) {
	calls := 0
	e, _ := newCachedEcho(t, time.Minute, &calls)

	serve(e, http.MethodGet, "/quote?symbol=AAPL")
	rec := serve(e, http.MethodGet, "/quote?symbol=MSFT")

	assert.Equal(t, 2, calls)
	assert.Equal(t, CacheMiss, rec.Header().Get(HeaderXCache))
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	calls := 0
	e, store := newCachedEcho(t, time.Minute, &calls)

	serve(e, http.MethodGet, "/fail")
	rec := serve(e, http.MethodGet, "/fail")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 2, calls)
	assert.Zero(t, store.Stats().Size)
}

func TestResponseCacheDisabled(t *testing.T) {
	calls := 0
	e, _ := newCachedEcho(t, 0, &calls)

	serve(e, http.MethodGet, "/quote")
	rec := serve(e, http.MethodGet, "/quote")

	assert.Equal(t, 2, calls)
	assert.Empty(t, rec.Header().Get(HeaderXCache))
}
