package di

import (
	"fmt"

	"github.com/sunpark20/lightstock/internal/domain/repository"
	"github.com/sunpark20/lightstock/internal/handler/api"
	"github.com/sunpark20/lightstock/internal/service/mock"
	"github.com/sunpark20/lightstock/internal/service/ratelimit"
	"github.com/sunpark20/lightstock/internal/service/yahoo"
	"github.com/sunpark20/lightstock/internal/usecase"
	"github.com/sunpark20/lightstock/pkg/cache"
	"github.com/sunpark20/lightstock/pkg/config"
	xhttp "github.com/sunpark20/lightstock/pkg/http"
	applogger "github.com/sunpark20/lightstock/pkg/logger"
	"github.com/sunpark20/lightstock/pkg/metrics"
	"github.com/sunpark20/lightstock/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideMemoryCache creates the process-wide store shared by the data and response caches.
func ProvideMemoryCache(cfg *config.Config) *cache.MemoryCache {
	return cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
		cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
	)
}

// ProvideFetcher creates the retrying upstream fetcher.
func ProvideFetcher(cfg *config.Config, logger *applogger.Logger) *yahoo.Fetcher {
	return yahoo.NewFetcher(
		yahoo.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Upstream.Timeout))),
		yahoo.WithRetryLimit(cfg.Upstream.RetryLimit),
		yahoo.WithBackoff(cfg.Upstream.RetryBackoff),
		yahoo.WithUserAgent(cfg.Upstream.UserAgent),
		yahoo.WithFetcherLogger(logger),
	)
}

// ProvideQuoteProvider creates the finance API client.
func ProvideQuoteProvider(
	cfg *config.Config,
	fetcher *yahoo.Fetcher,
	m repository.Metrics,
	logger *applogger.Logger,
) repository.QuoteProvider {
	return yahoo.NewClient(cfg.Upstream.BaseURL, fetcher,
		yahoo.WithMetrics(m),
		yahoo.WithLogger(logger),
		yahoo.WithHistoryDays(cfg.Upstream.HistoryDays),
		yahoo.WithSearchLimit(cfg.Upstream.SearchLimit),
	)
}

// ProvideMockSource creates the offline data source.
func ProvideMockSource() repository.MockSource {
	return mock.NewProvider()
}

// ProvideQuoteService creates the quote use case.
func ProvideQuoteService(
	cfg *config.Config,
	upstream repository.QuoteProvider,
	mockSource repository.MockSource,
	store *cache.MemoryCache,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.QuoteService {
	return usecase.NewQuoteService(upstream, mockSource, store,
		usecase.WithTTL(cfg.Cache.Duration),
		usecase.WithCacheMock(cfg.Cache.CacheMock),
		usecase.WithMockFallback(cfg.Fallback.Mock),
		usecase.WithHistoricalFallback(cfg.Fallback.Historical),
		usecase.WithCoalescing(cfg.Cache.CoalesceMisses),
		usecase.WithServiceMetrics(m),
		usecase.WithServiceLogger(logger),
	)
}

// ProvideLimiters creates one limiter per rate-limit scope, or none when disabled.
func ProvideLimiters(cfg *config.Config) api.Limiters {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return api.Limiters{}
	}
	newLimiter := func(r config.Rule) *ratelimit.Limiter {
		return ratelimit.New(r.Limit, r.Window, ratelimit.WithSweep(r.Window))
	}
	return api.Limiters{
		API:    newLimiter(rl.API),
		Stock:  newLimiter(rl.Stock),
		Search: newLimiter(rl.Search),
	}
}

// ProvideHTTPHandler creates the stock HTTP handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	logger *applogger.Logger,
	svc *usecase.QuoteService,
	store *cache.MemoryCache,
	limiters api.Limiters,
	m repository.Metrics,
) xhttp.Handler {
	return api.NewStockEchoHandler(logger, svc, cache.NewNamespace(store, "http"),
		api.WithHTTPCacheTTL(cfg.Cache.HTTPDuration),
		api.WithLimiters(limiters),
		api.WithAdminRoutes(cfg.IsDevelopment()),
		api.WithHandlerMetrics(m),
	)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, logger *applogger.Logger, handler xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(logger),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithHiddenErrors(cfg.IsProduction()),
	)
}

// ProvideClosers lists resources released after the HTTP server stops.
func ProvideClosers(store *cache.MemoryCache, limiters api.Limiters) server.Closers {
	closers := server.Closers{store}
	for _, l := range []*ratelimit.Limiter{limiters.API, limiters.Stock, limiters.Search} {
		if l != nil {
			closers = append(closers, l)
		}
	}
	return closers
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	httpServer *xhttp.Server,
	closers server.Closers,
) *server.App {
	return server.New(cfg, logger, httpServer, closers)
}
