package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "github.com/sunpark20/lightstock/internal/domain/models"
	"github.com/sunpark20/lightstock/internal/domain/repository"
	"github.com/sunpark20/lightstock/internal/service/ratelimit"
	"github.com/sunpark20/lightstock/internal/usecase"
	"github.com/sunpark20/lightstock/pkg/cache"
	xhttp "github.com/sunpark20/lightstock/pkg/http"
	"github.com/sunpark20/lightstock/pkg/http/middleware"
	xlogger "github.com/sunpark20/lightstock/pkg/logger"
	"github.com/sunpark20/lightstock/pkg/metrics"
)

const DataSourceMock = "mock"

// Limiters groups the per-scope request limiters. Nil members are skipped.
type Limiters struct {
	API    *ratelimit.Limiter
	Stock  *ratelimit.Limiter
	Search *ratelimit.Limiter
}

type HandlerOption func(*StockEchoHandler)

// WithHTTPCacheTTL sets how long whole responses are replayed. Zero disables the response cache.
func WithHTTPCacheTTL(ttl time.Duration) HandlerOption {
	return func(h *StockEchoHandler) { h.httpTTL = ttl }
}

func WithLimiters(l Limiters) HandlerOption {
	return func(h *StockEchoHandler) { h.limits = l }
}

// WithAdminRoutes mounts the cache inspection endpoints.
func WithAdminRoutes(enabled bool) HandlerOption {
	return func(h *StockEchoHandler) { h.admin = enabled }
}

func WithHandlerMetrics(m repository.Metrics) HandlerOption {
	return func(h *StockEchoHandler) { h.metrics = m }
}

// StockEchoHandler serves quote and search endpoints.
type StockEchoHandler struct {
	logger    *xlogger.Logger
	svc       *usecase.QuoteService
	httpCache cache.Store
	httpTTL   time.Duration
	limits    Limiters
	admin     bool
	metrics   repository.Metrics
}

func NewStockEchoHandler(logger *xlogger.Logger, svc *usecase.QuoteService, httpCache cache.Store, opts ...HandlerOption) *StockEchoHandler {
	h := &StockEchoHandler{
		logger:    logger,
		svc:       svc,
		httpCache: httpCache,
		httpTTL:   svc.TTL(),
		metrics:   metrics.Noop{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.httpCache == nil {
		h.httpTTL = 0
	}
	return h
}

func (h *StockEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api", RateLimit(h.limits.API, "api", h.logger, h.metrics))
	cached := middleware.ResponseCache(h.httpCache, h.httpTTL, h.logger)

	searchMW := []echo.MiddlewareFunc{cached, RateLimit(h.limits.Search, "search", h.logger, h.metrics)}
	g.GET("/stock/search", h.Search, searchMW...)
	g.GET("/search", h.Search, searchMW...)

	stockMW := []echo.MiddlewareFunc{cached, RateLimit(h.limits.Stock, "stock", h.logger, h.metrics)}
	g.GET("/stock", h.Quote, stockMW...)
	g.GET("/stock/:symbol", h.Quote, stockMW...)

	if h.admin {
		g.GET("/cache/stats", h.CacheStats)
		g.DELETE("/stock/:symbol/cache", h.Invalidate)
	}
}

func (h *StockEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, xhttp.HealthResponse{Status: "ok"})
}

func (h *StockEchoHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q, err := h.svc.GetQuote(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "quote", err)
	}
	h.setCacheHeaders(c, q.IsMockData)
	return xhttp.SuccessResponse(c, q)
}

func (h *StockEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	out, err := h.svc.SearchWithSource(c.Request().Context(), req.Q)
	if err != nil {
		return h.fail(c, "search", err)
	}
	h.setCacheHeaders(c, out.IsMockData)
	return xhttp.SuccessResponse(c, out.Results)
}

func (h *StockEchoHandler) CacheStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.CacheStats())
}

// Invalidate drops the cached quote and every replayable response.
func (h *StockEchoHandler) Invalidate(c echo.Context) error {
	symbol := c.Param("symbol")
	if err := h.svc.Invalidate(symbol); err != nil {
		return h.fail(c, "invalidate", err)
	}
	if h.httpCache != nil {
		h.httpCache.Clear()
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StockEchoHandler) setCacheHeaders(c echo.Context, mock bool) {
	hdr := c.Response().Header()
	hdr.Set(echo.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(h.svc.TTL().Seconds())))
	if mock {
		hdr.Set(middleware.HeaderXDataSource, DataSourceMock)
	}
}

func (h *StockEchoHandler) fail(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		appErr := xhttp.BadRequestError(userMessage(op)).WithError(err)
		if op == "search" {
			appErr.WithParam("min", usecase.MinSearchLength)
		}
		return xhttp.AppErrorResponse(c, appErr)
	case errors.Is(err, models.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("Stock symbol not found").WithError(err))
	case usecase.IsUpstreamFailure(err):
		h.logger.Warn(op+" upstream unavailable", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("Stock data provider is unavailable").WithError(err))
	default:
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}

func userMessage(op string) string {
	switch op {
	case "search":
		return "Search query must be at least 2 characters"
	default:
		return "Stock symbol is required"
	}
}
