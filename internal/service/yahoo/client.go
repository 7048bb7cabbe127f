package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sunpark20/lightstock/internal/domain/models"
	"github.com/sunpark20/lightstock/internal/domain/repository"
	applogger "github.com/sunpark20/lightstock/pkg/logger"
	"github.com/sunpark20/lightstock/pkg/metrics"
	"github.com/sunpark20/lightstock/pkg/util"
)

const (
	DefaultBaseURL     = "https://query1.finance.yahoo.com"
	DefaultHistoryDays = 7
	DefaultSearchLimit = 10
)

// ClientOption configures Client.
type ClientOption func(*Client)

// Client talks to a Yahoo-style finance API and implements repository.QuoteProvider.
type Client struct {
	baseURL     string
	fetcher     *Fetcher
	metrics     repository.Metrics
	logger      *applogger.Logger
	now         func() time.Time
	historyDays int
	searchLimit int
}

var _ repository.QuoteProvider = (*Client)(nil)

func NewClient(baseURL string, fetcher *Fetcher, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		fetcher:     fetcher,
		metrics:     metrics.Noop{},
		logger:      applogger.Nop(),
		now:         time.Now,
		historyDays: DefaultHistoryDays,
		searchLimit: DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithMetrics(m repository.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *applogger.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// WithHistoryDays sets how far back the chart fallback looks.
func WithHistoryDays(days int) ClientOption {
	return func(c *Client) {
		if days > 1 {
			c.historyDays = days
		}
	}
}

func WithSearchLimit(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	u := fmt.Sprintf("%s/v8/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))
	body, err := c.fetch(ctx, "quote", u)
	if err != nil {
		return models.Quote{}, err
	}
	q, err := ParseQuote(body, c.now())
	if err != nil {
		c.metrics.RecordError("quote_parse")
		return models.Quote{}, err
	}
	return q, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=%d&newsCount=0",
		c.baseURL, url.QueryEscape(query), c.searchLimit)
	body, err := c.fetch(ctx, "search", u)
	if err != nil {
		return nil, err
	}
	res, err := ParseSearch(body)
	if err != nil {
		c.metrics.RecordError("search_parse")
		return nil, err
	}
	return res, nil
}

func (c *Client) LastClose(ctx context.Context, symbol string) (models.Quote, error) {
	now := c.now()
	from, to := util.DaysAgo(now, c.historyDays)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		c.baseURL, url.PathEscape(symbol), from, to)
	body, err := c.fetch(ctx, "chart", u)
	if err != nil {
		return models.Quote{}, err
	}
	q, err := ParseChart(body, symbol, now)
	if err != nil {
		c.metrics.RecordError("chart_parse")
		return models.Quote{}, err
	}
	return q, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, u string) ([]byte, error) {
	start := time.Now()
	body, err := c.fetcher.Fetch(ctx, u, nil)
	c.metrics.RecordLatency("upstream_"+endpoint, time.Since(start).Seconds())
	c.metrics.RecordUpstreamRequest(endpoint, resultLabel(err))
	if err != nil {
		c.logger.Debug("upstream call failed",
			applogger.String("endpoint", endpoint),
			applogger.Error(err),
		)
	}
	return body, err
}

func resultLabel(err error) string {
	var ue *models.UpstreamError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ue) && ue.StatusCode == 0:
		return "network"
	case errors.As(err, &ue):
		return fmt.Sprintf("http_%d", ue.StatusCode)
	case errors.Is(err, models.ErrMalformedUpstreamData):
		return "malformed"
	default:
		return "error"
	}
}
