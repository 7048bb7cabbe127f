package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sunpark20/lightstock/internal/domain/models"
	xhttp "github.com/sunpark20/lightstock/pkg/http"
	applogger "github.com/sunpark20/lightstock/pkg/logger"
)

const (
	DefaultRetryLimit = 2
	DefaultBackoff    = time.Second
	DefaultTimeout    = 5 * time.Second

	maxBodyBytes = 4 << 20
)

// FetcherOption configures Fetcher.
type FetcherOption func(*Fetcher)

// Fetcher performs upstream GETs with a bounded number of retries.
// Only 429 and network failures are retried, after a constant backoff.
type Fetcher struct {
	client     *xhttp.Client
	retryLimit int
	backoff    time.Duration
	headers    map[string]string
	logger     *applogger.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher with a 5s per-attempt timeout, 2 retries and a 1s backoff.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		retryLimit: DefaultRetryLimit,
		backoff:    DefaultBackoff,
		headers: map[string]string{
			"Accept": "application/json",
		},
		logger: applogger.Nop(),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = xhttp.NewClient(xhttp.WithTimeout(DefaultTimeout))
	}
	return f
}

// WithHTTPClient sets the underlying client; its timeout applies per attempt.
func WithHTTPClient(c *xhttp.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithRetryLimit sets how many extra attempts follow the first one.
func WithRetryLimit(n int) FetcherOption {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retryLimit = n
		}
	}
}

// WithBackoff sets the constant wait between attempts.
func WithBackoff(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d >= 0 {
			f.backoff = d
		}
	}
}

// WithUserAgent sets the User-Agent sent upstream.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.headers["User-Agent"] = ua
		}
	}
}

// WithFetcherLogger sets the logger used for retry warnings.
func WithFetcherLogger(l *applogger.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// Fetch GETs url and returns the body once it is a valid JSON document.
// After the last failed attempt the error wraps the final *models.UpstreamError.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	attempts := f.retryLimit + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := f.attempt(ctx, url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var ue *models.UpstreamError
		if !errors.As(err, &ue) || !ue.Retryable() {
			return nil, err
		}
		if attempt == attempts {
			break
		}

		f.logger.Warn("upstream retry",
			applogger.String("url", url),
			applogger.Int("attempt", attempt),
			applogger.Int("status", ue.StatusCode),
			applogger.Duration("backoff_ms", f.backoff),
		)
		if err := f.sleep(ctx, f.backoff); err != nil {
			return nil, fmt.Errorf("retry aborted: %w", errors.Join(err, lastErr))
		}
	}

	return nil, fmt.Errorf("upstream failed after %d attempts: %w", attempts, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := f.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  http.MethodGet,
		URL:     url,
		Headers: f.mergeHeaders(headers),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("upstream request: %w", ctx.Err())
		}
		return nil, &models.UpstreamError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &models.UpstreamError{Message: "read body: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &models.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.StatusCode, body),
		}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response from %s is not JSON", models.ErrMalformedUpstreamData, url)
	}
	return body, nil
}

func (f *Fetcher) mergeHeaders(extra map[string]string) map[string]string {
	out := make(map[string]string, len(f.headers)+len(extra))
	for k, v := range f.headers {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func statusMessage(code int, body []byte) string {
	msg := http.StatusText(code)
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if snippet != "" {
		msg += ": " + snippet
	}
	return msg
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
