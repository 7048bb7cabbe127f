package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sunpark20/lightstock/pkg/cache"
	applogger "github.com/sunpark20/lightstock/pkg/logger"
)

const (
	HeaderXCache      = "X-Cache"
	HeaderXDataSource = "X-Data-Source"

	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

// replayHeaders are copied into a cached entry and restored on a hit.
var replayHeaders = []string{
	echo.HeaderContentType,
	echo.HeaderCacheControl,
	HeaderXDataSource,
}

// CachedResponse is what the response cache keeps per request URI.
type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// ResponseCache serves repeated GET requests for the same path and query from
// store. Only 2xx responses are kept. Every response carries X-Cache.
func ResponseCache(store cache.Store, ttl time.Duration, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if ttl <= 0 {
			return next
		}
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}

			key := req.URL.RequestURI()
			if v, ok := store.Get(key); ok {
				if entry, ok := v.(*CachedResponse); ok {
					l.Debug("http cache hit", applogger.String("key", key))
					return replay(c, entry)
				}
			}

			res := c.Response()
			res.Header().Set(HeaderXCache, CacheMiss)

			rec := &bodyRecorder{ResponseWriter: res.Writer}
			res.Writer = rec
			err := next(c)
			res.Writer = rec.ResponseWriter
			if err != nil {
				return err
			}

			if res.Status >= 200 && res.Status < 300 {
				store.Set(key, &CachedResponse{
					Status: res.Status,
					Header: pick(res.Header(), replayHeaders),
					Body:   bytes.Clone(rec.buf.Bytes()),
				}, ttl)
				l.Debug("http cache store", applogger.String("key", key))
			}
			return nil
		}
	}
}

func replay(c echo.Context, entry *CachedResponse) error {
	h := c.Response().Header()
	for k, vs := range entry.Header {
		h[k] = append([]string(nil), vs...)
	}
	h.Set(HeaderXCache, CacheHit)
	return c.Blob(entry.Status, entry.Header.Get(echo.HeaderContentType), entry.Body)
}

func pick(src http.Header, keys []string) http.Header {
	out := make(http.Header, len(keys))
	for _, k := range keys {
		if vs := src.Values(k); len(vs) > 0 {
			out[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
	}
	return out
}

type bodyRecorder struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
