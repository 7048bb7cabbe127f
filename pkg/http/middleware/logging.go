package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "github.com/sunpark20/lightstock/pkg/logger"
)

// RequestLogging logs HTTP requests.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				// let the error handler pick the final status before logging it
				c.Error(err)
			}

			res := c.Response()
			l.Info("http request",
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Int64("bytes", res.Size),
				applogger.Duration("latency_ms", time.Since(start)),
				applogger.String("cache", res.Header().Get(HeaderXCache)),
				applogger.String("request_id", GetRequestID(c)),
			)

			return nil
		}
	}
}
