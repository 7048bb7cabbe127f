package api

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sunpark20/lightstock/internal/domain/repository"
	"github.com/sunpark20/lightstock/internal/service/ratelimit"
	xhttp "github.com/sunpark20/lightstock/pkg/http"
	xlogger "github.com/sunpark20/lightstock/pkg/logger"
)

const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
)

// RateLimit counts requests per client IP against l. A nil limiter disables it.
func RateLimit(l *ratelimit.Limiter, scope string, logger *xlogger.Logger, m repository.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if l == nil {
			return next
		}
		return func(c echo.Context) error {
			ip := c.RealIP()
			d := l.Allow(ip)
			reset := strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds())))

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
			h.Set(HeaderRateLimitReset, reset)

			if !d.Allowed {
				h.Set(echo.HeaderRetryAfter, reset)
				m.RecordError("rate_limited_" + scope)
				logger.Warn("rate limit exceeded",
					xlogger.String("scope", scope),
					xlogger.String("ip", ip),
				)
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many requests, please try again later."))
			}
			return next(c)
		}
	}
}
