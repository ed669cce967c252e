package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request and records request metrics.
// Errors returned by the chain are handed to the echo error handler here so
// the logged status is the one the client receives.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			dur := time.Since(start)
			req, res := c.Request(), c.Response()

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			observe(req.Method, route, res.Status, dur)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", route),
				zap.String("uri", req.RequestURI),
				zap.Int("status", res.Status),
				zap.Duration("dur", dur),
				zap.String("remote", c.RealIP()),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("subject", subject(c)),
			}
			switch {
			case res.Status >= http.StatusInternalServerError:
				log.Error("http", append(fields, zap.Error(err))...)
			case err != nil:
				log.Info("http", append(fields, zap.String("reason", err.Error()))...)
			default:
				log.Info("http", fields...)
			}
			return nil
		}
	}
}

// Recover turns a panic in a handler into a 500 response and logs the stack.
func Recover(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic",
						zap.Any("reason", r),
						zap.ByteString("stack", debug.Stack()),
						zap.String("route", c.Path()),
					)
					err = echo.NewHTTPError(http.StatusInternalServerError)
				}
			}()
			return next(c)
		}
	}
}

func observe(method, route string, status int, dur time.Duration) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`http_requests_total{method=%q,route=%q,status="%d"}`, method, route, status)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`http_request_duration_seconds{method=%q,route=%q}`, method, route)).Update(dur.Seconds())
}

// Metrics writes all registered metrics in Prometheus text format.
func Metrics(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/plain; version=0.0.4")
	c.Response().WriteHeader(http.StatusOK)
	metrics.WritePrometheus(c.Response(), true)
	return nil
}
