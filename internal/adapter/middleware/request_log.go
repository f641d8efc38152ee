package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// HTTPRecorder receives one observation per served request.
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, status int, d time.Duration)
}

// RequestLog logs every request and feeds the request metrics. Paths are the
// route templates, so reference numbers never become label values.
func RequestLog(log logrus.FieldLogger, rec HTTPRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo render it so the status below is the real one
				c.Error(err)
			}

			latency := time.Since(start)
			req := c.Request()
			status := c.Response().Status
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			if rec != nil {
				rec.RecordHTTPRequest(req.Method, path, status, latency)
			}

			entry := log.WithFields(logrus.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     req.Method,
				"path":       path,
				"status":     status,
				"latency":    latency.String(),
				"ip":         c.RealIP(),
				"user_id":    req.Header.Get("Ax-User-Id"),
			})
			switch {
			case status >= 500:
				entry.Error("API request")
			case status >= 400:
				entry.Warn("API request")
			default:
				entry.Info("API request")
			}
			return nil
		}
	}
}
