// Package middleware carries the HTTP middleware for the operational server.
package middleware

import (
	"net/http"
	"time"

	"chanbridge/internal/httputil"
	"chanbridge/internal/metrics"

	"github.com/sirupsen/logrus"
)

// RequestLogging logs every request with its outcome and counts it in the
// metrics registry. Client errors log at warn, server errors at error.
func RequestLogging(logger *logrus.Logger, registry *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			registry.Increment(metrics.HTTPRequests)

			level := logrus.InfoLevel
			if wrapper.statusCode >= 500 {
				level = logrus.ErrorLevel
			} else if wrapper.statusCode >= 400 {
				level = logrus.WarnLevel
			}

			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     wrapper.statusCode,
				"durationMs": time.Since(start).Milliseconds(),
				"remoteIp":   httputil.GetClientIP(r),
			}).Log(level, "HTTP request")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.statusCode = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}
