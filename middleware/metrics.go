package middleware

import (
	"context"
	"time"

	awspkg "pricing-service/pkg/aws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsRecorder is the subset of the CloudWatch client the middleware needs.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, name string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, name string, d time.Duration, dimensions map[string]string) error
}

// Metrics records request count, latency and error class for every request.
// Data points are sent off the request path; failures are logged at debug.
// A nil recorder disables the middleware.
func Metrics(recorder MetricsRecorder, serviceName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		// The route template keeps dimension cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    path,
			"Status":  statusClass(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			names := []string{awspkg.MetricHTTPRequests}
			switch {
			case status >= 500:
				names = append(names, awspkg.MetricHTTPErrors, awspkg.MetricHTTP5xx)
			case status >= 400:
				names = append(names, awspkg.MetricHTTPErrors, awspkg.MetricHTTP4xx)
			}
			for _, name := range names {
				if err := recorder.RecordCount(ctx, name, dims); err != nil {
					logger.Debug("Metric not recorded", zap.String("metric", name), zap.Error(err))
				}
			}
			if err := recorder.RecordLatency(ctx, awspkg.MetricHTTPLatency, duration, dims); err != nil {
				logger.Debug("Metric not recorded", zap.String("metric", awspkg.MetricHTTPLatency), zap.Error(err))
			}
		}()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
