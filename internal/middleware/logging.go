package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ridepay/internal/logger"
)

// RequestLogger returns middleware that emits one structured log line per request.
// The level follows the response status: 5xx error, 4xx warn, otherwise info.
func RequestLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if key := c.GetHeader(idempotencyHeader); key != "" {
			fields = append(fields, zap.String("idempotency_key", key))
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.Error(ctx, l, "http_request", fields...)
		case status >= 400:
			logger.Warn(ctx, l, "http_request", fields...)
		default:
			logger.Info(ctx, l, "http_request", fields...)
		}
	}
}
