package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridepay/internal/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	inFlightTTL       = 30 * time.Second
)

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware returns middleware that replays the stored response of a
// POST/PUT/PATCH carrying an Idempotency-Key header. A second request with the
// same key while the first is still running gets 409.
// A nil responses store disables the middleware.
func IdempotencyMiddleware(responses redis.ResponseStoreInterface, locks redis.LockStoreInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if responses == nil {
			c.Next()
			return
		}

		// Only apply to mutating methods.
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		// Scope the key to the route so one key cannot replay another operation.
		cacheKey := c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		cached, err := responses.GetResponse(ctx, cacheKey)
		if err != nil {
			// Cache unavailable - proceed without idempotency.
			c.Next()
			return
		}

		if cached != nil {
			replay(c, cached)
			return
		}

		if locks != nil {
			acquired, err := locks.Acquire(ctx, cacheKey, inFlightTTL)
			if err == nil && !acquired {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
				return
			}
			if err == nil {
				defer func() { _ = locks.Release(ctx, cacheKey) }()
			}
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are not stored so the client can retry them.
		if status := c.Writer.Status(); status >= 200 && status < 500 {
			_ = responses.SetResponse(ctx, cacheKey, &redis.CachedResponse{
				StatusCode: status,
				Body:       w.body.Bytes(),
				Headers:    extractResponseHeaders(c),
			}, idempotencyTTL)
		}
	}
}

func replay(c *gin.Context, cached *redis.CachedResponse) {
	for k, v := range cached.Headers {
		for _, val := range v {
			c.Header(k, val)
		}
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(cached.StatusCode, "application/json", cached.Body)
	c.Abort()
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	// Only cache Content-Type header.
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
