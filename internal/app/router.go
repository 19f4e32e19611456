package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"ridepay/internal/handler"
	"ridepay/internal/metrics"
	"ridepay/internal/middleware"
	"ridepay/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	PaymentHandler *handler.PaymentHandler
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	NewRelicApp    *newrelic.Application

	// Idempotency replay is disabled when Responses is nil.
	Responses redis.ResponseStoreInterface
	Locks     redis.LockStoreInterface
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	if deps.Logger != nil {
		router.Use(middleware.RequestLogger(deps.Logger))
	}

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.Responses, deps.Locks))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("/authorize", deps.PaymentHandler.Authorize)
			payments.POST("/capture", deps.PaymentHandler.Capture)
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
		}
	}

	return router
}
