package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polkiloo/orderledger/internal/server/http/handlers"
	"github.com/polkiloo/orderledger/internal/server/http/middleware"
)

const maxBodyBytes = 1 << 20

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StorefrontFacade, gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(middleware.LimitBody(maxBodyBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	checkoutHandler := handlers.NewCheckoutHandler(facade)
	webhookHandler := handlers.NewWebhookHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.POST("/checkout", middleware.OptionalIdentity(facade, logger), checkoutHandler.Create)

	webhook := engine.Group("/webhook")
	webhook.POST("", webhookHandler.Card)
	webhook.POST("/stripe", webhookHandler.Card)
	webhook.GET("/pesapal", webhookHandler.MobileMoney)
	webhook.POST("/pesapal", webhookHandler.MobileMoney)

	orders := engine.Group("/orders")
	orders.Use(middleware.RequireIdentity(facade, logger))
	orders.GET("", orderHandler.List)
	orders.POST("/claim", orderHandler.Claim)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return engine
}
