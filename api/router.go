// Package api exposes the tracking services over HTTP with gin.
package api

import (
	"net/http"

	"export-tracking-service/tracking/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Services struct {
	Sessions  *services.SessionService
	Producers *services.ProducerService
	Batches   *services.BatchService
	Products  *services.ProductService
	Dashboard *services.DashboardService
}

type Options struct {
	MetricsEnabled bool
}

func NewRouter(svc Services, logger *zap.Logger, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if opts.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	auth := requireSession(svc.Sessions, logger)

	NewSessionHandler(svc.Sessions, logger).Register(r)
	NewDashboardHandler(svc.Dashboard, logger).Register(r)
	NewProducerHandler(svc.Producers, logger).Register(r, auth)
	NewBatchHandler(svc.Batches, logger).Register(r, auth)
	NewProductHandler(svc.Products, logger).Register(r, auth)

	return r
}
