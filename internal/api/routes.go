package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes builds the router. A nil gatherer disables the metrics endpoint.
func SetupRoutes(handler *Handler, gatherer prometheus.Gatherer, metricsPath string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(handler.logger))

	// Health check
	r.GET("/health", handler.Health)

	if gatherer != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API v1
	v1 := r.Group("/api/v1")
	{
		orgs := v1.Group("/organizations/:id")
		orgs.GET("/insights", handler.GetInsights)
		orgs.POST("/errors", handler.IngestError)
		orgs.POST("/performance", handler.IngestPerformance)
		orgs.GET("/reports", handler.ListReports)

		v1.GET("/reports/:reportId", handler.GetReport)
		v1.DELETE("/reports/:reportId", handler.DeleteReport)
	}

	return r
}
