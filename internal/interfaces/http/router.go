// Package http assembles the gin engine of the FieldScout API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/FieldScout-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the route tree. Nil handlers leave their routes unmounted.
type RouterConfig struct {
	// Handlers
	IngestionHandler *handlers.IngestionHandler
	ReportHandler    *handlers.ReportHandler
	AlertHandler     *handlers.AlertHandler
	FieldHandler     *handlers.FieldHandler
	HealthHandler    *handlers.HealthHandler

	// Middleware
	CORS    *middleware.CORSConfig
	Logging middleware.LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MaxBodySize      int64
}

// NewRouter constructs the gin engine: global middleware, health endpoints, /metrics
// and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(log))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(log, cfg.Logging), middleware.Metrics(cfg.Metrics))
	if cfg.MaxBodySize > 0 {
		r.Use(limitBody(cfg.MaxBodySize))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	registerIngestionRoutes(api, cfg.IngestionHandler)
	registerReportRoutes(api, cfg.ReportHandler)
	registerAlertRoutes(api, cfg.AlertHandler)
	registerFieldRoutes(api, cfg.FieldHandler)
	return r
}

func registerIngestionRoutes(r *gin.RouterGroup, h *handlers.IngestionHandler) {
	if h == nil {
		return
	}
	g := r.Group("/ingestion")
	g.POST("/daily", h.IngestDaily)
	g.GET("/status/:field_id", h.Status)
}

func registerReportRoutes(r *gin.RouterGroup, h *handlers.ReportHandler) {
	if h == nil {
		return
	}
	dash := r.Group("/dashboard")
	dash.GET("/kpis/today", h.TodayKPIs)
	dash.GET("/kpis/weekly", h.WeeklyKPIs)

	pests := r.Group("/pests")
	pests.GET("/daily", h.PestDaily)
	pests.GET("/trend", h.PestTrend)

	canopy := r.Group("/canopy")
	canopy.GET("/daily", h.CanopyDaily)
	canopy.GET("/trend", h.CanopyTrend)
	canopy.GET("/compare", h.CanopyCompare)

	r.GET("/analytics/monthly", h.Monthly)

	insights := r.Group("/insights")
	insights.GET("/zones", h.Zones)
	insights.GET("/zones/:zone_id", h.Zone)
	insights.GET("/health", h.Health)
	insights.GET("/heatmap.png", h.HeatmapPNG)
}

func registerAlertRoutes(r *gin.RouterGroup, h *handlers.AlertHandler) {
	if h == nil {
		return
	}
	g := r.Group("/alerts")
	g.GET("/active", h.Active)
	g.GET("/stats", h.Stats)
	g.POST("/acknowledge/:alert_id", h.Acknowledge)
	g.POST("/resolve/:alert_id", h.Resolve)
}

func registerFieldRoutes(r *gin.RouterGroup, h *handlers.FieldHandler) {
	if h == nil {
		return
	}
	g := r.Group("/fields/:field_id")
	g.GET("/config", h.GetConfig)
	g.PUT("/config", h.PutConfig)
}

//Personal.AI order the ending
