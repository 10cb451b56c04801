// Package http exposes the status API: health probes, Prometheus metrics and
// read-only views of the persisted pocket and docking tables.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/protflow/internal/interfaces/http/handlers"
	"github.com/turtacn/protflow/internal/interfaces/http/middleware"
	"github.com/turtacn/protflow/pkg/errors"
	dto "github.com/turtacn/protflow/pkg/types/docking"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// Mode is the gin mode: "debug", "release" or "test".
	Mode string

	HealthHandler  *handlers.HealthHandler
	ResultsHandler *handlers.ResultsHandler

	CORS    *middleware.CORSConfig
	Logging middleware.LoggingConfig

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	Metrics          *prometheus.PipelineMetrics
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()

	// --- Global middleware ---
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// --- API v1 ---
	api := r.Group("/api/v1")
	registerResultRoutes(api, cfg.ResultsHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: string(errors.ErrCodeNotFound), Message: "route not found"})
	})
	return r
}

func registerResultRoutes(g *gin.RouterGroup, h *handlers.ResultsHandler) {
	if h == nil {
		return
	}
	g.GET("/pockets", h.ListPockets)
	g.GET("/results", h.ListResults)
	g.GET("/results/best", h.BestResults)
	g.GET("/runs/:id", h.GetRun)
}

//Personal.AI order the ending
