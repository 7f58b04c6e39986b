// Package http wires the gin router and HTTP server for the RankScope API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/prometheus"
	"github.com/rankscope/rankscope/internal/interfaces/http/handlers"
	"github.com/rankscope/rankscope/internal/interfaces/http/middleware"
	"github.com/rankscope/rankscope/pkg/errors"
)

// RouterConfig collects the handlers and cross-cutting dependencies for the
// API router.  Reports and Health are optional; their routes are only
// registered when present.
type RouterConfig struct {
	Mode string // gin mode: "debug" | "release" | "test"

	Runs    *handlers.RunsHandler
	Reports *handlers.ReportHandler
	Health  *handlers.HealthHandler

	Metrics *prometheus.Metrics
	Logger  logging.Logger
}

// NewRouter builds the gin engine with the full middleware chain and all
// registered routes.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Runs == nil {
		return nil, errors.NewValidation("router requires a runs handler")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("router requires a logger")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.CORS())
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	if cfg.Health != nil {
		r.GET("/healthz", cfg.Health.Liveness)
		r.GET("/readyz", cfg.Health.Readiness)
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/runs", cfg.Runs.Create)
		v1.GET("/runs", cfg.Runs.List)
		v1.GET("/runs/:id", cfg.Runs.Get)
		if cfg.Reports != nil {
			v1.GET("/runs/:id/report", cfg.Reports.Download)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"code": errors.ErrCodeNotFound.String(), "message": "route not found"},
		})
	})

	return r, nil
}
