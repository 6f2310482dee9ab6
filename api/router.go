package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tbmm-scraper/api/handler"
	"github.com/use-agent/tbmm-scraper/api/middleware"
	"github.com/use-agent/tbmm-scraper/config"
)

// NewRouter creates a configured Gin engine serving the proposal dataset.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     RateLimit
//
// Health is outside the rate limit so monitoring probes always work.
func NewRouter(ds handler.Dataset, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(ds, startTime))

	limited := v1.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimit))
	limited.GET("/proposals", handler.Proposals(ds))
	limited.GET("/proposals/summary", handler.Summary(ds))

	return r
}
