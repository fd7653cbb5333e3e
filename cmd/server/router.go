package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/epiforge/epidamp/internal/errors"
	"github.com/epiforge/epidamp/internal/monitoring"
	"github.com/epiforge/epidamp/internal/ratelimit"
	"github.com/epiforge/epidamp/internal/store"
)

func setupRouter(st *store.Store, metrics *monitoring.Metrics, logger *monitoring.Logger) *gin.Engine {
	r := gin.New()

	r.Use(monitoring.Middleware(metrics, logger))
	r.Use(errors.RecoveryHandler())
	r.Use(errors.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultConfig())
	r.Use(ratelimit.Middleware(limiter))

	h := newHandlers(st, metrics, logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"metrics":   metrics.GetStats(),
		})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/scenarios", h.createScenario)
		api.GET("/scenarios", h.listScenarios)
		api.GET("/scenarios/:id", h.getScenario)
		api.DELETE("/scenarios/:id", h.deleteScenario)
		api.POST("/scenarios/:id/dampings", h.addDamping)
		api.GET("/scenarios/:id/matrix", h.getMatrix)
		api.POST("/scenarios/:id/simulate", h.simulate)
	}

	return r
}
