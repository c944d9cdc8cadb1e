package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r gin.IRouter, locations *LocationHandler, maps *MapHandler, backfill *BackfillHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/locations", locations.List)

	sessions := r.Group("/map/sessions")
	sessions.POST("", maps.Open)
	sessions.GET("/:id", maps.Get)
	sessions.DELETE("/:id", maps.Close)
	sessions.GET("/:id/debug", maps.Debug)
	sessions.PUT("/:id/environment", maps.ReportEnvironment)
	sessions.PUT("/:id/container", maps.ReportContainer)
	sessions.POST("/:id/resize", maps.Resize)
	sessions.POST("/:id/logs", maps.AddLog)
	sessions.POST("/:id/errors", maps.ReportError)
	sessions.POST("/:id/initialized", maps.Initialized)
	sessions.POST("/:id/retry", maps.Retry)

	r.POST("/geocode/backfill", backfill.Start)
	r.GET("/geocode/backfill", backfill.Status)
}
