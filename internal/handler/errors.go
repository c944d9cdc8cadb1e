package handler

import (
	"errors"
	"net/http"

	"franchise-map-api/internal/service"
	"franchise-map-api/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// writeError maps service errors to responses. Unexpected errors are logged and hidden.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "map session not found"})
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrBackfillRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "backfill already running"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
