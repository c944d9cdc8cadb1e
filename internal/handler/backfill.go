package handler

import (
	"context"
	"net/http"

	"franchise-map-api/internal/service"

	"github.com/gin-gonic/gin"
)

// BackfillService interface for dependency injection
type BackfillService interface {
	Start(ctx context.Context, limit int) error
	Status() service.BackfillStatus
}

// BackfillHandler handles geocoding backfill requests
type BackfillHandler struct {
	service BackfillService
	// Backfills outlive the request that started them; they stop with this context.
	ctx context.Context
}

// NewBackfillHandler creates a new backfill handler
func NewBackfillHandler(ctx context.Context, svc BackfillService) *BackfillHandler {
	return &BackfillHandler{service: svc, ctx: ctx}
}

// Start handles POST /geocode/backfill requests
//
//	@Summary	Start geocoding locations without coordinates
//	@Tags		geocode
//	@Produce	json
//	@Param		limit	query		int	false	"Maximum locations to process"
//	@Success	202		{object}	service.BackfillStatus
//	@Failure	409		{object}	map[string]string
//	@Router		/geocode/backfill [post]
func (h *BackfillHandler) Start(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit format"})
		return
	}

	if err := h.service.Start(h.ctx, limit); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, h.service.Status())
}

// Status handles GET /geocode/backfill requests
//
//	@Summary	Backfill status
//	@Tags		geocode
//	@Produce	json
//	@Success	200	{object}	service.BackfillStatus
//	@Router		/geocode/backfill [get]
func (h *BackfillHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}
