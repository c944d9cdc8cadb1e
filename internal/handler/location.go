package handler

import (
	"context"
	"net/http"
	"strconv"

	"franchise-map-api/internal/service"

	"github.com/gin-gonic/gin"
)

// LocationHandler handles location listing requests
type LocationHandler struct {
	service LocationService
}

// LocationService interface for dependency injection
type LocationService interface {
	List(ctx context.Context, franchiseeID, search string, page, pageSize int) (*service.LocationPage, error)
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(svc LocationService) *LocationHandler {
	return &LocationHandler{service: svc}
}

// List handles GET /locations requests
//
//	@Summary	List franchise locations
//	@Tags		locations
//	@Produce	json
//	@Param		franchisee_id	query		string	false	"Franchisee id"
//	@Param		q				query		string	false	"Search text"
//	@Param		page			query		int		false	"Page number, starting at 1"
//	@Param		page_size		query		int		false	"Page size, at most 100"
//	@Success	200				{object}	service.LocationPage
//	@Failure	400				{object}	map[string]string
//	@Router		/locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	page, err := intQuery(c, "page")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page format"})
		return
	}

	pageSize, err := intQuery(c, "page_size")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size format"})
		return
	}

	result, err := h.service.List(c.Request.Context(), c.Query("franchisee_id"), c.Query("q"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
