package handler

import (
	"context"
	"net/http"

	"franchise-map-api/internal/mapstate"
	"franchise-map-api/internal/models"
	"franchise-map-api/internal/service"
	"franchise-map-api/internal/session"

	"github.com/gin-gonic/gin"
)

// MapService interface for dependency injection
type MapService interface {
	Open(ctx context.Context, p service.OpenMapParams) (*service.MapView, error)
	Get(id string) (*service.MapView, error)
	ReportEnvironment(id string, report session.EnvironmentReport) error
	ReportContainer(id string, rect mapstate.Rect) error
	Resize(id string, rect mapstate.Rect) (*service.MapView, error)
	AddBrowserLog(id string, message string) error
	ReportMapError(id string, message string) (*service.MapView, error)
	MarkInitialized(id string) (*service.MapView, error)
	Retry(id string) (*service.MapView, error)
	Overlay(id string) (string, error)
	Close(id string) error
}

// MapHandler handles map session requests
type MapHandler struct {
	service MapService
}

// NewMapHandler creates a new map handler
func NewMapHandler(svc MapService) *MapHandler {
	return &MapHandler{service: svc}
}

type openMapRequest struct {
	FranchiseeID string                     `json:"franchisee_id"`
	Locations    []models.LocationRecord    `json:"locations"`
	Environment  *session.EnvironmentReport `json:"environment"`
	Container    *mapstate.Rect             `json:"container"`
}

type messageRequest struct {
	Message string `json:"message"`
}

// Open handles POST /map/sessions requests
//
//	@Summary	Open a map session
//	@Tags		map
//	@Accept		json
//	@Produce	json
//	@Param		request	body		openMapRequest	true	"Locations source and initial page reports"
//	@Success	201		{object}	service.MapView
//	@Failure	400		{object}	map[string]string
//	@Router		/map/sessions [post]
func (h *MapHandler) Open(c *gin.Context) {
	var req openMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.service.Open(c.Request.Context(), service.OpenMapParams{
		FranchiseeID: req.FranchiseeID,
		Locations:    req.Locations,
		Environment:  req.Environment,
		Container:    req.Container,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// Get handles GET /map/sessions/:id requests
//
//	@Summary	Current map state
//	@Tags		map
//	@Produce	json
//	@Param		id	path		string	true	"Session id"
//	@Success	200	{object}	service.MapView
//	@Failure	404	{object}	map[string]string
//	@Router		/map/sessions/{id} [get]
func (h *MapHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Debug handles GET /map/sessions/:id/debug requests
//
//	@Summary	Debug overlay
//	@Tags		map
//	@Produce	html
//	@Param		id	path	string	true	"Session id"
//	@Success	200	{string}	string
//	@Router		/map/sessions/{id}/debug [get]
func (h *MapHandler) Debug(c *gin.Context) {
	html, err := h.service.Overlay(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ReportEnvironment handles PUT /map/sessions/:id/environment requests
//
//	@Summary		Report mapping library environment
//	@Description	The environment is validated once per pipeline run, right after the settle delay.
//	@Description	Send it in the POST /map/sessions body; a later report only takes effect after
//	@Description	POST /map/sessions/{id}/retry.
//	@Tags			map
//	@Accept			json
//	@Param			id		path	string						true	"Session id"
//	@Param			request	body	session.EnvironmentReport	true	"Environment"
//	@Success		204
//	@Router			/map/sessions/{id}/environment [put]
func (h *MapHandler) ReportEnvironment(c *gin.Context) {
	var report session.EnvironmentReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.ReportEnvironment(c.Param("id"), report); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindRect(c *gin.Context) (mapstate.Rect, bool) {
	var rect mapstate.Rect
	if err := c.ShouldBindJSON(&rect); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return rect, false
	}
	if rect.Width < 0 || rect.Height < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width and height must not be negative"})
		return rect, false
	}
	return rect, true
}

// ReportContainer handles PUT /map/sessions/:id/container requests
//
//	@Summary	Report container measurement
//	@Tags		map
//	@Accept		json
//	@Param		id		path	string			true	"Session id"
//	@Param		request	body	mapstate.Rect	true	"Container size"
//	@Success	204
//	@Router		/map/sessions/{id}/container [put]
func (h *MapHandler) ReportContainer(c *gin.Context) {
	rect, ok := bindRect(c)
	if !ok {
		return
	}

	if err := h.service.ReportContainer(c.Param("id"), rect); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Resize handles POST /map/sessions/:id/resize requests
//
//	@Summary	Report a window resize
//	@Tags		map
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Session id"
//	@Param		request	body		mapstate.Rect	true	"Container size after resize"
//	@Success	200		{object}	service.MapView
//	@Router		/map/sessions/{id}/resize [post]
func (h *MapHandler) Resize(c *gin.Context) {
	rect, ok := bindRect(c)
	if !ok {
		return
	}

	view, err := h.service.Resize(c.Param("id"), rect)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddLog handles POST /map/sessions/:id/logs requests
//
//	@Summary	Record a browser console line
//	@Tags		map
//	@Accept		json
//	@Param		id		path	string			true	"Session id"
//	@Param		request	body	messageRequest	true	"Console line"
//	@Success	204
//	@Router		/map/sessions/{id}/logs [post]
func (h *MapHandler) AddLog(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.AddBrowserLog(c.Param("id"), req.Message); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReportError handles POST /map/sessions/:id/errors requests
//
//	@Summary	Report a runtime map error
//	@Tags		map
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Session id"
//	@Param		request	body		messageRequest	true	"Error message"
//	@Success	200		{object}	service.MapView
//	@Router		/map/sessions/{id}/errors [post]
func (h *MapHandler) ReportError(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.service.ReportMapError(c.Param("id"), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Initialized handles POST /map/sessions/:id/initialized requests
//
//	@Summary	Report that the map widget initialised
//	@Tags		map
//	@Produce	json
//	@Param		id	path		string	true	"Session id"
//	@Success	200	{object}	service.MapView
//	@Failure	400	{object}	map[string]string
//	@Router		/map/sessions/{id}/initialized [post]
func (h *MapHandler) Initialized(c *gin.Context) {
	view, err := h.service.MarkInitialized(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Retry handles POST /map/sessions/:id/retry requests
//
//	@Summary	Retry loading the map
//	@Tags		map
//	@Produce	json
//	@Param		id	path		string	true	"Session id"
//	@Success	202	{object}	service.MapView
//	@Router		/map/sessions/{id}/retry [post]
func (h *MapHandler) Retry(c *gin.Context) {
	view, err := h.service.Retry(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

// Close handles DELETE /map/sessions/:id requests
//
//	@Summary	Close a map session
//	@Tags		map
//	@Param		id	path	string	true	"Session id"
//	@Success	204
//	@Router		/map/sessions/{id} [delete]
func (h *MapHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
