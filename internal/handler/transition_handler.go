package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/service"
	"github.com/lukashondrich/open-workinghours-sub001/internal/tracking"
	"github.com/lukashondrich/open-workinghours-sub001/pkg/response"
)

// TransitionHandler handles HTTP requests from the transition source
type TransitionHandler struct {
	engine  *tracking.Engine
	history *service.HistoryService
}

// NewTransitionHandler creates a new transition handler
func NewTransitionHandler(engine *tracking.Engine, history *service.HistoryService) *TransitionHandler {
	return &TransitionHandler{
		engine:  engine,
		history: history,
	}
}

// HandleTransition handles POST /api/v1/transitions
func (h *TransitionHandler) HandleTransition(c *gin.Context) {
	var raw models.RawTransition
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid transition payload")
		return
	}

	event, err := h.engine.HandleTransition(raw)
	if err != nil {
		switch {
		case errors.Is(err, tracking.ErrSiteNotFound):
			response.NotFound(c, "Site not found")
		case errors.Is(err, tracking.ErrSiteInactive):
			response.Conflict(c, "Site is not monitored")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to process transition")
		}
		return
	}

	response.Success(c, event)
}

// ListEvents handles GET /api/v1/events
func (h *TransitionHandler) ListEvents(c *gin.Context) {
	var filter models.EventFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	events, err := h.history.ListEvents(filter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response.Success(c, events)
}
