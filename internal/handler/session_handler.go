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

// SessionHandler handles HTTP requests for sessions and manual commands
type SessionHandler struct {
	engine  *tracking.Engine
	history *service.HistoryService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(engine *tracking.Engine, history *service.HistoryService) *SessionHandler {
	return &SessionHandler{
		engine:  engine,
		history: history,
	}
}

// ClockIn handles POST /api/v1/sites/:id/clock-in
func (h *SessionHandler) ClockIn(c *gin.Context) {
	session, err := h.engine.ClockIn(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, tracking.ErrSiteNotFound):
			response.NotFound(c, "Site not found")
		case errors.Is(err, tracking.ErrSessionConflict):
			response.Conflict(c, "An open session already exists for this site")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to clock in")
		}
		return
	}

	response.Created(c, session)
}

// ClockOut handles POST /api/v1/sites/:id/clock-out
func (h *SessionHandler) ClockOut(c *gin.Context) {
	session, err := h.engine.ClockOut(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, tracking.ErrSiteNotFound):
			response.NotFound(c, "Site not found")
		case errors.Is(err, tracking.ErrNoActiveSession):
			response.Conflict(c, "No open session for this site")
		default:
			response.Error(c, http.StatusInternalServerError, "Failed to clock out")
		}
		return
	}

	response.Success(c, session)
}

// GetActiveSession handles GET /api/v1/sites/:id/session
func (h *SessionHandler) GetActiveSession(c *gin.Context) {
	session, err := h.engine.ActiveSession(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get active session")
		return
	}
	if session == nil {
		response.NotFound(c, "No open session for this site")
		return
	}

	response.Success(c, session)
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var filter models.SessionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	sessions, err := h.history.SessionsOverlapping(filter)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid session query")
		return
	}

	response.Success(c, sessions)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.history.GetSession(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get session")
		return
	}
	if session == nil {
		response.NotFound(c, "Session not found")
		return
	}

	response.Success(c, session)
}
