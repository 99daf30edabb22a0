package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lukashondrich/open-workinghours-sub001/internal/location"
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/repository"
	"github.com/lukashondrich/open-workinghours-sub001/pkg/response"
)

// positionRetention is how long device position samples are kept.
const positionRetention = 24 * time.Hour

// PositionHandler handles HTTP requests for device position reports
type PositionHandler struct {
	positions *repository.PositionRepository
	gateway   *location.Gateway
}

// NewPositionHandler creates a new position handler
func NewPositionHandler(positions *repository.PositionRepository, gateway *location.Gateway) *PositionHandler {
	return &PositionHandler{
		positions: positions,
		gateway:   gateway,
	}
}

// ReportPosition handles POST /api/v1/positions
func (h *PositionHandler) ReportPosition(c *gin.Context) {
	var input models.PositionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid position payload")
		return
	}

	sample := &models.PositionSample{
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		Accuracy:   input.Accuracy,
		RecordedAt: input.Timestamp,
	}
	if err := h.positions.Insert(sample); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to store position")
		return
	}

	// Old fixes are useless to the verifier; trim as we go.
	cutoff := time.Now().Add(-positionRetention).UnixMilli()
	if _, err := h.positions.PruneBefore(cutoff); err != nil {
		log.Printf("[Positions] prune failed: %v", err)
	}

	response.Created(c, sample)
}

// LatestPosition handles GET /api/v1/positions/latest
func (h *PositionHandler) LatestPosition(c *gin.Context) {
	sample, err := h.gateway.CurrentPosition()
	if err != nil {
		if errors.Is(err, location.ErrNoFreshPosition) {
			response.NotFound(c, "No fresh position available")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to get position")
		return
	}

	response.Success(c, sample)
}
