package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lukashondrich/open-workinghours-sub001/internal/service"
	"github.com/lukashondrich/open-workinghours-sub001/pkg/response"
)

// SummaryHandler handles HTTP requests for work summaries
type SummaryHandler struct {
	service *service.SummaryService
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(service *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{service: service}
}

// DailySummaries handles GET /api/v1/summaries/daily
func (h *SummaryHandler) DailySummaries(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		response.Error(c, http.StatusBadRequest, "start and end dates are required (YYYY-MM-DD)")
		return
	}

	summaries, err := h.service.DailySummaries(start, end)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Success(c, summaries)
}

// RangeStats handles GET /api/v1/summaries/stats
func (h *SummaryHandler) RangeStats(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		response.Error(c, http.StatusBadRequest, "start and end dates are required (YYYY-MM-DD)")
		return
	}

	stats, err := h.service.RangeStats(start, end)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Success(c, stats)
}
