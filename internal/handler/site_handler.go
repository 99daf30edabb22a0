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

// SiteHandler handles HTTP requests for site management
type SiteHandler struct {
	service *service.SiteService
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(service *service.SiteService) *SiteHandler {
	return &SiteHandler{service: service}
}

// CreateSite handles POST /api/v1/sites
func (h *SiteHandler) CreateSite(c *gin.Context) {
	var input models.SiteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid site payload")
		return
	}

	site, err := h.service.CreateSite(input)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Created(c, site)
}

// ListSites handles GET /api/v1/sites
func (h *SiteHandler) ListSites(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	sites, err := h.service.ListSites(activeOnly)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list sites")
		return
	}

	response.Success(c, sites)
}

// GetSite handles GET /api/v1/sites/:id
func (h *SiteHandler) GetSite(c *gin.Context) {
	site, err := h.service.GetSite(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get site")
		return
	}
	if site == nil {
		response.NotFound(c, "Site not found")
		return
	}

	response.Success(c, site)
}

// UpdateSite handles PUT /api/v1/sites/:id
func (h *SiteHandler) UpdateSite(c *gin.Context) {
	var input models.SiteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid site payload")
		return
	}

	site, err := h.service.UpdateSite(c.Param("id"), input)
	if err != nil {
		if errors.Is(err, tracking.ErrSiteNotFound) {
			response.NotFound(c, "Site not found")
			return
		}
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Success(c, site)
}

// DeactivateSite handles DELETE /api/v1/sites/:id
func (h *SiteHandler) DeactivateSite(c *gin.Context) {
	site, err := h.service.DeactivateSite(c.Param("id"))
	if err != nil {
		if errors.Is(err, tracking.ErrSiteNotFound) {
			response.NotFound(c, "Site not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Failed to deactivate site")
		return
	}

	response.Success(c, site)
}

// ListMonitors handles GET /api/v1/monitors
func (h *SiteHandler) ListMonitors(c *gin.Context) {
	monitors, err := h.service.ListMonitors()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list monitors")
		return
	}

	response.Success(c, monitors)
}

// ImportSites handles POST /api/v1/sites/import with a YAML body
func (h *SiteHandler) ImportSites(c *gin.Context) {
	created, err := h.service.ImportSites(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	response.Created(c, gin.H{"created": created})
}
