package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/po4yka/trailglass-sub007/internal/middleware"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/service"
	"github.com/po4yka/trailglass-sub007/pkg/response"
)

// RegionHandler handles HTTP requests for geofences
type RegionHandler struct {
	service *service.RegionService
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(service *service.RegionService) *RegionHandler {
	return &RegionHandler{service: service}
}

type replaceRegionsRequest struct {
	Regions []models.Region `json:"regions" binding:"required,dive"`
}

// GetRegions handles GET /api/v1/regions
func (h *RegionHandler) GetRegions(c *gin.Context) {
	regions, err := h.service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "Failed to get regions", err)
		return
	}
	response.Success(c, regions)
}

// ReplaceRegions handles PUT /api/v1/regions
func (h *RegionHandler) ReplaceRegions(c *gin.Context) {
	var req replaceRegionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	regions, err := h.service.Replace(c.Request.Context(), middleware.UserID(c), req.Regions)
	if err != nil {
		fail(c, "Failed to replace regions", err)
		return
	}
	response.Success(c, regions)
}
