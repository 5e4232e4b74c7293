package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/po4yka/trailglass-sub007/internal/middleware"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/service"
	"github.com/po4yka/trailglass-sub007/pkg/response"
)

// PhotoHandler handles HTTP requests for photos
type PhotoHandler struct {
	service *service.PhotoService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(service *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{service: service}
}

type registerPhotosRequest struct {
	Photos []models.Photo `json:"photos" binding:"required"`
}

// Register handles POST /api/v1/photos
func (h *PhotoHandler) Register(c *gin.Context) {
	var req registerPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	n, err := h.service.Register(c.Request.Context(), middleware.UserID(c), req.Photos)
	if err != nil {
		fail(c, "Failed to register photos", err)
		return
	}
	response.Success(c, gin.H{"registered": n})
}

// GetClusters handles GET /api/v1/photos/clusters
func (h *PhotoHandler) GetClusters(c *gin.Context) {
	var filter models.PhotoClusterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	clusters, err := h.service.Clusters(c.Request.Context(), middleware.UserID(c),
		time.Unix(filter.StartTime, 0).UTC(), time.Unix(filter.EndTime, 0).UTC())
	if err != nil {
		fail(c, "Failed to cluster photos", err)
		return
	}
	response.Success(c, clusters)
}
