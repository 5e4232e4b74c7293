package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/po4yka/trailglass-sub007/internal/middleware"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/service"
	"github.com/po4yka/trailglass-sub007/pkg/response"
)

// maxSamplesPerRequest bounds one upload
const maxSamplesPerRequest = 10000

// SampleHandler handles HTTP requests for location samples
type SampleHandler struct {
	service *service.SampleService
}

// NewSampleHandler creates a new sample handler
func NewSampleHandler(service *service.SampleService) *SampleHandler {
	return &SampleHandler{service: service}
}

type appendSamplesRequest struct {
	Samples []models.LocationSample `json:"samples" binding:"required"`
}

// Append handles POST /api/v1/samples
func (h *SampleHandler) Append(c *gin.Context) {
	var req appendSamplesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	if len(req.Samples) > maxSamplesPerRequest {
		response.Error(c, http.StatusRequestEntityTooLarge, "Too many samples in one request", nil)
		return
	}

	res, err := h.service.Append(c.Request.Context(), middleware.UserID(c), req.Samples)
	if err != nil {
		fail(c, "Failed to store samples", err)
		return
	}
	response.Success(c, res)
}

// ResetSession handles DELETE /api/v1/sessions/:deviceId
func (h *SampleHandler) ResetSession(c *gin.Context) {
	h.service.ResetSession(middleware.UserID(c), c.Param("deviceId"))
	response.Success(c, nil)
}
