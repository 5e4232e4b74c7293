package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/po4yka/trailglass-sub007/internal/analysis"
	"github.com/po4yka/trailglass-sub007/internal/middleware"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/service"
	"github.com/po4yka/trailglass-sub007/pkg/response"
)

// ProcessingHandler handles HTTP requests for processing runs
type ProcessingHandler struct {
	service *service.ProcessingService
}

// NewProcessingHandler creates a new processing handler
func NewProcessingHandler(service *service.ProcessingService) *ProcessingHandler {
	return &ProcessingHandler{service: service}
}

type processingResponse struct {
	Run    *models.ProcessingRun      `json:"run"`
	Result *analysis.ProcessingResult `json:"result,omitempty"`
}

// Process handles POST /api/v1/processing
func (h *ProcessingHandler) Process(c *gin.Context) {
	var req models.ProcessingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}

	run, res, err := h.service.Process(c.Request.Context(), middleware.UserID(c),
		time.Unix(req.StartTime, 0).UTC(), time.Unix(req.EndTime, 0).UTC())
	if err != nil {
		if run == nil {
			fail(c, "Failed to start processing", err)
			return
		}
		// the run keeps the failure for GET /processing/:id
		fail(c, "Processing run "+run.ID+" failed", err)
		return
	}
	response.Success(c, processingResponse{Run: run, Result: res})
}

// GetRun handles GET /api/v1/processing/:id
func (h *ProcessingHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, "Failed to get processing run", err)
		return
	}
	response.Success(c, run)
}
