package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/po4yka/trailglass-sub007/internal/middleware"
	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/service"
	"github.com/po4yka/trailglass-sub007/pkg/response"
)

// TripHandler handles HTTP requests for trips
type TripHandler struct {
	service *service.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(service *service.TripService) *TripHandler {
	return &TripHandler{service: service}
}

// GetTrips handles GET /api/v1/trips
func (h *TripHandler) GetTrips(c *gin.Context) {
	var filter models.TripFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	filter.UserID = middleware.UserID(c)

	trips, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, "Failed to get trips", err)
		return
	}
	response.Success(c, trips)
}

// GetTripByID handles GET /api/v1/trips/:id
func (h *TripHandler) GetTripByID(c *gin.Context) {
	trip, err := h.service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, "Failed to get trip", err)
		return
	}
	response.Success(c, trip)
}

// GetTripDays handles GET /api/v1/trips/:id/days
func (h *TripHandler) GetTripDays(c *gin.Context) {
	days, err := h.service.Days(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, "Failed to get trip days", err)
		return
	}
	response.Success(c, days)
}

// GetTripRoute handles GET /api/v1/trips/:id/route
func (h *TripHandler) GetTripRoute(c *gin.Context) {
	route, err := h.service.Route(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, "Failed to get trip route", err)
		return
	}
	response.Success(c, route)
}

// GetTripRouteGeoJSON handles GET /api/v1/trips/:id/route.geojson. The
// body is a bare FeatureCollection so map clients can load it directly.
func (h *TripHandler) GetTripRouteGeoJSON(c *gin.Context) {
	fc, err := h.service.RouteGeoJSON(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, "Failed to get trip route", err)
		return
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		response.InternalError(c, "Failed to encode route", err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}
