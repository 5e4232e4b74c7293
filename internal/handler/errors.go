package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/po4yka/trailglass-sub007/internal/service"
	"github.com/po4yka/trailglass-sub007/pkg/response"
)

// fail maps service errors onto HTTP status codes
func fail(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, service.ErrTripNotFound), errors.Is(err, service.ErrRunNotFound):
		response.Error(c, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrInvalidRange), errors.Is(err, service.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, message, err)
	default:
		response.Error(c, http.StatusInternalServerError, message, err)
	}
}
