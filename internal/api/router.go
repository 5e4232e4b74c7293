package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/handler"
	"github.com/po4yka/trailglass-sub007/internal/middleware"
)

// Handlers bundles the HTTP handlers served by the router
type Handlers struct {
	Samples    *handler.SampleHandler
	Processing *handler.ProcessingHandler
	Trips      *handler.TripHandler
	Photos     *handler.PhotoHandler
	Regions    *handler.RegionHandler
}

// RouterConfig holds the router settings
type RouterConfig struct {
	JWTSecret   string
	SampleLimit *middleware.RateLimiter
}

// SetupRouter builds the gin engine
func SetupRouter(cfg RouterConfig, h Handlers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger))

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Trailglass API is running",
		})
	})

	api := r.Group("/api/v1", middleware.Auth(cfg.JWTSecret))
	{
		samples := api.Group("/samples")
		if cfg.SampleLimit != nil {
			samples.Use(cfg.SampleLimit.Middleware())
		}
		samples.POST("", h.Samples.Append)

		api.DELETE("/sessions/:deviceId", h.Samples.ResetSession)

		processing := api.Group("/processing")
		{
			processing.POST("", h.Processing.Process)
			processing.GET("/:id", h.Processing.GetRun)
		}

		trips := api.Group("/trips")
		{
			trips.GET("", h.Trips.GetTrips)
			trips.GET("/:id", h.Trips.GetTripByID)
			trips.GET("/:id/days", h.Trips.GetTripDays)
			trips.GET("/:id/route", h.Trips.GetTripRoute)
			trips.GET("/:id/route.geojson", h.Trips.GetTripRouteGeoJSON)
		}

		photos := api.Group("/photos")
		{
			photos.POST("", h.Photos.Register)
			photos.GET("/clusters", h.Photos.GetClusters)
		}

		regions := api.Group("/regions")
		{
			regions.GET("", h.Regions.GetRegions)
			regions.PUT("", h.Regions.ReplaceRegions)
		}
	}

	return r
}
