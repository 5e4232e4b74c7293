package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/analysis"
	"github.com/po4yka/trailglass-sub007/internal/analysis/behavior"
	"github.com/po4yka/trailglass-sub007/internal/analysis/media"
	"github.com/po4yka/trailglass-sub007/internal/analysis/viz"
	"github.com/po4yka/trailglass-sub007/internal/api"
	"github.com/po4yka/trailglass-sub007/internal/config"
	"github.com/po4yka/trailglass-sub007/internal/database"
	"github.com/po4yka/trailglass-sub007/internal/geocoding"
	"github.com/po4yka/trailglass-sub007/internal/handler"
	"github.com/po4yka/trailglass-sub007/internal/logging"
	"github.com/po4yka/trailglass-sub007/internal/middleware"
	"github.com/po4yka/trailglass-sub007/internal/realtime"
	"github.com/po4yka/trailglass-sub007/internal/repository"
	"github.com/po4yka/trailglass-sub007/internal/retry"
	"github.com/po4yka/trailglass-sub007/internal/service"
	"github.com/po4yka/trailglass-sub007/internal/timezone"
)

const (
	maintenanceInterval = time.Hour
	sessionMaxIdle      = 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Open(ctx, database.Config{Path: cfg.DBPath}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// geocoding: persistent cache in front of a rate-limited Nominatim client
	monitor := retry.NewMonitor(true)
	if cfg.CheckAddr != "" {
		go monitor.Watch(ctx, cfg.CheckAddr, cfg.CheckEvery, logger)
	}
	geoCache := geocoding.NewCache(cfg.GeoCache, repository.NewGeocodeRepository(db), logger)
	if n, err := geoCache.Warm(ctx); err != nil {
		logger.Warn("Failed to warm geocode cache", zap.Error(err))
	} else {
		logger.Info("Geocode cache warmed", zap.Int("entries", n))
	}

	var geocoder *geocoding.Service
	if cfg.Geocoder.BaseURL != "" {
		client := geocoding.NewClient(cfg.Geocoder, logger)
		defer client.Close()
		geocoder = geocoding.NewService(geoCache, client, retry.NewNetworkAware(cfg.GeoRetry, monitor), logger)
	}

	var zones analysis.ZoneResolver
	if resolver, err := timezone.NewResolver(logger); err != nil {
		logger.Warn("Time zone lookup unavailable, trips use UTC", zap.Error(err))
	} else {
		zones = resolver
	}

	// keep a nil *Service out of the visit.Geocoder interface
	var pipeline *analysis.Pipeline
	if geocoder != nil {
		pipeline = analysis.NewPipeline(cfg.Pipeline, geocoder, zones, logger)
	} else {
		pipeline = analysis.NewPipeline(cfg.Pipeline, nil, zones, logger)
	}

	// live tracking
	sinks := []realtime.Sink{realtime.NewLogSink(logger.Named("live"))}
	if cfg.MQTT.BrokerURL != "" {
		mqttSink, err := realtime.NewMQTTSink(cfg.MQTT, logger)
		if err != nil {
			return err
		}
		defer mqttSink.Close()
		sinks = append(sinks, mqttSink)
	}
	regionRepo := repository.NewRegionRepository(db)
	live := realtime.NewManager(cfg.Realtime, regionRepo, logger, sinks...)

	routeCache := viz.NewRouteCache(cfg.Route.MaxCacheSize)
	sampleRepo := repository.NewSampleRepository(db)

	processing := service.NewProcessingService(db, pipeline, behavior.NewHomeDetector(cfg.Pipeline.Home, zones, logger), routeCache, logger)
	trips := service.NewTripService(
		repository.NewTripRepository(db),
		repository.NewVisitRepository(db),
		repository.NewSegmentRepository(db),
		sampleRepo,
		repository.NewPhotoRepository(db),
		viz.NewRouteBuilder(cfg.Route, logger),
		routeCache,
		logger,
	)
	samples := service.NewSampleService(sampleRepo, live, logger)
	photos := service.NewPhotoService(repository.NewPhotoRepository(db), media.NewClusterer(cfg.Photos))
	regions := service.NewRegionService(regionRepo, live)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	defer limiter.Close()

	router := api.SetupRouter(api.RouterConfig{JWTSecret: cfg.JWTSecret, SampleLimit: limiter}, api.Handlers{
		Samples:    handler.NewSampleHandler(samples),
		Processing: handler.NewProcessingHandler(processing),
		Trips:      handler.NewTripHandler(trips),
		Photos:     handler.NewPhotoHandler(photos),
		Regions:    handler.NewRegionHandler(regions),
	}, logger)

	go maintain(ctx, geoCache, live, logger)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// maintain drops expired geocodes and idle live sessions until ctx is done
func maintain(ctx context.Context, cache *geocoding.Cache, live *realtime.Manager, logger *zap.Logger) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			expired := cache.ClearExpired(ctx)
			closed := live.CloseIdle(now, sessionMaxIdle)
			logger.Debug("Maintenance", zap.Int("expired_geocodes", expired), zap.Int("closed_sessions", closed))
		}
	}
}
