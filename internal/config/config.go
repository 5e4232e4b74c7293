package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/po4yka/trailglass-sub007/internal/analysis"
	"github.com/po4yka/trailglass-sub007/internal/analysis/media"
	"github.com/po4yka/trailglass-sub007/internal/analysis/viz"
	"github.com/po4yka/trailglass-sub007/internal/geocoding"
	"github.com/po4yka/trailglass-sub007/internal/realtime"
	"github.com/po4yka/trailglass-sub007/internal/retry"
)

// Config is the application configuration
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	LogLevel  string

	// per-user request budget for sample uploads
	RateLimit       int
	RateLimitWindow time.Duration

	Geocoder   geocoding.ClientConfig
	GeoCache   geocoding.CacheConfig
	GeoRetry   retry.Policy
	CheckAddr  string
	CheckEvery time.Duration

	MQTT realtime.MQTTConfig

	Pipeline analysis.Config
	Realtime realtime.DetectorConfig
	Route    viz.Config
	Photos   media.ClusterConfig
}

// ErrMissingJWTSecret is returned when JWT_SECRET is not set
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", ":8080"),
		DBPath:          getEnv("DB_PATH", "./data/trailglass.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RateLimit:       120,
		RateLimitWindow: time.Minute,
		Geocoder:        geocoding.DefaultClientConfig(),
		GeoCache:        geocoding.DefaultCacheConfig(),
		GeoRetry:        geocoding.RetryPolicy(),
		CheckAddr:       os.Getenv("CONNECTIVITY_CHECK_ADDR"),
		CheckEvery:      30 * time.Second,
		MQTT:            realtime.DefaultMQTTConfig(),
		Pipeline:        analysis.DefaultConfig(),
		Realtime:        realtime.DefaultDetectorConfig(),
		Route:           viz.DefaultConfig(),
		Photos:          media.DefaultClusterConfig(),
	}
	cfg.Geocoder.BaseURL = getEnv("GEOCODER_URL", cfg.Geocoder.BaseURL)
	cfg.Geocoder.UserAgent = getEnv("GEOCODER_USER_AGENT", cfg.Geocoder.UserAgent)
	cfg.MQTT.BrokerURL = os.Getenv("MQTT_BROKER")
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC", cfg.MQTT.TopicPrefix)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = os.Getenv("MQTT_USERNAME")
	cfg.MQTT.Password = os.Getenv("MQTT_PASSWORD")

	p := &parser{}
	p.int("RATE_LIMIT", &cfg.RateLimit)
	p.int("GEOCODER_REQUESTS_PER_MINUTE", &cfg.Geocoder.RequestsPerMinute)
	p.duration("GEOCODE_CACHE_TTL", &cfg.GeoCache.TTL)
	p.float("GEOCODE_CACHE_RADIUS_M", &cfg.GeoCache.RadiusMeters)
	p.int("GEOCODE_MAX_ATTEMPTS", &cfg.GeoRetry.MaxAttempts)
	p.duration("CONNECTIVITY_CHECK_INTERVAL", &cfg.CheckEvery)

	f := &cfg.Pipeline.Filter
	p.float("FILTER_MAX_ACCURACY_M", &f.MaxAccuracyMeters)
	p.duration("FILTER_MIN_TIME_BETWEEN", &f.MinTimeBetween)
	p.float("FILTER_MIN_DISTANCE_M", &f.MinDistanceMeters)
	p.float("FILTER_MAX_SPEED_MPS", &f.MaxSpeedMps)
	p.float("FILTER_STATIC_RADIUS_M", &f.StaticRadiusMeters)
	p.int("FILTER_STATIC_WINDOW", &f.StaticWindow)

	p.float("VISIT_RADIUS_M", &cfg.Pipeline.Visit.SpatialThresholdMeters)
	p.duration("VISIT_MIN_DURATION", &cfg.Pipeline.Visit.MinDuration)

	p.float("SEGMENT_SIMPLIFY_EPSILON_M", &cfg.Pipeline.Segment.SimplifyEpsilonMeters)
	b := &cfg.Pipeline.Segment.Bands
	p.float("SPEED_WALK_MAX_MPS", &b.WalkMax)
	p.float("SPEED_BIKE_MAX_MPS", &b.BikeMax)
	p.float("SPEED_CAR_MAX_MPS", &b.CarMax)
	p.float("SPEED_TRAIN_MAX_MPS", &b.TrainMax)

	p.float("HOME_CLUSTER_RADIUS_M", &cfg.Pipeline.Home.ClusterRadiusMeters)
	p.int("HOME_MIN_NIGHTS", &cfg.Pipeline.Home.MinNights)

	p.float("TRIP_AWAY_DISTANCE_M", &cfg.Pipeline.Trip.AwayDistanceMeters)
	p.duration("TRIP_MIN_DURATION", &cfg.Pipeline.Trip.MinTripDuration)
	p.duration("TRIP_SAME_DAY_RETURN_GAP", &cfg.Pipeline.Trip.SameDayReturnGap)

	r := &cfg.Realtime
	p.float("LIVE_MIN_TRIP_DISTANCE_M", &r.MinTripDistanceMeters)
	p.duration("LIVE_MIN_TRIP_DURATION", &r.MinTripDuration)
	p.float("LIVE_STATIONARY_RADIUS_M", &r.StationaryRadiusMeters)
	p.duration("LIVE_STATIONARY_DURATION", &r.StationaryDuration)

	p.int("ROUTE_MAX_PATH_POINTS", &cfg.Route.MaxFullPathPoints)
	p.float("ROUTE_PHOTO_RADIUS_M", &cfg.Route.PhotoMatchRadiusMeters)
	p.int("ROUTE_CACHE_SIZE", &cfg.Route.MaxCacheSize)

	p.float("PHOTO_CLUSTER_DISTANCE_M", &cfg.Photos.MaxDistanceMeters)
	p.duration("PHOTO_CLUSTER_TIME_GAP", &cfg.Photos.MaxTimeGap)

	if p.err != nil {
		return nil, p.err
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if tz := os.Getenv("HOME_TIME_ZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid HOME_TIME_ZONE: %w", err)
		}
		cfg.Pipeline.Home.Location = loc
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parser overwrites defaults with environment values and keeps the first error
type parser struct {
	err error
}

func (p *parser) lookup(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := os.Getenv(key)
	return v, v != ""
}

func (p *parser) int(key string, dst *int) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = n
}

func (p *parser) float(key string, dst *float64) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = f
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = d
}
