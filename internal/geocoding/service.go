package geocoding

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/retry"
)

// Fetcher is the underlying reverse geocoder
type Fetcher interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*models.GeocodedLocation, error)
}

// Service answers reverse geocoding requests from the cache, falling back to
// the fetcher with retries.
type Service struct {
	cache   *Cache
	fetcher Fetcher
	retrier *retry.NetworkAware
	logger  *zap.Logger
}

// NewService creates a geocoding service
func NewService(cache *Cache, fetcher Fetcher, retrier *retry.NetworkAware, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = retry.NewNetworkAware(RetryPolicy(), nil)
	}
	return &Service{cache: cache, fetcher: fetcher, retrier: retrier, logger: logger.Named("geocoding")}
}

// RetryPolicy is the default policy for geocoder calls: throttling, server
// errors and network errors are retried.
func RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Retryable = Retryable
	return p
}

// Retryable reports whether a geocoder failure is worth retrying
func Retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return retry.IsNetworkError(err)
}

// ReverseGeocode implements the visit detector's geocoder
func (s *Service) ReverseGeocode(ctx context.Context, lat, lon float64) (*models.GeocodedLocation, error) {
	return s.cache.GetOrFetch(ctx, lat, lon, func(ctx context.Context) (*models.GeocodedLocation, error) {
		s.logger.Debug("geocode cache miss", zap.Float64("lat", lat), zap.Float64("lon", lon))
		return retry.DoNetworkAware(ctx, s.retrier, func(ctx context.Context) (*models.GeocodedLocation, error) {
			return s.fetcher.ReverseGeocode(ctx, lat, lon)
		})
	})
}

// Cache returns the underlying cache
func (s *Service) Cache() *Cache {
	return s.cache
}
