package geocoding

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// CacheConfig defines the geocode cache behaviour
type CacheConfig struct {
	RadiusMeters float64       // a cached entry answers lookups within this distance
	TTL          time.Duration // entries older than this are ignored
	CellLevel    int           // s2 level used to bucket entries
}

// DefaultCacheConfig returns the default geocode cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		RadiusMeters: 100,
		TTL:          30 * 24 * time.Hour,
		CellLevel:    13, // ~1 km cells
	}
}

// Persister stores cache entries outside the process
type Persister interface {
	SaveGeocode(ctx context.Context, entry models.GeocodeCacheEntry) error
	LoadGeocodes(ctx context.Context, now time.Time) ([]models.GeocodeCacheEntry, error)
	DeleteExpiredGeocodes(ctx context.Context, now time.Time) (int64, error)
}

type cacheEntry struct {
	lat, lon  float64
	location  models.GeocodedLocation
	cachedAt  time.Time
	expiresAt time.Time
}

// Cache is a spatial-proximity cache of reverse geocoding results.
// Every read-modify-write sequence runs under one mutex; fetches run
// outside it.
type Cache struct {
	mu        sync.Mutex
	flights   singleflight.Group
	cfg       CacheConfig
	cells     map[s2.CellID][]*cacheEntry
	size      int
	persister Persister
	logger    *zap.Logger
	now       func() time.Time
}

// NewCache creates a cache. persister may be nil.
func NewCache(cfg CacheConfig, persister Persister, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		cfg:       cfg,
		cells:     make(map[s2.CellID][]*cacheEntry),
		persister: persister,
		logger:    logger.Named("geocode_cache"),
		now:       time.Now,
	}
}

// Get returns the nearest non-expired entry within the configured radius
func (c *Cache) Get(lat, lon float64) (*models.GeocodedLocation, bool) {
	return c.GetWithin(lat, lon, c.cfg.RadiusMeters)
}

// GetWithin returns the nearest non-expired entry within radiusMeters
func (c *Cache) GetWithin(lat, lon, radiusMeters float64) (*models.GeocodedLocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(lat, lon, radiusMeters)
}

// Put caches loc as the answer for (lat, lon)
func (c *Cache) Put(ctx context.Context, lat, lon float64, loc models.GeocodedLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(ctx, lat, lon, loc)
}

// GetOrFetch returns a cached answer or calls fetch and caches its result.
// Concurrent callers for the same point share one fetch. A caller whose ctx
// is done returns ctx.Err() without waiting; the shared fetch keeps running
// and still fills the cache. A nil result from fetch is returned but not
// cached.
func (c *Cache) GetOrFetch(ctx context.Context, lat, lon float64, fetch func(ctx context.Context) (*models.GeocodedLocation, error)) (*models.GeocodedLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc, ok := c.Get(lat, lon); ok {
		return loc, nil
	}

	ch := c.flights.DoChan(flightKey(lat, lon), func() (interface{}, error) {
		// a flight that finished just before this one may have filled the entry
		if loc, ok := c.Get(lat, lon); ok {
			return loc, nil
		}
		fctx := context.WithoutCancel(ctx)
		loc, err := fetch(fctx)
		if err != nil || loc == nil {
			return loc, err
		}
		c.Put(fctx, lat, lon, *loc)
		return loc, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		loc, _ := r.Val.(*models.GeocodedLocation)
		if loc == nil {
			return nil, nil
		}
		out := *loc
		return &out, nil
	}
}

func flightKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
}

// ClearExpired removes expired entries from memory and the persister and
// returns how many were removed from memory.
func (c *Cache) ClearExpired(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for cell, entries := range c.cells {
		kept := entries[:0]
		for _, e := range entries {
			if now.Before(e.expiresAt) {
				kept = append(kept, e)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(c.cells, cell)
		} else {
			c.cells[cell] = kept
		}
	}
	c.size -= removed

	if c.persister != nil {
		if _, err := c.persister.DeleteExpiredGeocodes(ctx, now); err != nil {
			c.logger.Warn("failed to purge expired geocodes", zap.Error(err))
		}
	}
	return removed
}

// Warm loads persisted non-expired entries into memory
func (c *Cache) Warm(ctx context.Context) (int, error) {
	if c.persister == nil {
		return 0, nil
	}
	entries, err := c.persister.LoadGeocodes(ctx, c.now())
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.insert(&cacheEntry{
			lat:       e.Location.Latitude,
			lon:       e.Location.Longitude,
			location:  e.Location,
			cachedAt:  e.CachedAt,
			expiresAt: e.ExpiresAt,
		})
	}
	c.logger.Info("geocode cache warmed", zap.Int("entries", len(entries)))
	return len(entries), nil
}

// Len returns the number of entries held in memory, expired or not
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Cache) lookup(lat, lon, radiusMeters float64) (*models.GeocodedLocation, bool) {
	now := c.now()
	var best *cacheEntry
	bestDist := radiusMeters

	for _, cell := range spatial.CellsWithin(lat, lon, radiusMeters, c.cfg.CellLevel) {
		for _, e := range c.cells[cell] {
			if !now.Before(e.expiresAt) {
				continue
			}
			if d := spatial.HaversineDistance(lat, lon, e.lat, e.lon); d <= bestDist {
				best, bestDist = e, d
			}
		}
	}
	if best == nil {
		return nil, false
	}
	loc := best.location
	return &loc, true
}

func (c *Cache) store(ctx context.Context, lat, lon float64, loc models.GeocodedLocation) {
	now := c.now()
	// the entry is keyed by the query point so a repeat lookup always hits
	loc.Latitude, loc.Longitude = lat, lon
	e := &cacheEntry{lat: lat, lon: lon, location: loc, cachedAt: now, expiresAt: now.Add(c.cfg.TTL)}
	c.insert(e)

	if c.persister == nil {
		return
	}
	err := c.persister.SaveGeocode(ctx, models.GeocodeCacheEntry{
		CellID:    uint64(spatial.CellID(lat, lon, c.cfg.CellLevel)),
		Location:  loc,
		CachedAt:  e.cachedAt,
		ExpiresAt: e.expiresAt,
	})
	if err != nil {
		c.logger.Warn("failed to persist geocode", zap.Error(err))
	}
}

func (c *Cache) insert(e *cacheEntry) {
	cell := spatial.CellID(e.lat, e.lon, c.cfg.CellLevel)
	c.cells[cell] = append(c.cells[cell], e)
	c.size++
}
