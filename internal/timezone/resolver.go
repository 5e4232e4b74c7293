package timezone

import (
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/ringsaturn/tzf"
	"go.uber.org/zap"
)

// Finder maps a coordinate to an IANA zone name. Note the argument order.
type Finder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// Resolver turns coordinates into *time.Location values, caching loaded zones.
type Resolver struct {
	finder Finder
	logger *zap.Logger

	mu    sync.Mutex
	zones map[string]*time.Location
}

// NewResolver creates a resolver backed by the bundled tzf boundary data
func NewResolver(logger *zap.Logger) (*Resolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, err
	}
	return NewResolverWithFinder(finder, logger), nil
}

// NewResolverWithFinder creates a resolver using the given finder
func NewResolverWithFinder(finder Finder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		finder: finder,
		logger: logger.Named("timezone"),
		zones:  make(map[string]*time.Location),
	}
}

// Locate returns the zone at the coordinate, or UTC when it is unknown
func (r *Resolver) Locate(lat, lon float64) *time.Location {
	name := r.finder.GetTimezoneName(lon, lat)
	if name == "" {
		return time.UTC
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if loc, ok := r.zones[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		r.logger.Warn("unknown time zone, falling back to UTC", zap.String("zone", name), zap.Error(err))
		loc = time.UTC
	}
	r.zones[name] = loc
	return loc
}

// Load returns the named zone, or UTC when name is empty or unknown
func Load(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
