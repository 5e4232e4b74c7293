package viz

import (
	"sync"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// RouteCache is a bounded cache of built trip routes keyed by trip id.
// When full, the entry inserted earliest is evicted. A single mutex guards
// every operation, including the build in GetOrBuild, so a route is never
// built twice concurrently and the cache never exceeds its size.
type RouteCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]models.TripRoute
	order   []string // trip ids, oldest insertion first
}

// NewRouteCache creates a route cache holding at most maxSize routes
func NewRouteCache(maxSize int) *RouteCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &RouteCache{
		maxSize: maxSize,
		entries: make(map[string]models.TripRoute),
	}
}

// Get returns the cached route for tripID
func (c *RouteCache) Get(tripID string) (models.TripRoute, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[tripID]
	return r, ok
}

// Put stores a route, evicting the oldest insertion if needed
func (c *RouteCache) Put(route models.TripRoute) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(route)
}

// GetOrBuild returns the cached route or builds, caches and returns it.
// A failed build is not cached.
func (c *RouteCache) GetOrBuild(tripID string, build func() (models.TripRoute, error)) (models.TripRoute, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.entries[tripID]; ok {
		return r, nil
	}
	r, err := build()
	if err != nil {
		return models.TripRoute{}, err
	}
	r.TripID = tripID
	c.put(r)
	return r, nil
}

// Invalidate drops a trip's route
func (c *RouteCache) Invalidate(tripID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[tripID]; !ok {
		return
	}
	delete(c.entries, tripID)
	for i, id := range c.order {
		if id == tripID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cache
func (c *RouteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]models.TripRoute)
	c.order = nil
}

// Len returns the number of cached routes
func (c *RouteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RouteCache) put(route models.TripRoute) {
	if _, ok := c.entries[route.TripID]; ok {
		c.entries[route.TripID] = route
		return
	}
	for len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[route.TripID] = route
	c.order = append(c.order, route.TripID)
}
