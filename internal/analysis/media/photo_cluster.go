package media

import (
	"sort"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

// ClusterConfig defines thresholds for photo clustering
type ClusterConfig struct {
	MaxDistanceMeters float64       // distance from the cluster center
	MaxTimeGap        time.Duration // time since the previous photo in the cluster
	MinPhotos         int
}

// DefaultClusterConfig returns the default photo clustering thresholds
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		MaxDistanceMeters: 200,
		MaxTimeGap:        time.Hour,
		MinPhotos:         1,
	}
}

// Clusterer groups geotagged photos that are close in both space and time
type Clusterer struct {
	cfg ClusterConfig
}

// NewClusterer creates a new photo clusterer
func NewClusterer(cfg ClusterConfig) *Clusterer {
	return &Clusterer{cfg: cfg}
}

// Cluster returns clusters in time order. Photos without a location are ignored.
func (c *Clusterer) Cluster(photos []models.Photo) []models.PhotoCluster {
	located := make([]models.Photo, 0, len(photos))
	for _, p := range photos {
		if p.HasLocation() {
			located = append(located, p)
		}
	}
	sort.SliceStable(located, func(i, j int) bool {
		return located[i].TakenAt.Before(located[j].TakenAt)
	})

	clusters := []models.PhotoCluster{}
	var current []models.Photo
	var center spatial.Point

	flush := func() {
		if len(current) >= c.cfg.MinPhotos && len(current) > 0 {
			clusters = append(clusters, newCluster(current, center))
		}
		current = nil
	}

	for _, p := range located {
		pt := spatial.Point{Lat: *p.Latitude, Lon: *p.Longitude}
		if len(current) > 0 {
			gap := p.TakenAt.Sub(current[len(current)-1].TakenAt)
			if gap > c.cfg.MaxTimeGap || spatial.Distance(center, pt) > c.cfg.MaxDistanceMeters {
				flush()
			}
		}
		if len(current) == 0 {
			center = pt
		}
		current = append(current, p)
		n := float64(len(current))
		center.Lat += (pt.Lat - center.Lat) / n
		center.Lon += (pt.Lon - center.Lon) / n
	}
	flush()

	return clusters
}

func newCluster(photos []models.Photo, center spatial.Point) models.PhotoCluster {
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	first, last := photos[0], photos[len(photos)-1]
	return models.PhotoCluster{
		ID:              models.ContentID("photo_cluster", first.UserID, first.ID, last.ID),
		CenterLatitude:  center.Lat,
		CenterLongitude: center.Lon,
		StartTime:       first.TakenAt,
		EndTime:         last.TakenAt,
		PhotoIDs:        ids,
	}
}

// NearestVisit returns the id of the closest visit in progress at the
// photo's time whose center is within radiusMeters, or "".
func NearestVisit(photo models.Photo, visits []models.PlaceVisit, radiusMeters float64) string {
	if !photo.HasLocation() {
		return ""
	}
	best := radiusMeters
	match := ""
	for _, v := range visits {
		if photo.TakenAt.Before(v.StartTime) || photo.TakenAt.After(v.EndTime) {
			continue
		}
		d := spatial.HaversineDistance(*photo.Latitude, *photo.Longitude, v.CenterLatitude, v.CenterLongitude)
		if d <= best {
			best, match = d, v.ID
		}
	}
	return match
}
