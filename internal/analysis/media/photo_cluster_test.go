package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

var t0 = time.Date(2024, 9, 14, 10, 0, 0, 0, time.UTC)

func photo(id string, offset time.Duration, lat, lon float64) models.Photo {
	return models.Photo{ID: id, UserID: "user-1", TakenAt: t0.Add(offset), Latitude: &lat, Longitude: &lon}
}

func photoIDs(c models.PhotoCluster) []string { return c.PhotoIDs }

func TestClusterByDistanceAndTime(t *testing.T) {
	c := NewClusterer(DefaultClusterConfig())
	photos := []models.Photo{
		photo("b", 10*time.Minute, 35.6586, 139.7455),
		photo("a", 0, 35.6586, 139.7454),
		photo("c", 50*time.Minute, 35.6590, 139.7455),   // ~45 m, 40 min later
		photo("far", 55*time.Minute, 35.7100, 139.8107), // Skytree, ~8 km
		photo("late", 4*time.Hour, 35.7101, 139.8107),   // same place, much later
		{ID: "untagged", TakenAt: t0.Add(5 * time.Minute)},
	}

	clusters := c.Cluster(photos)
	require.Len(t, clusters, 3)
	assert.Equal(t, []string{"a", "b", "c"}, photoIDs(clusters[0]))
	assert.Equal(t, []string{"far"}, photoIDs(clusters[1]))
	assert.Equal(t, []string{"late"}, photoIDs(clusters[2]))
	assert.Equal(t, t0, clusters[0].StartTime)
	assert.Equal(t, t0.Add(50*time.Minute), clusters[0].EndTime)
	assert.InDelta(t, 35.6587333, clusters[0].CenterLatitude, 1e-6)
}

func TestClusterMinPhotos(t *testing.T) {
	cfg := DefaultClusterConfig()
	cfg.MinPhotos = 2
	clusters := NewClusterer(cfg).Cluster([]models.Photo{
		photo("a", 0, 1, 1),
		photo("b", time.Minute, 1, 1),
		photo("lonely", 5*time.Hour, 1, 1),
	})
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"a", "b"}, clusters[0].PhotoIDs)
}

func TestClusterEmpty(t *testing.T) {
	clusters := NewClusterer(DefaultClusterConfig()).Cluster(nil)
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

func TestNearestVisit(t *testing.T) {
	visits := []models.PlaceVisit{
		{ID: "inside-window-far", StartTime: t0, EndTime: t0.Add(time.Hour), CenterLatitude: 10.01, CenterLongitude: 10},
		{ID: "inside-window-near", StartTime: t0, EndTime: t0.Add(time.Hour), CenterLatitude: 10.0005, CenterLongitude: 10},
		{ID: "outside-window", StartTime: t0.Add(2 * time.Hour), EndTime: t0.Add(3 * time.Hour), CenterLatitude: 10, CenterLongitude: 10},
	}
	assert.Equal(t, "inside-window-near", NearestVisit(photo("p", 30*time.Minute, 10, 10), visits, 200))
	assert.Empty(t, NearestVisit(photo("p", 90*time.Minute, 10, 10), visits, 200))
	assert.Empty(t, NearestVisit(models.Photo{ID: "untagged", TakenAt: t0}, visits, 200))
}
