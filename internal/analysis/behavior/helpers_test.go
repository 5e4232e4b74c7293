package behavior

import (
	"fmt"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
	"github.com/po4yka/trailglass-sub007/internal/spatial"
)

var day0 = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

// stay produces samples at p every step within [start, end], both inclusive
func stay(prefix string, p spatial.Point, start, end time.Time, step time.Duration) []models.LocationSample {
	var out []models.LocationSample
	for i, ts := 0, start; !ts.After(end); i, ts = i+1, ts.Add(step) {
		out = append(out, models.LocationSample{
			ID:        fmt.Sprintf("%s-%02d", prefix, i),
			UserID:    "user-1",
			Timestamp: ts,
			Latitude:  p.Lat,
			Longitude: p.Lon,
			Accuracy:  10,
		})
	}
	return out
}

// leg produces n samples strictly between from and to, evenly spaced in time and space
func leg(prefix string, from, to spatial.Point, start, end time.Time, n int) []models.LocationSample {
	out := make([]models.LocationSample, n)
	for k := 1; k <= n; k++ {
		f := float64(k) / float64(n+1)
		out[k-1] = models.LocationSample{
			ID:        fmt.Sprintf("%s-%02d", prefix, k),
			UserID:    "user-1",
			Timestamp: start.Add(time.Duration(f * float64(end.Sub(start)))),
			Latitude:  from.Lat + f*(to.Lat-from.Lat),
			Longitude: from.Lon + f*(to.Lon-from.Lon),
			Accuracy:  10,
		}
	}
	return out
}

func visitOf(id string, samples []models.LocationSample) models.PlaceVisit {
	v := models.PlaceVisit{
		ID:              id,
		UserID:          "user-1",
		StartTime:       samples[0].Timestamp,
		EndTime:         samples[len(samples)-1].Timestamp,
		CenterLatitude:  samples[0].Latitude,
		CenterLongitude: samples[0].Longitude,
	}
	for _, s := range samples {
		v.LocationSampleIDs = append(v.LocationSampleIDs, s.ID)
	}
	return v
}

func at(p spatial.Point, start, end time.Time, country string) models.PlaceVisit {
	return models.PlaceVisit{
		ID:              fmt.Sprintf("v-%d", start.Unix()),
		UserID:          "user-1",
		StartTime:       start,
		EndTime:         end,
		CenterLatitude:  p.Lat,
		CenterLongitude: p.Lon,
		CountryCode:     country,
	}
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
