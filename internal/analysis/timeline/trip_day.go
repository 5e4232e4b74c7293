package timeline

import (
	"sort"
	"time"

	"github.com/po4yka/trailglass-sub007/internal/models"
)

// Aggregator groups a trip's visits and routes into per-day timelines
type Aggregator struct{}

// NewAggregator creates a new trip day aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate returns one TripDay per local calendar date that has at least one
// visit or route, in date order. Items are assigned to the date their start
// time falls on in loc; a nil loc means UTC.
func (a *Aggregator) Aggregate(trip models.Trip, visits []models.PlaceVisit, routes []models.RouteSegment, loc *time.Location) []models.TripDay {
	if loc == nil {
		loc = time.UTC
	}

	byDate := make(map[string][]models.TimelineItem)
	for _, v := range visits {
		key := dateKey(v.StartTime, loc)
		byDate[key] = append(byDate[key], models.VisitItem{Visit: v})
	}
	for _, r := range routes {
		key := dateKey(r.StartTime, loc)
		byDate[key] = append(byDate[key], models.RouteItem{Route: r})
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	days := make([]models.TripDay, 0, len(dates))
	for _, date := range dates {
		items := byDate[date]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Timestamp().Before(items[j].Timestamp())
		})

		start, end := dayBounds(date, loc)
		timeline := make([]models.TimelineItem, 0, len(items)+2)
		timeline = append(timeline, models.DayStartItem{At: start})
		timeline = append(timeline, items...)
		timeline = append(timeline, models.DayEndItem{At: end})

		days = append(days, models.TripDay{TripID: trip.ID, Date: date, Items: timeline})
	}
	return days
}

func dateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// dayBounds returns local midnight at the start of date and at the start of the next day
func dayBounds(date string, loc *time.Location) (time.Time, time.Time) {
	d, _ := time.ParseInLocation("2006-01-02", date, loc)
	next := time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, loc)
	return d, next
}
