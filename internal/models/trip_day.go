package models

import (
	"encoding/json"
	"time"
)

// TimelineItemKind discriminates the TimelineItem variants
type TimelineItemKind string

// TimelineItemKind constants
const (
	ItemDayStart TimelineItemKind = "DAY_START"
	ItemVisit    TimelineItemKind = "VISIT"
	ItemRoute    TimelineItemKind = "ROUTE"
	ItemDayEnd   TimelineItemKind = "DAY_END"
)

// TimelineItem is one entry of a TripDay. The set of implementations is
// closed: DayStartItem, VisitItem, RouteItem and DayEndItem.
type TimelineItem interface {
	Kind() TimelineItemKind
	Timestamp() time.Time
	timelineItem()
}

// DayStartItem marks local midnight at the start of a day
type DayStartItem struct {
	At time.Time
}

// VisitItem wraps a place visit
type VisitItem struct {
	Visit PlaceVisit
}

// RouteItem wraps a route segment
type RouteItem struct {
	Route RouteSegment
}

// DayEndItem marks local midnight at the end of a day
type DayEndItem struct {
	At time.Time
}

func (i DayStartItem) Kind() TimelineItemKind { return ItemDayStart }
func (i VisitItem) Kind() TimelineItemKind    { return ItemVisit }
func (i RouteItem) Kind() TimelineItemKind    { return ItemRoute }
func (i DayEndItem) Kind() TimelineItemKind   { return ItemDayEnd }

func (i DayStartItem) Timestamp() time.Time { return i.At }
func (i VisitItem) Timestamp() time.Time    { return i.Visit.StartTime }
func (i RouteItem) Timestamp() time.Time    { return i.Route.StartTime }
func (i DayEndItem) Timestamp() time.Time   { return i.At }

func (DayStartItem) timelineItem() {}
func (VisitItem) timelineItem()    {}
func (RouteItem) timelineItem()    {}
func (DayEndItem) timelineItem()   {}

// TripDay is one calendar date's ordered slice of a trip's timeline.
// Items always begin with a DayStartItem and end with a DayEndItem.
type TripDay struct {
	TripID string         `json:"tripId"`
	Date   string         `json:"date"` // YYYY-MM-DD in the trip's time zone
	Items  []TimelineItem `json:"items"`
}

type timelineItemJSON struct {
	Kind      TimelineItemKind `json:"kind"`
	Timestamp time.Time        `json:"timestamp"`
	Visit     *PlaceVisit      `json:"visit,omitempty"`
	Route     *RouteSegment    `json:"route,omitempty"`
}

// MarshalJSON encodes items as tagged objects
func (d TripDay) MarshalJSON() ([]byte, error) {
	items := make([]timelineItemJSON, 0, len(d.Items))
	for _, item := range d.Items {
		out := timelineItemJSON{Kind: item.Kind(), Timestamp: item.Timestamp()}
		switch v := item.(type) {
		case VisitItem:
			out.Visit = &v.Visit
		case RouteItem:
			out.Route = &v.Route
		}
		items = append(items, out)
	}
	return json.Marshal(struct {
		TripID string             `json:"tripId"`
		Date   string             `json:"date"`
		Items  []timelineItemJSON `json:"items"`
	}{d.TripID, d.Date, items})
}
