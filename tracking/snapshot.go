package tracking

import (
	"sort"
	"time"

	"github.com/theoremus-urban-solutions/rail-live/gtfs"
	"github.com/theoremus-urban-solutions/rail-live/gtfsrt"
)

// Position sources for a TrainView.
const (
	SourceReported     = "reported"
	SourceInterpolated = "interpolated"
)

// RouteView is the schedule-side summary of one route.
type RouteView struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	ShortName string   `json:"shortName"`
	LongName  string   `json:"longName"`
	Synthetic bool     `json:"synthetic,omitempty"`
	TripIDs   []string `json:"tripIds"`
}

// TrainView is one realtime entity resolved against the schedule.
type TrainView struct {
	EntityID        string   `json:"entityId"`
	TripID          string   `json:"tripId,omitempty"`
	RouteID         string   `json:"routeId,omitempty"`
	Headsign        string   `json:"headsign,omitempty"`
	Lat             float64  `json:"lat"`
	Lon             float64  `json:"lon"`
	HasPosition     bool     `json:"hasPosition"`
	Source          string   `json:"source,omitempty"`
	Bearing         *float64 `json:"bearing,omitempty"`
	Speed           *float64 `json:"speed,omitempty"`
	Status          string   `json:"status,omitempty"`
	DelaySecs       *int32   `json:"delaySecs,omitempty"`
	PlatformChanged bool     `json:"platformChanged"`
	Timestamp       int64    `json:"timestamp,omitempty"`
}

// AlertView is a service alert flattened for the snapshot surface.
type AlertView struct {
	Header      string   `json:"header,omitempty"`
	Description string   `json:"description,omitempty"`
	Cause       string   `json:"cause,omitempty"`
	Effect      string   `json:"effect,omitempty"`
	URL         string   `json:"url,omitempty"`
	RouteIDs    []string `json:"routeIds,omitempty"`
	StopIDs     []string `json:"stopIds,omitempty"`
}

// Snapshot is the hand-off surface to callers. It is built in one shot
// and never mutated afterwards.
type Snapshot struct {
	GeneratedAt  time.Time   `json:"generatedAt"`
	Routes       []RouteView `json:"routes"`
	ActiveTrains []TrainView `json:"activeTrains"`
	Unmatched    []TrainView `json:"unmatched"`
	Alerts       []AlertView `json:"alerts,omitempty"`
}

// entityTrip digs the trip descriptor out of whichever message the
// entity carries.
func entityTrip(e gtfsrt.Entity) *gtfsrt.TripDescriptor {
	if e.TripUpdate != nil && e.TripUpdate.Trip != nil {
		return e.TripUpdate.Trip
	}
	if e.Vehicle != nil && e.Vehicle.Trip != nil {
		return e.Vehicle.Trip
	}
	return nil
}

// latestDelay picks the delay from the last stop time update that has
// one, preferring departure over arrival within an update.
func latestDelay(tu *gtfsrt.TripUpdate) *int32 {
	if tu == nil {
		return nil
	}
	for i := len(tu.StopTimeUpdates) - 1; i >= 0; i-- {
		stu := tu.StopTimeUpdates[i]
		if stu.Departure != nil && stu.Departure.Delay != nil {
			return stu.Departure.Delay
		}
		if stu.Arrival != nil && stu.Arrival.Delay != nil {
			return stu.Arrival.Delay
		}
	}
	return nil
}

// Assemble combines the static index and one decoded feed into a
// snapshot. It does no I/O; now supplies both the snapshot timestamp
// and, via its wall clock, the instant used for interpolation against
// schedule times.
//
// Entities whose trip cannot be resolved against the schedule are kept
// in Unmatched with whatever raw position they reported, never dropped.
func Assemble(idx *gtfs.Index, entities []gtfsrt.Entity, now time.Time) *Snapshot {
	snap := &Snapshot{GeneratedAt: now}
	if idx == nil {
		idx = &gtfs.Index{}
	}

	for _, r := range idx.Routes {
		rv := RouteView{
			ID:        r.ID,
			Type:      r.Type.String(),
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Synthetic: r.Synthetic,
		}
		for _, t := range r.Trips {
			rv.TripIDs = append(rv.TripIDs, t.ID)
		}
		snap.Routes = append(snap.Routes, rv)
	}

	h, m, s := now.Clock()
	clock := int64(h*3600 + m*60 + s)

	for _, e := range entities {
		if e.Alert != nil {
			snap.Alerts = append(snap.Alerts, alertView(e.Alert))
		}
		if e.Vehicle == nil && e.TripUpdate == nil {
			continue
		}

		tv := TrainView{
			EntityID:        e.ID,
			DelaySecs:       latestDelay(e.TripUpdate),
			PlatformChanged: gtfsrt.HasPlatformChange(e),
		}
		if e.Vehicle != nil {
			tv.Status = e.Vehicle.Status
			tv.Bearing = e.Vehicle.Bearing
			tv.Speed = e.Vehicle.Speed
			tv.Timestamp = e.Vehicle.Timestamp
		}

		var trip *gtfs.Trip
		if td := entityTrip(e); td != nil {
			tv.TripID = td.TripID
			tv.RouteID = td.RouteID
			trip = idx.TripsByID[td.TripID]
		}

		switch {
		case e.Vehicle != nil && e.Vehicle.HasPosition:
			tv.Lat = e.Vehicle.Latitude
			tv.Lon = e.Vehicle.Longitude
			tv.HasPosition = true
			tv.Source = SourceReported
		case trip != nil:
			if lat, lon, ok := Interpolate(trip, idx.Stops, clock); ok {
				tv.Lat = lat
				tv.Lon = lon
				tv.HasPosition = true
				tv.Source = SourceInterpolated
			}
		}

		if trip != nil {
			tv.Headsign = trip.Headsign
			if tv.RouteID == "" {
				tv.RouteID = trip.RouteID
			}
			snap.ActiveTrains = append(snap.ActiveTrains, tv)
		} else {
			snap.Unmatched = append(snap.Unmatched, tv)
		}
	}

	sort.Slice(snap.ActiveTrains, func(i, j int) bool {
		return snap.ActiveTrains[i].EntityID < snap.ActiveTrains[j].EntityID
	})
	sort.Slice(snap.Unmatched, func(i, j int) bool {
		return snap.Unmatched[i].EntityID < snap.Unmatched[j].EntityID
	})
	return snap
}

func alertView(a *gtfsrt.Alert) AlertView {
	av := AlertView{
		Header:      a.Header,
		Description: a.Description,
		Cause:       a.Cause,
		Effect:      a.Effect,
		URL:         a.URL,
	}
	for _, ie := range a.InformedEntities {
		if ie.RouteID != "" {
			av.RouteIDs = append(av.RouteIDs, ie.RouteID)
		}
		if ie.StopID != "" {
			av.StopIDs = append(av.StopIDs, ie.StopID)
		}
	}
	return av
}
