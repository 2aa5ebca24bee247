package tracking

import "github.com/theoremus-urban-solutions/rail-live/gtfs"

// effectiveDeparture is the time a vehicle leaves a stop, falling back
// to arrival when departure is absent.
func effectiveDeparture(st gtfs.StopTime) *int64 {
	if st.Departure != nil {
		return st.Departure
	}
	return st.Arrival
}

// effectiveArrival is the time a vehicle reaches a stop, falling back
// to departure when arrival is absent.
func effectiveArrival(st gtfs.StopTime) *int64 {
	if st.Arrival != nil {
		return st.Arrival
	}
	return st.Departure
}

// Interpolate estimates a trip's coordinate at the given instant.
//
// The current stop is the latest one whose departure time is at or
// before now. Between the current stop and the next one the position is
// blended linearly in each axis by (now-departure)/(arrival-departure),
// clamped to [0,1]. At or past the final stop the terminus coordinate
// is returned exactly. When the bounding times are unknown the current
// stop's coordinate is returned rather than a guess.
//
// The second return is false when no stop on the trip resolves to a
// known coordinate.
func Interpolate(trip *gtfs.Trip, stops map[string]gtfs.Stop, now int64) (lat, lon float64, ok bool) {
	if trip == nil {
		return 0, 0, false
	}

	// Keep only stop times whose stop has a coordinate.
	type point struct {
		st   gtfs.StopTime
		stop gtfs.Stop
	}
	pts := make([]point, 0, len(trip.StopTimes))
	for _, st := range trip.StopTimes {
		if stop, found := stops[st.StopID]; found {
			pts = append(pts, point{st: st, stop: stop})
		}
	}
	if len(pts) == 0 {
		return 0, 0, false
	}

	// Latest stop already departed.
	current := -1
	for i, p := range pts {
		dep := effectiveDeparture(p.st)
		if dep != nil && *dep <= now {
			current = i
		}
	}
	if current < 0 {
		// Before the first departure, or no timing data at all.
		return pts[0].stop.Lat, pts[0].stop.Lon, true
	}
	if current == len(pts)-1 {
		return pts[current].stop.Lat, pts[current].stop.Lon, true
	}

	from, to := pts[current], pts[current+1]
	dep := effectiveDeparture(from.st)
	arr := effectiveArrival(to.st)
	if dep == nil || arr == nil || *arr <= *dep {
		return from.stop.Lat, from.stop.Lon, true
	}

	progress := float64(now-*dep) / float64(*arr-*dep)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	lat = from.stop.Lat + (to.stop.Lat-from.stop.Lat)*progress
	lon = from.stop.Lon + (to.stop.Lon-from.stop.Lon)*progress
	return lat, lon, true
}
