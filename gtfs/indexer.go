package gtfs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Options bounds the index build.
type Options struct {
	// MaxTripsPerRoute caps how many trips per route survive indexing.
	// The sample deterministically prefers the trips with the most stops:
	// richer trips render better and are less likely to be degenerate.
	// Zero means unbounded.
	MaxTripsPerRoute int
}

// MissingColumnsError reports a planning table whose required fields were
// absent. The table is skipped; the build continues with the rest.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("table %s missing required columns %s", e.Table, strings.Join(e.Columns, ","))
}

// Index is one immutable schedule snapshot. It is replaced wholesale on
// refresh, never mutated.
type Index struct {
	AgencyName string
	AgencyTZ   string

	Stops      map[string]Stop
	Routes     []*Route
	RoutesByID map[string]*Route
	TripsByID  map[string]*Trip

	calendar   map[string]CalendarRow
	exceptions map[string]map[string]int // service_id -> YYYYMMDD -> exception_type

	// Skipped lists the tables dropped by validation, for callers that
	// want to surface degraded builds.
	Skipped []*MissingColumnsError

	Synthetic bool
	BuiltAt   time.Time
}

// BuildIndex validates and indexes the planning tables. It never fails:
// tables that do not validate are skipped, and when nothing usable is left
// the synthetic fallback network is returned instead.
func BuildIndex(t Tables, opts Options) *Index {
	idx := &Index{
		Stops:      map[string]Stop{},
		RoutesByID: map[string]*Route{},
		TripsByID:  map[string]*Trip{},
		calendar:   map[string]CalendarRow{},
		exceptions: map[string]map[string]int{},
		BuiltAt:    time.Now(),
	}

	if len(t.Agency) > 0 {
		idx.AgencyName = t.Agency[0].AgencyName
		idx.AgencyTZ = t.Agency[0].AgencyTimezone
	}

	routes, stops, skipped := BuildRoutes(t.Stops, t.Routes, t.Trips, t.StopTimes, opts)
	idx.Routes = routes
	idx.Stops = stops
	idx.Skipped = skipped
	for _, s := range skipped {
		log.Warn().Str("table", s.Table).Strs("columns", s.Columns).Msg("gtfs: skipping table")
	}

	if len(idx.Routes) == 0 && len(idx.Stops) == 0 {
		log.Warn().Msg("gtfs: no usable schedule data, using synthetic fallback network")
		fb := FallbackIndex()
		fb.Skipped = skipped
		return fb
	}

	for _, r := range idx.Routes {
		idx.RoutesByID[r.ID] = r
		for _, tr := range r.Trips {
			idx.TripsByID[tr.ID] = tr
		}
	}

	for _, c := range t.Calendar {
		if c.ServiceID != "" {
			idx.calendar[c.ServiceID.String()] = c
		}
	}
	for _, cd := range t.CalendarDates {
		if cd.ServiceID == "" || cd.Date == "" {
			continue
		}
		sid := cd.ServiceID.String()
		if idx.exceptions[sid] == nil {
			idx.exceptions[sid] = map[string]int{}
		}
		idx.exceptions[sid][cd.Date.String()] = int(cd.ExceptionType.Value)
	}

	return idx
}

// BuildRoutes builds the Route -> Trip -> ordered Stop structure from the
// raw planning tables. Returned routes are sorted by ID so output never
// depends on map iteration order.
func BuildRoutes(stopRows []StopRow, routeRows []RouteRow, tripRows []TripRow, stopTimeRows []StopTimeRow, opts Options) ([]*Route, map[string]Stop, []*MissingColumnsError) {
	var skipped []*MissingColumnsError

	stops := map[string]Stop{}
	if err := validateStopRows(stopRows); err != nil {
		skipped = append(skipped, err)
	} else {
		for _, row := range stopRows {
			if row.StopID == "" || !row.StopLat.Valid || !row.StopLon.Valid {
				continue
			}
			// A (0,0) coordinate is the feed's way of saying "unknown";
			// it is in the Gulf of Guinea, not Belgium.
			if row.StopLat.Value == 0 && row.StopLon.Value == 0 {
				continue
			}
			stops[row.StopID.String()] = Stop{
				ID:           row.StopID.String(),
				Name:         row.StopName,
				Lat:          row.StopLat.Value,
				Lon:          row.StopLon.Value,
				PlatformCode: row.PlatformCode.String(),
			}
		}
	}

	routesByID := map[string]*Route{}
	if err := validateRouteRows(routeRows); err != nil {
		skipped = append(skipped, err)
	} else {
		for _, row := range routeRows {
			if row.RouteID == "" {
				continue
			}
			routesByID[row.RouteID.String()] = &Route{
				ID:        row.RouteID.String(),
				Type:      ParseRouteType(int(row.RouteType.Value)),
				ShortName: row.RouteShortName,
				LongName:  row.RouteLongName,
			}
		}
	}

	stopTimesByTrip := map[string][]StopTime{}
	if err := validateStopTimeRows(stopTimeRows); err != nil {
		skipped = append(skipped, err)
	} else {
		for _, row := range stopTimeRows {
			if row.TripID == "" || row.StopID == "" || !row.StopSequence.Valid {
				continue
			}
			if _, ok := stops[row.StopID.String()]; !ok {
				continue
			}
			stopTimesByTrip[row.TripID.String()] = append(stopTimesByTrip[row.TripID.String()], StopTime{
				StopID:    row.StopID.String(),
				Sequence:  int(row.StopSequence.Value),
				Arrival:   parseOptionalClock(row.ArrivalTime),
				Departure: parseOptionalClock(row.DepartureTime),
			})
		}
	}

	if err := validateTripRows(tripRows); err != nil {
		skipped = append(skipped, err)
		tripRows = nil
	}

	for _, row := range tripRows {
		if row.TripID == "" || row.RouteID == "" {
			continue
		}
		sts := orderedStopTimes(stopTimesByTrip[row.TripID.String()])
		if len(sts) < 2 {
			// Cannot form a line segment.
			continue
		}
		trip := &Trip{
			ID:        row.TripID.String(),
			RouteID:   row.RouteID.String(),
			ServiceID: row.ServiceID.String(),
			Headsign:  row.TripHeadsign,
			StopTimes: sts,
		}
		route, ok := routesByID[trip.RouteID]
		if !ok {
			// Trip references a route the routes table never declared
			// (or the table was skipped). Default to a rail route.
			route = &Route{ID: trip.RouteID, Type: RouteTypeRail}
			routesByID[trip.RouteID] = route
		}
		route.Trips = append(route.Trips, trip)
	}

	var routes []*Route
	for _, r := range routesByID {
		sampleTrips(r, opts.MaxTripsPerRoute)
		if len(r.Trips) == 0 {
			continue
		}
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })

	return routes, stops, skipped
}

// orderedStopTimes sorts by sequence and drops duplicates so the remaining
// sequence numbers are strictly increasing.
func orderedStopTimes(sts []StopTime) []StopTime {
	sort.SliceStable(sts, func(i, j int) bool { return sts[i].Sequence < sts[j].Sequence })
	out := sts[:0]
	last := -1
	for _, st := range sts {
		if st.Sequence <= last {
			continue
		}
		out = append(out, st)
		last = st.Sequence
	}
	return out
}

// sampleTrips keeps the max trips with the most stops, deterministically.
func sampleTrips(r *Route, max int) {
	sort.SliceStable(r.Trips, func(i, j int) bool {
		if len(r.Trips[i].StopTimes) != len(r.Trips[j].StopTimes) {
			return len(r.Trips[i].StopTimes) > len(r.Trips[j].StopTimes)
		}
		return r.Trips[i].ID < r.Trips[j].ID
	})
	if max > 0 && len(r.Trips) > max {
		r.Trips = r.Trips[:max]
	}
}

func validateStopRows(rows []StopRow) *MissingColumnsError {
	if len(rows) == 0 {
		return &MissingColumnsError{Table: "stops", Columns: []string{"stop_id", "stop_lat", "stop_lon"}}
	}
	for _, r := range rows {
		if r.StopID != "" && r.StopLat.Valid && r.StopLon.Valid {
			return nil
		}
	}
	return &MissingColumnsError{Table: "stops", Columns: []string{"stop_id", "stop_lat", "stop_lon"}}
}

func validateRouteRows(rows []RouteRow) *MissingColumnsError {
	if len(rows) == 0 {
		return &MissingColumnsError{Table: "routes", Columns: []string{"route_id"}}
	}
	for _, r := range rows {
		if r.RouteID != "" {
			return nil
		}
	}
	return &MissingColumnsError{Table: "routes", Columns: []string{"route_id"}}
}

func validateTripRows(rows []TripRow) *MissingColumnsError {
	if len(rows) == 0 {
		return &MissingColumnsError{Table: "trips", Columns: []string{"trip_id", "route_id"}}
	}
	for _, r := range rows {
		if r.TripID != "" && r.RouteID != "" {
			return nil
		}
	}
	return &MissingColumnsError{Table: "trips", Columns: []string{"trip_id", "route_id"}}
}

func validateStopTimeRows(rows []StopTimeRow) *MissingColumnsError {
	if len(rows) == 0 {
		return &MissingColumnsError{Table: "stop_times", Columns: []string{"trip_id", "stop_id", "stop_sequence"}}
	}
	for _, r := range rows {
		if r.TripID != "" && r.StopID != "" && r.StopSequence.Valid {
			return nil
		}
	}
	return &MissingColumnsError{Table: "stop_times", Columns: []string{"trip_id", "stop_id", "stop_sequence"}}
}

// ServiceActiveOn reports whether a service runs on the given date, from the
// calendar table plus calendar_dates exceptions. Unknown services default to
// active; calendar data is best-effort in this feed.
func (idx *Index) ServiceActiveOn(serviceID string, date time.Time) bool {
	day := date.Format("20060102")
	if ex, ok := idx.exceptions[serviceID][day]; ok {
		return ex == 1
	}
	c, ok := idx.calendar[serviceID]
	if !ok {
		return true
	}
	if start := c.StartDate.String(); start != "" && day < start {
		return false
	}
	if end := c.EndDate.String(); end != "" && day > end {
		return false
	}
	switch date.Weekday() {
	case time.Monday:
		return c.Monday.Value == 1
	case time.Tuesday:
		return c.Tuesday.Value == 1
	case time.Wednesday:
		return c.Wednesday.Value == 1
	case time.Thursday:
		return c.Thursday.Value == 1
	case time.Friday:
		return c.Friday.Value == 1
	case time.Saturday:
		return c.Saturday.Value == 1
	default:
		return c.Sunday.Value == 1
	}
}
