package gtfs

// RouteType is the GTFS route_type enum.
type RouteType int

const (
	RouteTypeTram RouteType = iota
	RouteTypeSubway
	RouteTypeRail
	RouteTypeBus
	RouteTypeFerry
	RouteTypeCable
	RouteTypeGondola
	RouteTypeFunicular
)

// ParseRouteType maps a raw route_type value onto the known enum. Values
// outside the known set default to rail; this is a national railway feed.
func ParseRouteType(v int) RouteType {
	if v < int(RouteTypeTram) || v > int(RouteTypeFunicular) {
		return RouteTypeRail
	}
	return RouteType(v)
}

func (t RouteType) String() string {
	switch t {
	case RouteTypeTram:
		return "tram"
	case RouteTypeSubway:
		return "subway"
	case RouteTypeRail:
		return "rail"
	case RouteTypeBus:
		return "bus"
	case RouteTypeFerry:
		return "ferry"
	case RouteTypeCable:
		return "cable"
	case RouteTypeGondola:
		return "gondola"
	case RouteTypeFunicular:
		return "funicular"
	}
	return "rail"
}

// Stop is one station, immutable once indexed.
type Stop struct {
	ID           string
	Name         string
	Lat          float64
	Lon          float64
	PlatformCode string
}

// StopTime is the scheduled call of one trip at one stop. Times are seconds
// since local midnight (GTFS clock, values past 24:00:00 allowed); nil means
// the feed did not provide the value, which is distinct from 00:00:00.
type StopTime struct {
	StopID    string
	Sequence  int
	Arrival   *int64
	Departure *int64
}

// Trip is an ordered run over stops. StopTimes are sorted by Sequence and
// strictly increasing; a trip below two valid stop-times cannot form a line
// segment and is discarded by the indexer.
type Trip struct {
	ID        string
	RouteID   string
	ServiceID string
	Headsign  string
	StopTimes []StopTime
}

// Route owns its trips. Synthetic marks fallback example data.
type Route struct {
	ID        string
	Type      RouteType
	ShortName string
	LongName  string
	Synthetic bool
	Trips     []*Trip
}
