package gtfs

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The planning endpoints are not strict about scalar types: numeric columns
// arrive as numbers or strings depending on how the relay ingested the CSV.
// FlexString and FlexFloat absorb both forms so row decoding happens exactly
// once, at this boundary.

// FlexString decodes from a JSON string or number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexFloat decodes from a JSON number or numeric string. Unparseable
// values become NaN-free zeros with Valid=false rather than errors.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = FlexFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = FlexFloat{}
		return nil
	}
	*f = FlexFloat{Value: v, Valid: true}
	return nil
}

// StopRow mirrors one record of the stops planning table.
type StopRow struct {
	StopID       FlexString `json:"stop_id"`
	StopName     string     `json:"stop_name"`
	StopLat      FlexFloat  `json:"stop_lat"`
	StopLon      FlexFloat  `json:"stop_lon"`
	PlatformCode FlexString `json:"platform_code"`
}

// RouteRow mirrors one record of the routes planning table.
type RouteRow struct {
	RouteID        FlexString `json:"route_id"`
	RouteShortName string     `json:"route_short_name"`
	RouteLongName  string     `json:"route_long_name"`
	RouteType      FlexFloat  `json:"route_type"`
}

// TripRow mirrors one record of the trips planning table.
type TripRow struct {
	RouteID      FlexString `json:"route_id"`
	ServiceID    FlexString `json:"service_id"`
	TripID       FlexString `json:"trip_id"`
	TripHeadsign string     `json:"trip_headsign"`
}

// StopTimeRow mirrors one record of the stop_times planning table. Times
// keep the GTFS HH:MM:SS clock form here and are parsed by the indexer.
type StopTimeRow struct {
	TripID        FlexString `json:"trip_id"`
	StopID        FlexString `json:"stop_id"`
	StopSequence  FlexFloat  `json:"stop_sequence"`
	ArrivalTime   FlexString `json:"arrival_time"`
	DepartureTime FlexString `json:"departure_time"`
}

// CalendarRow mirrors one record of the calendar planning table.
type CalendarRow struct {
	ServiceID FlexString `json:"service_id"`
	Monday    FlexFloat  `json:"monday"`
	Tuesday   FlexFloat  `json:"tuesday"`
	Wednesday FlexFloat  `json:"wednesday"`
	Thursday  FlexFloat  `json:"thursday"`
	Friday    FlexFloat  `json:"friday"`
	Saturday  FlexFloat  `json:"saturday"`
	Sunday    FlexFloat  `json:"sunday"`
	StartDate FlexString `json:"start_date"`
	EndDate   FlexString `json:"end_date"`
}

// CalendarDateRow mirrors one record of the calendar_dates planning table.
// ExceptionType 1 adds service on Date, 2 removes it.
type CalendarDateRow struct {
	ServiceID     FlexString `json:"service_id"`
	Date          FlexString `json:"date"`
	ExceptionType FlexFloat  `json:"exception_type"`
}

// AgencyRow mirrors one record of the agency planning table.
type AgencyRow struct {
	AgencyID       FlexString `json:"agency_id"`
	AgencyName     string     `json:"agency_name"`
	AgencyTimezone string     `json:"agency_timezone"`
}

// Tables bundles every planning table a schedule refresh can deliver.
// Any slice may be nil when the corresponding fetch failed; the indexer
// degrades instead of aborting.
type Tables struct {
	Agency        []AgencyRow
	Stops         []StopRow
	Routes        []RouteRow
	Trips         []TripRow
	StopTimes     []StopTimeRow
	Calendar      []CalendarRow
	CalendarDates []CalendarDateRow
}
