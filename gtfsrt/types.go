package gtfsrt

// FeedHeader carries feed-level metadata.
type FeedHeader struct {
	Version   string
	Timestamp int64
}

// FeedMessage is one decoded realtime poll.
type FeedMessage struct {
	Header   FeedHeader
	Entities []Entity
}

// Entity is one feed record. At most one of Vehicle, TripUpdate and Alert
// is set; nil means the feed did not carry that message.
type Entity struct {
	ID         string
	Vehicle    *VehiclePosition
	TripUpdate *TripUpdate
	Alert      *Alert
}

// TripDescriptor references a scheduled trip.
type TripDescriptor struct {
	TripID      string
	RouteID     string
	DirectionID *uint32
	StartTime   string
	StartDate   string
}

// VehicleDescriptor identifies the physical train set.
type VehicleDescriptor struct {
	ID           string
	Label        string
	LicensePlate string
}

// VehiclePosition is a reported train location. Status holds the mapped
// current_status text, or the raw numeric string for codes outside the
// known set (the feed is decoded permissively for forward compatibility).
type VehiclePosition struct {
	Trip                *TripDescriptor
	Vehicle             *VehicleDescriptor
	Latitude            float64
	Longitude           float64
	HasPosition         bool
	Bearing             *float64
	Speed               *float64
	CurrentStopSequence *uint32
	StopID              string
	Status              string
	Timestamp           int64
}

// StopTimeEvent is an arrival or departure estimate. All fields are
// optional in the feed; nil is "not provided", which is not the same as 0.
type StopTimeEvent struct {
	Delay       *int32
	Time        *int64
	Uncertainty *int32
}

// StopTimeUpdate is one per-stop revision inside a trip update. The
// platform fields only appear in the relay's JSON form; the raw protobuf
// feed does not carry them.
type StopTimeUpdate struct {
	StopSequence      *uint32
	StopID            string
	Arrival           *StopTimeEvent
	Departure         *StopTimeEvent
	ScheduledPlatform string
	ActualPlatform    string
	PlatformChanged   bool
}

// TripUpdate revises the schedule of one trip.
type TripUpdate struct {
	Trip            *TripDescriptor
	Vehicle         *VehicleDescriptor
	Timestamp       int64
	StopTimeUpdates []StopTimeUpdate
}

// ActivePeriod is one validity window of an alert.
type ActivePeriod struct {
	Start *int64
	End   *int64
}

// InformedEntity names one thing an alert applies to.
type InformedEntity struct {
	AgencyID  string
	RouteID   string
	RouteType *int32
	StopID    string
	Trip      *TripDescriptor
}

// Alert is a service disruption notice. Header, Description and URL hold
// the first available translation; there is no locale negotiation, which
// is an accepted simplification of this feed.
type Alert struct {
	ActivePeriods    []ActivePeriod
	InformedEntities []InformedEntity
	Cause            string
	Effect           string
	URL              string
	Header           string
	Description      string
}
