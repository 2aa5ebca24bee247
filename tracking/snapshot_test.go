package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/rail-live/gtfs"
	"github.com/theoremus-urban-solutions/rail-live/gtfsrt"
)

func i32(v int32) *int32 { return &v }

func testIndex() *gtfs.Index {
	tables := gtfs.Tables{
		Stops: []gtfs.StopRow{
			{StopID: "A", StopName: "Aalst", StopLat: gtfs.FlexFloat{Value: 50.0, Valid: true}, StopLon: gtfs.FlexFloat{Value: 4.0, Valid: true}},
			{StopID: "B", StopName: "Brussel-Noord", StopLat: gtfs.FlexFloat{Value: 51.0, Valid: true}, StopLon: gtfs.FlexFloat{Value: 5.0, Valid: true}},
		},
		Routes: []gtfs.RouteRow{{RouteID: "IC1", RouteShortName: "IC1", RouteType: gtfs.FlexFloat{Value: 2, Valid: true}}},
		Trips:  []gtfs.TripRow{{TripID: "IC1_a", RouteID: "IC1", TripHeadsign: "Brussel"}},
		StopTimes: []gtfs.StopTimeRow{
			{TripID: "IC1_a", StopID: "A", StopSequence: gtfs.FlexFloat{Value: 1, Valid: true}, ArrivalTime: "08:00:00", DepartureTime: "08:00:00"},
			{TripID: "IC1_a", StopID: "B", StopSequence: gtfs.FlexFloat{Value: 2, Valid: true}, ArrivalTime: "08:10:00", DepartureTime: "08:10:00"},
		},
	}
	return gtfs.BuildIndex(tables, gtfs.Options{})
}

func TestAssembleReportedPositionWins(t *testing.T) {
	idx := testIndex()
	entities := []gtfsrt.Entity{{
		ID: "veh-1",
		Vehicle: &gtfsrt.VehiclePosition{
			Trip:        &gtfsrt.TripDescriptor{TripID: "IC1_a"},
			HasPosition: true,
			Latitude:    50.42,
			Longitude:   4.41,
			Status:      "IN_TRANSIT_TO",
		},
	}}

	snap := Assemble(idx, entities, time.Date(2026, 8, 30, 8, 5, 0, 0, time.UTC))
	require.Len(t, snap.ActiveTrains, 1)
	tv := snap.ActiveTrains[0]
	assert.Equal(t, SourceReported, tv.Source)
	assert.Equal(t, 50.42, tv.Lat)
	assert.Equal(t, "IN_TRANSIT_TO", tv.Status)
	assert.Equal(t, "Brussel", tv.Headsign)
	assert.Equal(t, "IC1", tv.RouteID)
	assert.Empty(t, snap.Unmatched)
}

func TestAssembleInterpolatesWhenNoReportedPosition(t *testing.T) {
	idx := testIndex()
	entities := []gtfsrt.Entity{{
		ID: "upd-1",
		TripUpdate: &gtfsrt.TripUpdate{
			Trip: &gtfsrt.TripDescriptor{TripID: "IC1_a"},
		},
	}}

	// 08:05 is halfway between the two scheduled stops.
	snap := Assemble(idx, entities, time.Date(2026, 8, 30, 8, 5, 0, 0, time.UTC))
	require.Len(t, snap.ActiveTrains, 1)
	tv := snap.ActiveTrains[0]
	assert.Equal(t, SourceInterpolated, tv.Source)
	assert.True(t, tv.HasPosition)
	assert.InDelta(t, 50.5, tv.Lat, 1e-9)
	assert.InDelta(t, 4.5, tv.Lon, 1e-9)
}

func TestAssembleUnmatchedEntityIsReportedNotDropped(t *testing.T) {
	idx := testIndex()
	entities := []gtfsrt.Entity{{
		ID: "stray",
		Vehicle: &gtfsrt.VehiclePosition{
			Trip:        &gtfsrt.TripDescriptor{TripID: "not-in-schedule"},
			HasPosition: true,
			Latitude:    51.2,
			Longitude:   4.4,
		},
	}}

	snap := Assemble(idx, entities, time.Now())
	assert.Empty(t, snap.ActiveTrains)
	require.Len(t, snap.Unmatched, 1)
	uv := snap.Unmatched[0]
	assert.Equal(t, "stray", uv.EntityID)
	assert.Equal(t, "not-in-schedule", uv.TripID)
	assert.True(t, uv.HasPosition)
	assert.Equal(t, 51.2, uv.Lat)
}

func TestAssembleDelayFromLatestStopTimeUpdate(t *testing.T) {
	idx := testIndex()
	entities := []gtfsrt.Entity{{
		ID: "upd-1",
		TripUpdate: &gtfsrt.TripUpdate{
			Trip: &gtfsrt.TripDescriptor{TripID: "IC1_a"},
			StopTimeUpdates: []gtfsrt.StopTimeUpdate{
				{StopID: "A", Departure: &gtfsrt.StopTimeEvent{Delay: i32(60)}},
				{StopID: "B", Arrival: &gtfsrt.StopTimeEvent{Delay: i32(240)}},
			},
		},
	}}

	snap := Assemble(idx, entities, time.Now())
	require.Len(t, snap.ActiveTrains, 1)
	require.NotNil(t, snap.ActiveTrains[0].DelaySecs)
	assert.EqualValues(t, 240, *snap.ActiveTrains[0].DelaySecs)
}

func TestAssembleCarriesPlatformChangeFlag(t *testing.T) {
	idx := testIndex()
	entities := []gtfsrt.Entity{{
		ID: "upd-1",
		TripUpdate: &gtfsrt.TripUpdate{
			Trip: &gtfsrt.TripDescriptor{TripID: "IC1_a"},
			StopTimeUpdates: []gtfsrt.StopTimeUpdate{
				{StopID: "B", ScheduledPlatform: "3", ActualPlatform: "5"},
			},
		},
	}}

	snap := Assemble(idx, entities, time.Now())
	require.Len(t, snap.ActiveTrains, 1)
	assert.True(t, snap.ActiveTrains[0].PlatformChanged)
}

func TestAssembleCollectsAlerts(t *testing.T) {
	idx := testIndex()
	entities := []gtfsrt.Entity{{
		ID: "alert-1",
		Alert: &gtfsrt.Alert{
			Header: "Werken op de lijn",
			Effect: "DETOUR",
			InformedEntities: []gtfsrt.InformedEntity{
				{RouteID: "IC1"}, {StopID: "B"},
			},
		},
	}}

	snap := Assemble(idx, entities, time.Now())
	assert.Empty(t, snap.ActiveTrains)
	assert.Empty(t, snap.Unmatched)
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, "Werken op de lijn", snap.Alerts[0].Header)
	assert.Equal(t, []string{"IC1"}, snap.Alerts[0].RouteIDs)
	assert.Equal(t, []string{"B"}, snap.Alerts[0].StopIDs)
}

func TestAssembleListsRoutes(t *testing.T) {
	snap := Assemble(testIndex(), nil, time.Now())
	require.Len(t, snap.Routes, 1)
	assert.Equal(t, "IC1", snap.Routes[0].ID)
	assert.Equal(t, "rail", snap.Routes[0].Type)
	assert.Equal(t, []string{"IC1_a"}, snap.Routes[0].TripIDs)
	assert.False(t, snap.Routes[0].Synthetic)
}

func TestAssembleIsDeterministic(t *testing.T) {
	idx := testIndex()
	entities := []gtfsrt.Entity{
		{ID: "b", TripUpdate: &gtfsrt.TripUpdate{Trip: &gtfsrt.TripDescriptor{TripID: "IC1_a"}}},
		{ID: "a", TripUpdate: &gtfsrt.TripUpdate{Trip: &gtfsrt.TripDescriptor{TripID: "IC1_a"}}},
	}
	now := time.Date(2026, 8, 30, 8, 5, 0, 0, time.UTC)

	first := Assemble(idx, entities, now)
	second := Assemble(idx, entities, now)
	assert.Equal(t, first, second)
	require.Len(t, first.ActiveTrains, 2)
	assert.Equal(t, "a", first.ActiveTrains[0].EntityID, "sorted by entity id")
}

func TestAssembleNilIndex(t *testing.T) {
	entities := []gtfsrt.Entity{{
		ID:      "veh",
		Vehicle: &gtfsrt.VehiclePosition{HasPosition: true, Latitude: 50, Longitude: 4},
	}}
	snap := Assemble(nil, entities, time.Now())
	assert.Empty(t, snap.ActiveTrains)
	require.Len(t, snap.Unmatched, 1)
}
