package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/rail-live/gtfs"
)

func i64(v int64) *int64 { return &v }

var twoStops = map[string]gtfs.Stop{
	"A": {ID: "A", Lat: 50.0, Lon: 4.0},
	"B": {ID: "B", Lat: 51.0, Lon: 5.0},
}

func twoStopTrip() *gtfs.Trip {
	return &gtfs.Trip{
		ID: "t",
		StopTimes: []gtfs.StopTime{
			{StopID: "A", Sequence: 1, Arrival: i64(0), Departure: i64(0)},
			{StopID: "B", Sequence: 2, Arrival: i64(600), Departure: i64(600)},
		},
	}
}

func TestMidpointBetweenTwoStops(t *testing.T) {
	lat, lon, ok := Interpolate(twoStopTrip(), twoStops, 300)
	require.True(t, ok)
	assert.InDelta(t, 50.5, lat, 1e-9)
	assert.InDelta(t, 4.5, lon, 1e-9)
}

func TestPastTerminusReturnsLastStopExactly(t *testing.T) {
	lat, lon, ok := Interpolate(twoStopTrip(), twoStops, 900)
	require.True(t, ok)
	assert.Equal(t, 51.0, lat)
	assert.Equal(t, 5.0, lon)
}

func TestBoundaryInstantsAreExact(t *testing.T) {
	// Departure instant of A: exactly at A.
	lat, lon, ok := Interpolate(twoStopTrip(), twoStops, 0)
	require.True(t, ok)
	assert.Equal(t, 50.0, lat)
	assert.Equal(t, 4.0, lon)

	// Arrival instant of B: exactly at B.
	lat, lon, ok = Interpolate(twoStopTrip(), twoStops, 600)
	require.True(t, ok)
	assert.Equal(t, 51.0, lat)
	assert.Equal(t, 5.0, lon)
}

func TestBeforeFirstDepartureSitsAtFirstStop(t *testing.T) {
	trip := &gtfs.Trip{
		ID: "t",
		StopTimes: []gtfs.StopTime{
			{StopID: "A", Sequence: 1, Arrival: i64(100), Departure: i64(100)},
			{StopID: "B", Sequence: 2, Arrival: i64(700), Departure: i64(700)},
		},
	}
	lat, lon, ok := Interpolate(trip, twoStops, 50)
	require.True(t, ok)
	assert.Equal(t, 50.0, lat)
	assert.Equal(t, 4.0, lon)
}

func TestIncompleteTimingFallsBackToCurrentStop(t *testing.T) {
	trip := &gtfs.Trip{
		ID: "t",
		StopTimes: []gtfs.StopTime{
			{StopID: "A", Sequence: 1, Departure: i64(0)},
			{StopID: "B", Sequence: 2}, // no arrival or departure known
		},
	}
	lat, lon, ok := Interpolate(trip, twoStops, 300)
	require.True(t, ok)
	assert.Equal(t, 50.0, lat, "no guessing without a bounding arrival")
	assert.Equal(t, 4.0, lon)
}

func TestDwellAtIntermediateStop(t *testing.T) {
	stops := map[string]gtfs.Stop{
		"A": {ID: "A", Lat: 50.0, Lon: 4.0},
		"B": {ID: "B", Lat: 51.0, Lon: 5.0},
		"C": {ID: "C", Lat: 52.0, Lon: 6.0},
	}
	trip := &gtfs.Trip{
		ID: "t",
		StopTimes: []gtfs.StopTime{
			{StopID: "A", Sequence: 1, Arrival: i64(0), Departure: i64(0)},
			{StopID: "B", Sequence: 2, Arrival: i64(600), Departure: i64(660)},
			{StopID: "C", Sequence: 3, Arrival: i64(1200), Departure: i64(1200)},
		},
	}
	// Between B's arrival and departure the train is standing at B.
	lat, lon, ok := Interpolate(trip, stops, 630)
	require.True(t, ok)
	assert.Equal(t, 51.0, lat)
	assert.Equal(t, 5.0, lon)
}

func TestUnknownStopsAreSkipped(t *testing.T) {
	trip := &gtfs.Trip{
		ID: "t",
		StopTimes: []gtfs.StopTime{
			{StopID: "missing", Sequence: 1, Departure: i64(0)},
			{StopID: "A", Sequence: 2, Arrival: i64(300), Departure: i64(300)},
			{StopID: "B", Sequence: 3, Arrival: i64(900)},
		},
	}
	lat, lon, ok := Interpolate(trip, twoStops, 600)
	require.True(t, ok)
	assert.InDelta(t, 50.5, lat, 1e-9)
	assert.InDelta(t, 4.5, lon, 1e-9)
}

func TestNoResolvableStops(t *testing.T) {
	trip := &gtfs.Trip{
		ID:        "t",
		StopTimes: []gtfs.StopTime{{StopID: "x", Sequence: 1}, {StopID: "y", Sequence: 2}},
	}
	_, _, ok := Interpolate(trip, twoStops, 0)
	assert.False(t, ok)

	_, _, ok = Interpolate(nil, twoStops, 0)
	assert.False(t, ok)
}
