package gtfsrt

import (
	"testing"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func strp(s string) *string   { return &s }
func u64p(v uint64) *uint64   { return &v }
func u32p(v uint32) *uint32   { return &v }
func i32p(v int32) *int32     { return &v }
func i64p(v int64) *int64     { return &v }
func f32p(v float32) *float32 { return &v }

func sampleProtoFeed(t *testing.T) []byte {
	t.Helper()
	status := gtfsrtpb.VehiclePosition_STOPPED_AT
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: strp("2.0"),
			Timestamp:           u64p(1724930000),
		},
		Entity: []*gtfsrtpb.FeedEntity{
			{
				Id: strp("veh-1"),
				Vehicle: &gtfsrtpb.VehiclePosition{
					Trip: &gtfsrtpb.TripDescriptor{
						TripId:  strp("IC1234-trip"),
						RouteId: strp("IC1234"),
					},
					Vehicle:  &gtfsrtpb.VehicleDescriptor{Id: strp("loco-18"), Label: strp("IC 1234")},
					Position: &gtfsrtpb.Position{Latitude: f32p(50.8366), Longitude: f32p(4.3353), Speed: f32p(33.3)},
					CurrentStopSequence: u32p(4),
					StopId:              strp("8814001"),
					CurrentStatus:       &status,
					Timestamp:           u64p(1724929990),
				},
			},
			{
				Id: strp("upd-1"),
				TripUpdate: &gtfsrtpb.TripUpdate{
					Trip: &gtfsrtpb.TripDescriptor{TripId: strp("IC1234-trip")},
					StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{
						{
							StopId:    strp("8821006"),
							Arrival:   &gtfsrtpb.TripUpdate_StopTimeEvent{Delay: i32p(120)},
							Departure: &gtfsrtpb.TripUpdate_StopTimeEvent{Delay: i32p(180), Time: i64p(1724930400)},
						},
					},
				},
			},
		},
	}
	raw, err := proto.Marshal(fm)
	require.NoError(t, err)
	return raw
}

func TestDecodeProtobufFeed(t *testing.T) {
	fm, err := Decode(sampleProtoFeed(t))
	require.NoError(t, err)

	assert.Equal(t, "2.0", fm.Header.Version)
	assert.EqualValues(t, 1724930000, fm.Header.Timestamp)
	require.Len(t, fm.Entities, 2)

	veh := fm.Entities[0].Vehicle
	require.NotNil(t, veh)
	assert.True(t, veh.HasPosition)
	assert.InDelta(t, 50.8366, veh.Latitude, 1e-4)
	assert.Equal(t, "STOPPED_AT", veh.Status)
	assert.Equal(t, "8814001", veh.StopID)
	require.NotNil(t, veh.Speed)
	assert.InDelta(t, 33.3, *veh.Speed, 1e-4)
	assert.Nil(t, veh.Bearing)

	tu := fm.Entities[1].TripUpdate
	require.NotNil(t, tu)
	require.Len(t, tu.StopTimeUpdates, 1)
	stu := tu.StopTimeUpdates[0]
	require.NotNil(t, stu.Departure)
	require.NotNil(t, stu.Departure.Delay)
	assert.EqualValues(t, 180, *stu.Departure.Delay)
	require.NotNil(t, stu.Departure.Time)
	assert.EqualValues(t, 1724930400, *stu.Departure.Time)
}

func TestDecodeIsIdempotent(t *testing.T) {
	raw := sampleProtoFeed(t)
	first, err := Decode(raw)
	require.NoError(t, err)
	second, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeMalformedProtobuf(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff, 0x01})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestDecodeEmptyBody(t *testing.T) {
	_, err := Decode(nil)
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	_, err = Decode([]byte("   \n"))
	require.ErrorAs(t, err, &de)
}

func TestDecodeJSONFeed(t *testing.T) {
	raw := []byte(`{
		"header": {"gtfsRealtimeVersion": "2.0", "timestamp": "1724930000"},
		"entity": [
			{
				"id": "veh-1",
				"vehicle": {
					"trip": {"tripId": "IC1234-trip", "routeId": "IC1234"},
					"position": {"latitude": 50.8366, "longitude": 4.3353, "bearing": 270.0},
					"currentStatus": "IN_TRANSIT_TO",
					"stopId": "8821006",
					"timestamp": 1724929990
				}
			},
			{
				"id": "upd-1",
				"tripUpdate": {
					"trip": {"tripId": "IC1234-trip"},
					"stopTimeUpdate": [
						{
							"stopId": "8821006",
							"departure": {"delay": 0},
							"scheduled_platform": "3",
							"actual_platform": "5",
							"platform_changed": true
						}
					]
				}
			}
		]
	}`)

	fm, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "2.0", fm.Header.Version)
	assert.EqualValues(t, 1724930000, fm.Header.Timestamp)
	require.Len(t, fm.Entities, 2)

	veh := fm.Entities[0].Vehicle
	require.NotNil(t, veh)
	assert.True(t, veh.HasPosition)
	assert.Equal(t, "IN_TRANSIT_TO", veh.Status)
	require.NotNil(t, veh.Bearing)
	assert.InDelta(t, 270.0, *veh.Bearing, 1e-9)

	stu := fm.Entities[1].TripUpdate.StopTimeUpdates[0]
	assert.Equal(t, "3", stu.ScheduledPlatform)
	assert.Equal(t, "5", stu.ActualPlatform)
	assert.True(t, stu.PlatformChanged)
	// A delay of zero is present, not absent.
	require.NotNil(t, stu.Departure)
	require.NotNil(t, stu.Departure.Delay)
	assert.EqualValues(t, 0, *stu.Departure.Delay)
}

func TestDecodeJSONNumericStatus(t *testing.T) {
	fm, err := Decode([]byte(`{"entity":[{"id":"a","vehicle":{"currentStatus":1}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "STOPPED_AT", fm.Entities[0].Vehicle.Status)
}

func TestOutOfRangeStatusKeptAsRawNumber(t *testing.T) {
	fm, err := Decode([]byte(`{"entity":[{"id":"a","vehicle":{"currentStatus":7}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "7", fm.Entities[0].Vehicle.Status)
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"entity": [`))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestAlertFirstTranslationWins(t *testing.T) {
	raw := []byte(`{"entity":[{"id":"alert-1","alert":{
		"cause": "MAINTENANCE",
		"effect": "DETOUR",
		"headerText": {"translation": [
			{"text": "Werken tussen Gent en Brugge", "language": "nl"},
			{"text": "Travaux entre Gand et Bruges", "language": "fr"}
		]},
		"informedEntity": [{"routeId": "IC1234"}],
		"activePeriod": [{"start": "1724900000", "end": "1724990000"}]
	}}]}`)

	fm, err := Decode(raw)
	require.NoError(t, err)
	a := fm.Entities[0].Alert
	require.NotNil(t, a)
	assert.Equal(t, "Werken tussen Gent en Brugge", a.Header)
	assert.Equal(t, "MAINTENANCE", a.Cause)
	require.Len(t, a.ActivePeriods, 1)
	require.NotNil(t, a.ActivePeriods[0].Start)
	assert.EqualValues(t, 1724900000, *a.ActivePeriods[0].Start)
	require.Len(t, a.InformedEntities, 1)
	assert.Equal(t, "IC1234", a.InformedEntities[0].RouteID)
}
