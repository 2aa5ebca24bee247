package gtfsrt

import (
	"bytes"
	"fmt"
	"strconv"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// DecodeError reports a malformed realtime feed: truncated protobuf, bad
// wire data, or a JSON body that does not match the feed envelope.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode feed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode feed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// statusNames is the fixed current_status lookup table. Codes beyond it
// are preserved as their raw numeric string, not rejected.
var statusNames = []string{"INCOMING_AT", "STOPPED_AT", "IN_TRANSIT_TO"}

func statusText(v int32) string {
	if v >= 0 && int(v) < len(statusNames) {
		return statusNames[v]
	}
	return strconv.Itoa(int(v))
}

// Decode parses a realtime feed body. The relay serves either a raw
// GTFS-Realtime protobuf FeedMessage or its JSON rendering from the same
// endpoint, so the body is sniffed: a leading '{' means JSON, anything
// else is treated as protobuf.
func Decode(raw []byte) (*FeedMessage, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, &DecodeError{Reason: "empty feed body"}
	}
	if trimmed[0] == '{' {
		return decodeJSON(trimmed)
	}
	return decodeProto(raw)
}

func decodeProto(raw []byte) (*FeedMessage, error) {
	var pb gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(raw, &pb); err != nil {
		return nil, &DecodeError{Reason: "malformed protobuf message", Err: err}
	}

	fm := &FeedMessage{}
	if pb.Header != nil {
		if pb.Header.GtfsRealtimeVersion != nil {
			fm.Header.Version = *pb.Header.GtfsRealtimeVersion
		}
		if pb.Header.Timestamp != nil {
			fm.Header.Timestamp = int64(*pb.Header.Timestamp)
		}
	}

	for _, e := range pb.Entity {
		if e == nil {
			continue
		}
		ent := Entity{}
		if e.Id != nil {
			ent.ID = *e.Id
		}
		if e.Vehicle != nil {
			ent.Vehicle = protoVehicle(e.Vehicle)
		}
		if e.TripUpdate != nil {
			ent.TripUpdate = protoTripUpdate(e.TripUpdate)
		}
		if e.Alert != nil {
			ent.Alert = protoAlert(e.Alert)
		}
		fm.Entities = append(fm.Entities, ent)
	}
	return fm, nil
}

func protoTrip(t *gtfsrtpb.TripDescriptor) *TripDescriptor {
	if t == nil {
		return nil
	}
	out := &TripDescriptor{}
	if t.TripId != nil {
		out.TripID = *t.TripId
	}
	if t.RouteId != nil {
		out.RouteID = *t.RouteId
	}
	if t.DirectionId != nil {
		v := *t.DirectionId
		out.DirectionID = &v
	}
	if t.StartTime != nil {
		out.StartTime = *t.StartTime
	}
	if t.StartDate != nil {
		out.StartDate = *t.StartDate
	}
	return out
}

func protoVehicleDesc(v *gtfsrtpb.VehicleDescriptor) *VehicleDescriptor {
	if v == nil {
		return nil
	}
	out := &VehicleDescriptor{}
	if v.Id != nil {
		out.ID = *v.Id
	}
	if v.Label != nil {
		out.Label = *v.Label
	}
	if v.LicensePlate != nil {
		out.LicensePlate = *v.LicensePlate
	}
	return out
}

func protoVehicle(v *gtfsrtpb.VehiclePosition) *VehiclePosition {
	out := &VehiclePosition{
		Trip:    protoTrip(v.Trip),
		Vehicle: protoVehicleDesc(v.Vehicle),
	}
	if v.Position != nil {
		out.HasPosition = true
		if v.Position.Latitude != nil {
			out.Latitude = float64(*v.Position.Latitude)
		}
		if v.Position.Longitude != nil {
			out.Longitude = float64(*v.Position.Longitude)
		}
		if v.Position.Bearing != nil {
			b := float64(*v.Position.Bearing)
			out.Bearing = &b
		}
		if v.Position.Speed != nil {
			s := float64(*v.Position.Speed)
			out.Speed = &s
		}
	}
	if v.CurrentStopSequence != nil {
		seq := *v.CurrentStopSequence
		out.CurrentStopSequence = &seq
	}
	if v.StopId != nil {
		out.StopID = *v.StopId
	}
	if v.CurrentStatus != nil {
		out.Status = statusText(int32(*v.CurrentStatus))
	}
	if v.Timestamp != nil {
		out.Timestamp = int64(*v.Timestamp)
	}
	return out
}

func protoStopTimeEvent(ev *gtfsrtpb.TripUpdate_StopTimeEvent) *StopTimeEvent {
	if ev == nil {
		return nil
	}
	out := &StopTimeEvent{}
	if ev.Delay != nil {
		d := *ev.Delay
		out.Delay = &d
	}
	if ev.Time != nil {
		t := *ev.Time
		out.Time = &t
	}
	if ev.Uncertainty != nil {
		u := *ev.Uncertainty
		out.Uncertainty = &u
	}
	return out
}

func protoTripUpdate(tu *gtfsrtpb.TripUpdate) *TripUpdate {
	out := &TripUpdate{
		Trip:    protoTrip(tu.Trip),
		Vehicle: protoVehicleDesc(tu.Vehicle),
	}
	if tu.Timestamp != nil {
		out.Timestamp = int64(*tu.Timestamp)
	}
	for _, stu := range tu.StopTimeUpdate {
		if stu == nil {
			continue
		}
		rec := StopTimeUpdate{
			Arrival:   protoStopTimeEvent(stu.Arrival),
			Departure: protoStopTimeEvent(stu.Departure),
		}
		if stu.StopSequence != nil {
			seq := *stu.StopSequence
			rec.StopSequence = &seq
		}
		if stu.StopId != nil {
			rec.StopID = *stu.StopId
		}
		out.StopTimeUpdates = append(out.StopTimeUpdates, rec)
	}
	return out
}

func protoAlert(a *gtfsrtpb.Alert) *Alert {
	out := &Alert{}
	for _, p := range a.ActivePeriod {
		if p == nil {
			continue
		}
		ap := ActivePeriod{}
		if p.Start != nil {
			s := int64(*p.Start)
			ap.Start = &s
		}
		if p.End != nil {
			e := int64(*p.End)
			ap.End = &e
		}
		out.ActivePeriods = append(out.ActivePeriods, ap)
	}
	for _, ie := range a.InformedEntity {
		if ie == nil {
			continue
		}
		rec := InformedEntity{Trip: protoTrip(ie.Trip)}
		if ie.AgencyId != nil {
			rec.AgencyID = *ie.AgencyId
		}
		if ie.RouteId != nil {
			rec.RouteID = *ie.RouteId
		}
		if ie.RouteType != nil {
			rt := *ie.RouteType
			rec.RouteType = &rt
		}
		if ie.StopId != nil {
			rec.StopID = *ie.StopId
		}
		out.InformedEntities = append(out.InformedEntities, rec)
	}
	if a.Cause != nil {
		out.Cause = a.Cause.String()
	}
	if a.Effect != nil {
		out.Effect = a.Effect.String()
	}
	out.URL = firstTranslation(a.Url)
	out.Header = firstTranslation(a.HeaderText)
	out.Description = firstTranslation(a.DescriptionText)
	return out
}

// firstTranslation picks the first available localized text. No locale
// negotiation happens here; that matches the upstream relay.
func firstTranslation(ts *gtfsrtpb.TranslatedString) string {
	if ts == nil || len(ts.Translation) == 0 {
		return ""
	}
	if ts.Translation[0] == nil || ts.Translation[0].Text == nil {
		return ""
	}
	return *ts.Translation[0].Text
}
