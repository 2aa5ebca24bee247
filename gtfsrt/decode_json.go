package gtfsrt

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The relay renders FeedMessage to JSON in protojson style: camelCase
// field names, uint64 timestamps as quoted strings, enums as names. On
// top of that it splices NMBS platform fields into each stop time update
// in snake_case. The wire structs below accept both conventions.

// wireInt64 accepts a JSON number or a quoted decimal string.
type wireInt64 int64

func (w *wireInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*w = wireInt64(v)
	return nil
}

type wireFeed struct {
	Header   wireHeader   `json:"header"`
	Entities []wireEntity `json:"entity"`
}

type wireHeader struct {
	Version   string    `json:"gtfsRealtimeVersion"`
	Timestamp wireInt64 `json:"timestamp"`
}

type wireEntity struct {
	ID         string          `json:"id"`
	Vehicle    *wireVehiclePos `json:"vehicle"`
	TripUpdate *wireTripUpdate `json:"tripUpdate"`
	Alert      *wireAlert      `json:"alert"`
}

type wireTrip struct {
	TripID      string  `json:"tripId"`
	RouteID     string  `json:"routeId"`
	DirectionID *uint32 `json:"directionId"`
	StartTime   string  `json:"startTime"`
	StartDate   string  `json:"startDate"`
}

type wireVehicleDesc struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	LicensePlate string `json:"licensePlate"`
}

type wirePosition struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Bearing   *float64 `json:"bearing"`
	Speed     *float64 `json:"speed"`
}

type wireVehiclePos struct {
	Trip                *wireTrip        `json:"trip"`
	Vehicle             *wireVehicleDesc `json:"vehicle"`
	Position            *wirePosition    `json:"position"`
	CurrentStopSequence *uint32          `json:"currentStopSequence"`
	StopID              string           `json:"stopId"`
	CurrentStatus       json.RawMessage  `json:"currentStatus"`
	Timestamp           wireInt64        `json:"timestamp"`
}

type wireStopTimeEvent struct {
	Delay       *int32     `json:"delay"`
	Time        *wireInt64 `json:"time"`
	Uncertainty *int32     `json:"uncertainty"`
}

type wireStopTimeUpdate struct {
	StopSequence      *uint32            `json:"stopSequence"`
	StopID            string             `json:"stopId"`
	Arrival           *wireStopTimeEvent `json:"arrival"`
	Departure         *wireStopTimeEvent `json:"departure"`
	ScheduledPlatform string             `json:"scheduled_platform"`
	ActualPlatform    string             `json:"actual_platform"`
	PlatformChanged   bool               `json:"platform_changed"`
}

type wireTripUpdate struct {
	Trip            *wireTrip            `json:"trip"`
	Vehicle         *wireVehicleDesc     `json:"vehicle"`
	StopTimeUpdates []wireStopTimeUpdate `json:"stopTimeUpdate"`
	Timestamp       wireInt64            `json:"timestamp"`
}

type wireActivePeriod struct {
	Start *wireInt64 `json:"start"`
	End   *wireInt64 `json:"end"`
}

type wireInformedEntity struct {
	AgencyID  string    `json:"agencyId"`
	RouteID   string    `json:"routeId"`
	RouteType *int32    `json:"routeType"`
	StopID    string    `json:"stopId"`
	Trip      *wireTrip `json:"trip"`
}

type wireTranslation struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type wireTranslated struct {
	Translation []wireTranslation `json:"translation"`
}

type wireAlert struct {
	ActivePeriods    []wireActivePeriod   `json:"activePeriod"`
	InformedEntities []wireInformedEntity `json:"informedEntity"`
	Cause            string               `json:"cause"`
	Effect           string               `json:"effect"`
	URL              *wireTranslated      `json:"url"`
	Header           *wireTranslated      `json:"headerText"`
	Description      *wireTranslated      `json:"descriptionText"`
}

func decodeJSON(raw []byte) (*FeedMessage, error) {
	var wf wireFeed
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON feed", Err: err}
	}

	fm := &FeedMessage{
		Header: FeedHeader{
			Version:   wf.Header.Version,
			Timestamp: int64(wf.Header.Timestamp),
		},
	}
	for _, we := range wf.Entities {
		ent := Entity{ID: we.ID}
		if we.Vehicle != nil {
			ent.Vehicle = jsonVehicle(we.Vehicle)
		}
		if we.TripUpdate != nil {
			ent.TripUpdate = jsonTripUpdate(we.TripUpdate)
		}
		if we.Alert != nil {
			ent.Alert = jsonAlert(we.Alert)
		}
		fm.Entities = append(fm.Entities, ent)
	}
	return fm, nil
}

func jsonTrip(t *wireTrip) *TripDescriptor {
	if t == nil {
		return nil
	}
	return &TripDescriptor{
		TripID:      t.TripID,
		RouteID:     t.RouteID,
		DirectionID: t.DirectionID,
		StartTime:   t.StartTime,
		StartDate:   t.StartDate,
	}
}

func jsonVehicleDesc(v *wireVehicleDesc) *VehicleDescriptor {
	if v == nil {
		return nil
	}
	return &VehicleDescriptor{ID: v.ID, Label: v.Label, LicensePlate: v.LicensePlate}
}

// jsonStatus normalizes currentStatus, which arrives either as an enum
// name string or as a numeric code.
func jsonStatus(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	s := strings.Trim(string(raw), `"`)
	if s == "null" {
		return ""
	}
	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return statusText(int32(v))
	}
	return s
}

func jsonVehicle(v *wireVehiclePos) *VehiclePosition {
	out := &VehiclePosition{
		Trip:                jsonTrip(v.Trip),
		Vehicle:             jsonVehicleDesc(v.Vehicle),
		CurrentStopSequence: v.CurrentStopSequence,
		StopID:              v.StopID,
		Status:              jsonStatus(v.CurrentStatus),
		Timestamp:           int64(v.Timestamp),
	}
	if v.Position != nil {
		out.HasPosition = true
		out.Latitude = v.Position.Latitude
		out.Longitude = v.Position.Longitude
		out.Bearing = v.Position.Bearing
		out.Speed = v.Position.Speed
	}
	return out
}

func jsonStopTimeEvent(ev *wireStopTimeEvent) *StopTimeEvent {
	if ev == nil {
		return nil
	}
	out := &StopTimeEvent{Delay: ev.Delay, Uncertainty: ev.Uncertainty}
	if ev.Time != nil {
		t := int64(*ev.Time)
		out.Time = &t
	}
	return out
}

func jsonTripUpdate(tu *wireTripUpdate) *TripUpdate {
	out := &TripUpdate{
		Trip:      jsonTrip(tu.Trip),
		Vehicle:   jsonVehicleDesc(tu.Vehicle),
		Timestamp: int64(tu.Timestamp),
	}
	for _, stu := range tu.StopTimeUpdates {
		out.StopTimeUpdates = append(out.StopTimeUpdates, StopTimeUpdate{
			StopSequence:      stu.StopSequence,
			StopID:            stu.StopID,
			Arrival:           jsonStopTimeEvent(stu.Arrival),
			Departure:         jsonStopTimeEvent(stu.Departure),
			ScheduledPlatform: stu.ScheduledPlatform,
			ActualPlatform:    stu.ActualPlatform,
			PlatformChanged:   stu.PlatformChanged,
		})
	}
	return out
}

func jsonAlert(a *wireAlert) *Alert {
	out := &Alert{
		Cause:       a.Cause,
		Effect:      a.Effect,
		URL:         firstWireTranslation(a.URL),
		Header:      firstWireTranslation(a.Header),
		Description: firstWireTranslation(a.Description),
	}
	for _, p := range a.ActivePeriods {
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
	for _, ie := range a.InformedEntities {
		out.InformedEntities = append(out.InformedEntities, InformedEntity{
			AgencyID:  ie.AgencyID,
			RouteID:   ie.RouteID,
			RouteType: ie.RouteType,
			StopID:    ie.StopID,
			Trip:      jsonTrip(ie.Trip),
		})
	}
	return out
}

func firstWireTranslation(ts *wireTranslated) string {
	if ts == nil || len(ts.Translation) == 0 {
		return ""
	}
	return ts.Translation[0].Text
}
