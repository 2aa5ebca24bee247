// Package gtfsrt decodes the NMBS realtime feed into domain entities and
// classifies them by platform change.
//
// The feed arrives in one of two forms from the same relay endpoint: a raw
// GTFS-Realtime protobuf FeedMessage, or the relay's pre-decoded JSON
// rendering of it. Decode handles both. Each entity carries at most one of
// a vehicle position, a trip update, or an alert; field presence is tracked
// explicitly (a delay of 0 seconds is a value, not an absent field).
package gtfsrt
