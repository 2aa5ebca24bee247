// Package gtfs models the static rail schedule (stops, routes, trips, stop
// times) and builds the route index consumed by the tracking layer.
//
// Input is the row form served by the NMBS planning endpoints; validation
// happens once here, at the boundary. A table with its required fields
// missing is skipped, not fatal. When no usable schedule data is reachable
// at all, BuildIndex falls back to a small synthetic Belgian network so
// downstream consumers always have something to render; synthetic routes
// are tagged as such and never mixed with real data.
package gtfs
