// Package tracking turns decoded realtime entities plus the static
// schedule into a timestamped snapshot of where trains are.
//
// Position estimates interpolate linearly between bounding stops. That
// is a straight line in each coordinate axis, not a great circle and
// not the actual track geometry; at Belgian inter-station distances the
// error is small enough to live with.
package tracking
