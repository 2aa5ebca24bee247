package gtfsrt

// HasPlatformChange reports whether any stop time update on the entity's
// trip update records a platform change. A change is either the explicit
// platform_changed flag from the relay, or a scheduled platform that
// differs from the actual one when both are present. This is a string
// comparison, so "1" and "1A" count as different platforms even when
// they are the same physical island; the upstream relay applies the same
// heuristic.
func HasPlatformChange(e Entity) bool {
	if e.TripUpdate == nil {
		return false
	}
	for _, stu := range e.TripUpdate.StopTimeUpdates {
		if stu.PlatformChanged {
			return true
		}
		if stu.ScheduledPlatform != "" && stu.ActualPlatform != "" &&
			stu.ScheduledPlatform != stu.ActualPlatform {
			return true
		}
	}
	return false
}

// Classify partitions feed entities by platform-change status. Every
// entity lands in exactly one of the two slices; entities without a trip
// update always land in withoutChanges.
func Classify(entities []Entity) (withChanges, withoutChanges []Entity) {
	for _, e := range entities {
		if HasPlatformChange(e) {
			withChanges = append(withChanges, e)
		} else {
			withoutChanges = append(withoutChanges, e)
		}
	}
	return withChanges, withoutChanges
}
