package gtfs

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses a GTFS HH:MM:SS value into seconds since local midnight.
// Hours past 24 are legal (service days spill over midnight).
func ParseClock(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("empty clock value")
	}
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad clock value %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("bad hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", v)
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil || s < 0 || s > 59 {
		return 0, fmt.Errorf("bad second in %q", v)
	}
	return int64(h)*3600 + int64(m)*60 + int64(s), nil
}

func parseOptionalClock(v FlexString) *int64 {
	secs, err := ParseClock(v.String())
	if err != nil {
		return nil
	}
	return &secs
}
