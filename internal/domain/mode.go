package domain

import "fmt"

// Mode selects which data set the map shows.
type Mode string

const (
	ModeEarthquakes Mode = "earthquakes"
	ModeHotspots    Mode = "hotspots"
)

// ParseMode maps a URL path segment to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEarthquakes, ModeHotspots:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown map mode %q", s)
	}
}

// Other returns the mode the toggle switches to.
func (m Mode) Other() Mode {
	if m == ModeHotspots {
		return ModeEarthquakes
	}
	return ModeHotspots
}

func (m Mode) String() string { return string(m) }
