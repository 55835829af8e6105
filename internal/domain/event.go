package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/geo/s2"
)

// timestampLayouts are tried in order when decoding a Timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Timestamp is an event time as emitted by the backend. Zone-less layouts are read as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized layout %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// EventSummary is one earthquake as returned by the list endpoint.
type EventSummary struct {
	ID        string    `json:"id"`
	Time      Timestamp `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Depth     float64   `json:"depth"` // km
	Magnitude float64   `json:"magnitude"`
	Place     string    `json:"place"`
}

// EventDetail is the per-event record fetched on demand. It has the same
// fields as EventSummary but may carry revised values.
type EventDetail EventSummary

// ClusterSummary is a precomputed hotspot: a spatial grouping of events with
// an aggregate count. Clusters have no detail tier.
type ClusterSummary struct {
	ID          int64   `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ClusterSize int     `json:"clusterSize"`
}

// ValidPosition reports whether lat/lon is a drawable WGS-84 coordinate.
func ValidPosition(lat, lon float64) bool {
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}
