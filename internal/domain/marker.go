package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Magnitude tier classes applied to event icons.
const (
	MagnitudeHigh   = "magnitude-high"
	MagnitudeMedium = "magnitude-medium"
	MagnitudeLow    = "magnitude-low"
)

const (
	eventIconSize    = 24
	popupTimeLayout  = "2006-01-02 15:04:05 MST"
	loadingPopupText = "Loading details..."
)

// MarkerKind distinguishes event markers from cluster markers.
type MarkerKind string

const (
	MarkerEvent   MarkerKind = "event"
	MarkerCluster MarkerKind = "cluster"
)

// PopupState reports which body a marker's popup currently shows.
type PopupState string

const (
	PopupLoading  PopupState = "loading"
	PopupSummary  PopupState = "summary"
	PopupDetailed PopupState = "detailed"
	PopupCluster  PopupState = "cluster"
)

// Icon describes how a marker is drawn. Offsets are in pixels relative to the
// icon's top-left corner, following Leaflet's DivIcon conventions.
type Icon struct {
	Shape       string `json:"shape"` // "diamond" or "circle"
	ClassName   string `json:"className"`
	Size        int    `json:"size"`
	Anchor      int    `json:"anchor"`
	PopupAnchor int    `json:"popupAnchor"`
	Label       string `json:"label,omitempty"`
}

// Popup is the rendered popup body: a bold title followed by plain lines.
type Popup struct {
	State PopupState `json:"state"`
	Title string     `json:"title,omitempty"`
	Lines []string   `json:"lines"`
}

// Marker is a drawable map marker.
type Marker struct {
	ID        string     `json:"id"`
	Kind      MarkerKind `json:"kind"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Icon      Icon       `json:"icon"`
	Popup     Popup      `json:"popup"`
}

// MagnitudeClass buckets a magnitude into its display tier.
func MagnitudeClass(magnitude float64) string {
	switch {
	case magnitude >= 5:
		return MagnitudeHigh
	case magnitude >= 2:
		return MagnitudeMedium
	default:
		return MagnitudeLow
	}
}

// diameterTier linearly maps sizes in [from, to] onto diameters [minPx, maxPx].
type diameterTier struct {
	from, to     float64
	minPx, maxPx float64
}

var diameterTiers = []diameterTier{
	{from: 0, to: 1000, minPx: 20, maxPx: 40},
	{from: 1000, to: 5000, minPx: 40, maxPx: 70},
	{from: 5000, to: 10000, minPx: 70, maxPx: 100},
	{from: 10000, to: 50000, minPx: 100, maxPx: 120},
}

// ClusterDiameter returns the icon diameter in pixels for a cluster of the
// given size. The result lies in [20, 120] and never decreases as size grows.
func ClusterDiameter(size int) int {
	s := math.Max(float64(size), 0)
	for _, t := range diameterTiers {
		if s <= t.to {
			frac := (s - t.from) / (t.to - t.from)
			return int(math.Round(t.minPx + frac*(t.maxPx-t.minPx)))
		}
	}
	return int(diameterTiers[len(diameterTiers)-1].maxPx)
}

// DetailState is the detail-cache view of one event at render time.
type DetailState struct {
	Loading bool
	Detail  *EventDetail
}

// RenderEventMarker draws an event. The popup shows the loading placeholder
// while a detail fetch is in flight, the detailed view once the detail is
// cached, and the summary otherwise.
func RenderEventMarker(e EventSummary, state DetailState) Marker {
	m := Marker{
		ID:        e.ID,
		Kind:      MarkerEvent,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
		Icon: Icon{
			Shape:       "diamond",
			ClassName:   MagnitudeClass(e.Magnitude),
			Size:        eventIconSize,
			Anchor:      eventIconSize / 2,
			PopupAnchor: -eventIconSize / 2,
		},
	}

	switch {
	case state.Loading:
		m.Popup = Popup{State: PopupLoading, Lines: []string{loadingPopupText}}
	case state.Detail != nil:
		d := state.Detail
		m.Popup = Popup{
			State: PopupDetailed,
			Title: d.Place,
			Lines: []string{
				"Mag: " + formatNumber(d.Magnitude),
				"Depth: " + formatNumber(d.Depth) + " km",
				"Time: " + formatTime(d.Time),
				fmt.Sprintf("Coordinate: %.4f, %.4f", d.Latitude, d.Longitude),
			},
		}
	default:
		m.Popup = Popup{
			State: PopupSummary,
			Title: e.Place,
			Lines: []string{
				"Mag: " + formatNumber(e.Magnitude),
				"Time: " + formatTime(e.Time),
			},
		}
	}
	return m
}

// RenderClusterMarker draws a hotspot as a size-scaled circle.
func RenderClusterMarker(c ClusterSummary) Marker {
	d := ClusterDiameter(c.ClusterSize)
	return Marker{
		ID:        ClusterMarkerID(c.ID),
		Kind:      MarkerCluster,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Icon: Icon{
			Shape:       "circle",
			ClassName:   "cluster-marker",
			Size:        d,
			Anchor:      d / 2,
			PopupAnchor: -d / 2,
			Label:       strconv.Itoa(c.ClusterSize),
		},
		Popup: Popup{
			State: PopupCluster,
			Title: fmt.Sprintf("Cluster ID: %d", c.ID),
			Lines: []string{
				fmt.Sprintf("Size: %d", c.ClusterSize),
				fmt.Sprintf("Lat: %.4f", c.Latitude),
				fmt.Sprintf("Lon: %.4f", c.Longitude),
			},
		},
	}
}

// ClusterMarkerID is the marker/popup identifier of a cluster.
func ClusterMarkerID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t Timestamp) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(popupTimeLayout)
}
