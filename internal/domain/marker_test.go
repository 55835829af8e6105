package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() EventSummary {
	return EventSummary{
		ID:        "us1",
		Time:      Timestamp{Time: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		Latitude:  10,
		Longitude: 20,
		Depth:     5,
		Magnitude: 6.1,
		Place:     "Test",
	}
}

func TestMagnitudeClass(t *testing.T) {
	tests := []struct {
		magnitude float64
		want      string
	}{
		{9.5, MagnitudeHigh},
		{5.0, MagnitudeHigh},
		{4.99, MagnitudeMedium},
		{2.0, MagnitudeMedium},
		{1.99, MagnitudeLow},
		{0, MagnitudeLow},
		{-1.2, MagnitudeLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MagnitudeClass(tt.magnitude), "magnitude %v", tt.magnitude)
	}
}

func TestClusterDiameter_TierBoundaries(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{-5, 20},
		{0, 20},
		{500, 30},
		{1000, 40},
		{3000, 55},
		{5000, 70},
		{7500, 85},
		{10000, 100},
		{30000, 110},
		{50000, 120},
		{1_000_000, 120},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClusterDiameter(tt.size), "size %d", tt.size)
	}
}

func TestClusterDiameter_MonotonicAndBounded(t *testing.T) {
	prev := ClusterDiameter(0)
	for size := 1; size <= 60000; size += 7 {
		d := ClusterDiameter(size)
		require.GreaterOrEqual(t, d, prev, "diameter decreased at size %d", size)
		require.GreaterOrEqual(t, d, 20)
		require.LessOrEqual(t, d, 120)
		if size >= 10000 {
			require.LessOrEqual(t, d, 120)
		}
		prev = d
	}
}

func TestRenderEventMarker_Summary(t *testing.T) {
	m := RenderEventMarker(testEvent(), DetailState{})

	assert.Equal(t, "us1", m.ID)
	assert.Equal(t, MarkerEvent, m.Kind)
	assert.Equal(t, 10.0, m.Latitude)
	assert.Equal(t, 20.0, m.Longitude)
	assert.Equal(t, "diamond", m.Icon.Shape)
	assert.Equal(t, MagnitudeHigh, m.Icon.ClassName)
	assert.Equal(t, 24, m.Icon.Size)
	assert.Equal(t, 12, m.Icon.Anchor)
	assert.Equal(t, -12, m.Icon.PopupAnchor)

	assert.Equal(t, PopupSummary, m.Popup.State)
	assert.Equal(t, "Test", m.Popup.Title)
	assert.Equal(t, []string{"Mag: 6.1", "Time: 2023-01-01 00:00:00 UTC"}, m.Popup.Lines)
}

func TestRenderEventMarker_Loading(t *testing.T) {
	m := RenderEventMarker(testEvent(), DetailState{Loading: true})

	assert.Equal(t, PopupLoading, m.Popup.State)
	assert.Equal(t, []string{"Loading details..."}, m.Popup.Lines)
}

func TestRenderEventMarker_LoadingWinsOverCachedDetail(t *testing.T) {
	d := EventDetail(testEvent())
	m := RenderEventMarker(testEvent(), DetailState{Loading: true, Detail: &d})
	assert.Equal(t, PopupLoading, m.Popup.State)
}

func TestRenderEventMarker_Detailed(t *testing.T) {
	d := EventDetail(testEvent())
	d.Depth = 12.3
	d.Place = "Test (revised)"

	m := RenderEventMarker(testEvent(), DetailState{Detail: &d})

	assert.Equal(t, PopupDetailed, m.Popup.State)
	assert.Equal(t, "Test (revised)", m.Popup.Title)
	assert.Contains(t, m.Popup.Lines, "Depth: 12.3 km")
	assert.Contains(t, m.Popup.Lines, "Coordinate: 10.0000, 20.0000")
	assert.Contains(t, m.Popup.Lines, "Mag: 6.1")
}

func TestRenderEventMarker_ZeroTime(t *testing.T) {
	e := testEvent()
	e.Time = Timestamp{}
	m := RenderEventMarker(e, DetailState{})
	assert.Contains(t, m.Popup.Lines, "Time: unknown")
}

func TestRenderClusterMarker(t *testing.T) {
	m := RenderClusterMarker(ClusterSummary{ID: 7, Latitude: 35.123456, Longitude: -117.5, ClusterSize: 1000})

	assert.Equal(t, "7", m.ID)
	assert.Equal(t, MarkerCluster, m.Kind)
	assert.Equal(t, "circle", m.Icon.Shape)
	assert.Equal(t, 40, m.Icon.Size)
	assert.Equal(t, 20, m.Icon.Anchor)
	assert.Equal(t, -20, m.Icon.PopupAnchor)
	assert.Equal(t, "1000", m.Icon.Label)

	assert.Equal(t, PopupCluster, m.Popup.State)
	assert.Equal(t, "Cluster ID: 7", m.Popup.Title)
	assert.Equal(t, []string{"Size: 1000", "Lat: 35.1235", "Lon: -117.5000"}, m.Popup.Lines)
}

func TestRenderClusterMarker_EmptyCluster(t *testing.T) {
	m := RenderClusterMarker(ClusterSummary{ID: 1})
	assert.Equal(t, 20, m.Icon.Size)
}
