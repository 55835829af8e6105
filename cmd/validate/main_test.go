package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goodEvent(id string) domain.EventSummary {
	return domain.EventSummary{
		ID:        id,
		Time:      domain.Timestamp{Time: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		Latitude:  10,
		Longitude: 20,
		Depth:     5,
		Magnitude: 6.1,
		Place:     "Test",
	}
}

func TestValidateEvents(t *testing.T) {
	assert.True(t, validateEvents([]domain.EventSummary{goodEvent("a"), goodEvent("b")}).passed())

	offMap := goodEvent("c")
	offMap.Longitude = 200
	noTime := goodEvent("d")
	noTime.Time = domain.Timestamp{}

	p := validateEvents([]domain.EventSummary{goodEvent("a"), goodEvent("a"), offMap, noTime})
	require.Len(t, p.errors, 3)
	assert.Contains(t, p.errors[0], "duplicates")
	assert.Contains(t, p.errors[1], "off the map")
	assert.Contains(t, p.errors[2], "missing time")
}

func TestValidateClusters(t *testing.T) {
	p := validateClusters([]domain.ClusterSummary{
		{ID: 1, Latitude: 35, Longitude: -117, ClusterSize: 10},
		{ID: 1, Latitude: 35, Longitude: -117, ClusterSize: 0},
	})
	require.Len(t, p.errors, 2)
	assert.Contains(t, p.errors[0], "duplicate id")
	assert.Contains(t, p.errors[1], "non-positive size")
}

type fakeFetcher map[string]domain.EventDetail

func (f fakeFetcher) GetEventDetail(_ context.Context, id string) (domain.EventDetail, error) {
	d, ok := f[id]
	if !ok {
		return domain.EventDetail{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return d, nil
}

func TestValidateDetails(t *testing.T) {
	moved := domain.EventDetail(goodEvent("b"))
	moved.Latitude = 11

	fetcher := fakeFetcher{
		"a": domain.EventDetail(goodEvent("a")),
		"b": moved,
	}
	events := []domain.EventSummary{goodEvent("a"), goodEvent("b"), goodEvent("c")}

	p := validateDetails(context.Background(), fetcher, events, 10)
	require.Len(t, p.errors, 2)
	assert.Contains(t, p.errors[0], "differs from summary")
	assert.Contains(t, p.errors[1], "not found")

	// Only the first event is sampled.
	assert.True(t, validateDetails(context.Background(), fetcher, events, 1).passed())
}
