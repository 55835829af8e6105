package viewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeFunc func(ctx context.Context) error

func (f probeFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

func newTestRegistry(src *fakeSource, probe probeFunc) (*Registry, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	deps := testDeps(src)
	deps.Clock = clock
	if probe == nil {
		return NewRegistry(deps, 30*time.Minute, nil), clock
	}
	return NewRegistry(deps, 30*time.Minute, probe), clock
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(newFakeSource(), nil)

	a := r.Create()
	b := r.Create()
	assert.NotEqual(t, a.ID(), b.ID())

	got, ok := r.Get(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
	assert.InDelta(t, 2, testutil.ToFloat64(r.deps.Metrics.ActiveSessions), 0)
}

func TestRegistry_ReapExpiresIdleSessions(t *testing.T) {
	r, clock := newTestRegistry(newFakeSource(), nil)

	idle := r.Create()
	active := r.Create()
	updates, _ := idle.Subscribe()

	clock.Advance(20 * time.Minute)
	active.View()
	clock.Advance(11 * time.Minute)

	assert.Equal(t, 1, r.Reap())
	_, ok := r.Get(idle.ID())
	assert.False(t, ok)
	_, ok = r.Get(active.ID())
	assert.True(t, ok)

	_, open := <-updates
	assert.False(t, open, "expired session closes its streams")
	assert.InDelta(t, 1, testutil.ToFloat64(r.deps.Metrics.ActiveSessions), 0)
}

func TestRegistry_RunReapsOnTick(t *testing.T) {
	r, clock := newTestRegistry(newFakeSource(), nil)
	r.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(45 * time.Minute)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	r.Create()
	cancel()
	<-done
	assert.Zero(t, r.Len(), "shutdown closes the remaining sessions")
}

func TestRegistry_ReadinessWithoutProbe(t *testing.T) {
	src := newFakeSource()
	src.events = []domain.EventSummary{us1()}
	r, _ := newTestRegistry(src, nil)

	require.Error(t, r.CheckReadiness(context.Background()))

	r.Create().SwitchMode(context.Background(), domain.ModeEarthquakes)
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRegistry_ReadinessDefersToProbe(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("down")
	probeErr := errors.New("connection refused")
	healthy := false
	r, _ := newTestRegistry(src, func(context.Context) error {
		if healthy {
			return nil
		}
		return probeErr
	})

	err := r.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, probeErr)

	// A failed list fetch does not make the viewer ready.
	r.Create().SwitchMode(context.Background(), domain.ModeEarthquakes)
	require.Error(t, r.CheckReadiness(context.Background()))

	healthy = true
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRegistry_ReapKeepsSessionsWithLiveStream(t *testing.T) {
	r, clock := newTestRegistry(newFakeSource(), nil)

	s := r.Create()
	updates, unsubscribe := s.Subscribe()

	clock.Advance(31 * time.Minute)
	assert.Zero(t, r.Reap(), "a connected tab is not idle")
	_, ok := r.Get(s.ID())
	assert.True(t, ok)

	// The idle clock restarts when the stream goes away.
	unsubscribe()
	_, open := <-updates
	assert.False(t, open)

	clock.Advance(29 * time.Minute)
	assert.Zero(t, r.Reap())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, r.Reap())
	_, ok = r.Get(s.ID())
	assert.False(t, ok)
}
