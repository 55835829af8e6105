package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
)

// Registry owns the live sessions and expires the ones nobody has used for a while.
type Registry struct {
	deps        Deps
	idleTimeout time.Duration
	probe       sharedobs.ReadinessChecker
	ready       atomic.Bool

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions share deps. probe, when set,
// answers readiness until the first summary list has been loaded.
func NewRegistry(deps Deps, idleTimeout time.Duration, probe sharedobs.ReadinessChecker) *Registry {
	deps = deps.withDefaults()
	r := &Registry{
		idleTimeout: idleTimeout,
		probe:       probe,
		sessions:    make(map[string]*Session),
	}
	next := deps.OnListLoaded
	deps.OnListLoaded = func() {
		r.ready.Store(true)
		if next != nil {
			next()
		}
	}
	r.deps = deps
	return r
}

// Create registers a new, unmounted session.
func (r *Registry) Create() *Session {
	s := NewSession(uuid.NewString(), r.deps)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.deps.Metrics.ActiveSessions.Inc()
	r.deps.Logger.Info("session created", "session_id", s.ID())
	return s
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap closes and forgets every session idle for longer than the idle timeout.
// Sessions with a connected update stream are kept.
// It returns how many sessions were removed.
func (r *Registry) Reap() int {
	now := r.deps.Clock.Now()

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.IdleFor(now) > r.idleTimeout {
			delete(r.sessions, id)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
		r.deps.Metrics.ActiveSessions.Dec()
		r.deps.Logger.Info("session expired", "session_id", s.ID())
	}
	return len(expired)
}

// Run reaps idle sessions until ctx is cancelled, then closes the rest.
func (r *Registry) Run(ctx context.Context) {
	ticker := r.deps.Clock.NewTicker(r.reapInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.Chan():
			if n := r.Reap(); n > 0 {
				r.deps.Logger.Debug("reaped idle sessions", "count", n)
			}
		}
	}
}

func (r *Registry) reapInterval() time.Duration {
	if d := r.idleTimeout / 2; d >= time.Second {
		return d
	}
	return time.Second
}

// CloseAll closes and forgets every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		r.deps.Metrics.ActiveSessions.Dec()
	}
}

// CheckReadiness reports ready once any session has loaded a summary list.
// Before that it defers to the probe.
func (r *Registry) CheckReadiness(ctx context.Context) error {
	if r.ready.Load() {
		return nil
	}
	if r.probe == nil {
		return errors.New("no map data has been loaded yet")
	}
	if err := r.probe.CheckReadiness(ctx); err != nil {
		return fmt.Errorf("seismic API not reachable: %w", err)
	}
	return nil
}
