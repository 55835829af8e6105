package viewer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/geosight-viewer/internal/domain"
	"github.com/couchcryptid/geosight-viewer/internal/observability"
	"github.com/jonboulle/clockwork"
)

// subscriberBuffer is how many updates a subscriber may lag behind before
// further updates to it are dropped.
const subscriberBuffer = 32

// EventSource serves the earthquakes mode.
type EventSource interface {
	ListEvents(ctx context.Context) ([]domain.EventSummary, error)
	GetEventDetail(ctx context.Context, id string) (domain.EventDetail, error)
}

// ClusterSource serves the hotspots mode.
type ClusterSource interface {
	ListClusters(ctx context.Context) ([]domain.ClusterSummary, error)
}

// ActivityPublisher receives viewer activity. Publish must not block.
type ActivityPublisher interface {
	Publish(ctx context.Context, event domain.ActivityEvent)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Events    EventSource
	Clusters  ClusterSource
	Activity  ActivityPublisher      // optional
	Metrics   *observability.Metrics // defaults to unregistered collectors
	Logger    *slog.Logger           // defaults to slog.Default()
	Clock     clockwork.Clock        // defaults to the real clock
	CacheSize int                    // detail cache bound; non-positive means unbounded

	// OnListLoaded is called after every successful summary list fetch.
	OnListLoaded func()
}

// withDefaults fills in the optional collaborators.
func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NewMetricsForTesting()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// UpdateKind distinguishes the messages sent to subscribers.
type UpdateKind string

const (
	// UpdateMounted is sent when a mode's summary list has been (re)loaded.
	UpdateMounted UpdateKind = "mounted"
	// UpdateMarker is sent when one event marker's popup state changes.
	UpdateMarker UpdateKind = "marker"
)

// Update notifies subscribers of a change. Epoch lets clients ignore updates
// that belong to a mount they have already replaced.
type Update struct {
	Kind   UpdateKind     `json:"kind"`
	Mode   domain.Mode    `json:"mode"`
	Epoch  uint64         `json:"epoch"`
	Marker *domain.Marker `json:"marker,omitempty"`
}

// View is the full render of a session: every drawable marker of the current mode.
type View struct {
	Mode    domain.Mode     `json:"mode"`
	Epoch   uint64          `json:"epoch"`
	Markers []domain.Marker `json:"markers"`
}

// fetch is the handle of one in-flight detail request. done is closed once
// the result has been applied to the session (or discarded as stale).
type fetch struct {
	done chan struct{}
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Session is the state of one open map: the mounted mode, its summary list,
// the lazily filled detail cache, and the open popups.
//
// Each mount starts a new epoch. Fetches remember the epoch they were started
// in and their results are dropped if the session has moved on, so a detail
// that resolves after a mode switch never leaks into the new mode.
type Session struct {
	id   string
	deps Deps

	mu         sync.Mutex
	mode       domain.Mode
	epoch      uint64
	epochCtx   context.Context
	cancel     context.CancelFunc
	events     []domain.EventSummary
	eventIndex map[string]int
	clusters   []domain.ClusterSummary
	cache      *DetailCache
	popups     *PopupTracker
	inflight   map[string]*fetch
	subs       map[int]chan Update
	nextSub    int
	lastSeen   time.Time
	closed     bool
}

// NewSession creates an unmounted session. Call SwitchMode to mount a mode.
func NewSession(id string, deps Deps) *Session {
	deps = deps.withDefaults()
	s := &Session{
		id:       id,
		deps:     deps,
		popups:   NewPopupTracker(),
		inflight: make(map[string]*fetch),
		subs:     make(map[int]chan Update),
		lastSeen: deps.Clock.Now(),
	}
	s.cache = s.newCache()
	s.epochCtx, s.cancel = context.WithCancel(context.Background())
	return s
}

// ID returns the session id handed to the browser.
func (s *Session) ID() string { return s.id }

// Mode returns the mounted mode, or "" before the first mount.
func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Epoch returns the current mount generation.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// IdleFor reports how long the session has been unused as of now. A session
// with a live subscription is never idle.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return 0
	}
	return now.Sub(s.lastSeen)
}

// SwitchMode mounts mode: it discards everything the previous mount held
// (list, detail cache, open popups, in-flight fetches) and loads the summary
// list for the new mode. A failed list fetch is logged and leaves the map empty.
// It returns the epoch of the new mount.
func (s *Session) SwitchMode(ctx context.Context, mode domain.Mode) uint64 {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	epoch, epochCtx := s.resetLocked(mode)
	s.mu.Unlock()

	s.deps.Metrics.ModeSwitches.WithLabelValues(mode.String()).Inc()
	s.publish(domain.ActivityModeSwitched, mode, "", epoch, nil)

	// The list fetch ends with the caller's request or with this mount, whichever comes first.
	listCtx, stop := context.WithCancel(epochCtx)
	defer stop()
	unhook := context.AfterFunc(ctx, stop)
	defer unhook()

	var (
		events   []domain.EventSummary
		clusters []domain.ClusterSummary
		err      error
	)
	switch mode {
	case domain.ModeHotspots:
		clusters, err = s.deps.Clusters.ListClusters(listCtx)
	default:
		events, err = s.deps.Events.ListEvents(listCtx)
	}
	s.storeList(epoch, mode, events, clusters, err)
	return epoch
}

// resetLocked starts a new epoch for mode. Callers hold s.mu.
func (s *Session) resetLocked(mode domain.Mode) (uint64, context.Context) {
	s.cancel()
	s.epoch++
	s.epochCtx, s.cancel = context.WithCancel(context.Background())
	s.mode = mode
	s.events, s.eventIndex, s.clusters = nil, nil, nil
	s.deps.Metrics.OpenPopups.Sub(float64(s.popups.Len()))
	s.popups = NewPopupTracker()
	s.cache = s.newCache()
	s.inflight = make(map[string]*fetch)
	s.lastSeen = s.deps.Clock.Now()
	return s.epoch, s.epochCtx
}

func (s *Session) storeList(epoch uint64, mode domain.Mode, events []domain.EventSummary, clusters []domain.ClusterSummary, err error) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.deps.Metrics.ListFetches.WithLabelValues(mode.String(), "stale").Inc()
		s.deps.Logger.Debug("discarding stale list", "session_id", s.id, "mode", mode, "epoch", epoch)
		return
	}

	if err != nil {
		s.deps.Metrics.ListFetches.WithLabelValues(mode.String(), "error").Inc()
		s.deps.Logger.Warn("failed to load map data", "session_id", s.id, "mode", mode, "error", err)
	} else {
		s.deps.Metrics.ListFetches.WithLabelValues(mode.String(), "success").Inc()
		s.events = events
		s.clusters = clusters
		s.eventIndex = make(map[string]int, len(events))
		for i := range events {
			if _, dup := s.eventIndex[events[i].ID]; !dup {
				s.eventIndex[events[i].ID] = i
			}
		}
	}
	s.broadcastLocked(Update{Kind: UpdateMounted, Mode: mode, Epoch: epoch})
	s.mu.Unlock()

	if err == nil && s.deps.OnListLoaded != nil {
		s.deps.OnListLoaded()
	}
}

// OpenPopup records that the popup for id is open and makes sure its detail
// gets loaded. The returned channel is closed once the detail is available
// or its fetch has failed; it is already closed when there is nothing to wait for.
//
// At most one fetch per id is in flight: reopening while a fetch is pending
// returns the pending fetch's channel. Fetches for different ids run independently.
func (s *Session) OpenPopup(id string) <-chan struct{} {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return closedChan
	}
	s.lastSeen = s.deps.Clock.Now()
	mode, epoch := s.mode, s.epoch
	if s.popups.Open(id) {
		s.deps.Metrics.OpenPopups.Inc()
	}

	done := s.ensureDetailLocked(id)
	s.mu.Unlock()

	s.publish(domain.ActivityPopupOpened, mode, id, epoch, nil)
	return done
}

func (s *Session) ensureDetailLocked(id string) <-chan struct{} {
	if s.mode != domain.ModeEarthquakes {
		return closedChan
	}
	if s.cache.Has(id) {
		s.deps.Metrics.DetailCache.WithLabelValues("hit").Inc()
		return closedChan
	}
	if f, ok := s.inflight[id]; ok {
		s.deps.Metrics.DetailCache.WithLabelValues("inflight").Inc()
		return f.done
	}
	if _, ok := s.eventIndex[id]; !ok {
		s.deps.Logger.Debug("popup opened for unknown event", "session_id", s.id, "event_id", id)
		return closedChan
	}

	s.deps.Metrics.DetailCache.WithLabelValues("miss").Inc()
	f := &fetch{done: make(chan struct{})}
	s.inflight[id] = f
	go s.fetchDetail(s.epochCtx, s.epoch, id, f)

	if m, ok := s.renderEventLocked(id); ok {
		s.broadcastLocked(Update{Kind: UpdateMarker, Mode: s.mode, Epoch: s.epoch, Marker: &m})
	}
	return f.done
}

func (s *Session) fetchDetail(ctx context.Context, epoch uint64, id string, f *fetch) {
	defer close(f.done)

	start := s.deps.Clock.Now()
	detail, err := s.deps.Events.GetEventDetail(ctx, id)
	s.deps.Metrics.DetailFetchDuration.Observe(s.deps.Clock.Since(start).Seconds())

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.deps.Metrics.DetailFetches.WithLabelValues("stale").Inc()
		s.deps.Logger.Debug("discarding stale detail", "session_id", s.id, "event_id", id, "epoch", epoch)
		return
	}
	delete(s.inflight, id)
	if err == nil {
		s.cache.Put(id, detail)
	}
	mode := s.mode
	if m, ok := s.renderEventLocked(id); ok {
		s.broadcastLocked(Update{Kind: UpdateMarker, Mode: mode, Epoch: epoch, Marker: &m})
	}
	s.mu.Unlock()

	if err != nil {
		s.deps.Metrics.DetailFetches.WithLabelValues("error").Inc()
		s.deps.Logger.Warn("failed to load event detail", "session_id", s.id, "event_id", id, "error", err)
		s.publish(domain.ActivityDetailFailed, mode, id, epoch, err)
		return
	}
	s.deps.Metrics.DetailFetches.WithLabelValues("success").Inc()
	s.publish(domain.ActivityDetailLoaded, mode, id, epoch, nil)
}

// ClosePopup records that the popup for id was closed. The cached detail is
// kept; closing only refreshes its recency in the cache.
func (s *Session) ClosePopup(id string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.lastSeen = s.deps.Clock.Now()
	wasOpen := s.popups.Close(id)
	if wasOpen {
		s.deps.Metrics.OpenPopups.Dec()
	}
	s.cache.Touch(id)
	mode, epoch := s.mode, s.epoch
	s.mu.Unlock()

	if wasOpen {
		s.publish(domain.ActivityPopupClosed, mode, id, epoch, nil)
	}
}

// IsPopupOpen reports whether the popup for id is currently open.
func (s *Session) IsPopupOpen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popups.IsOpen(id)
}

// View renders every drawable marker of the current mount.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.deps.Clock.Now()

	v := View{Mode: s.mode, Epoch: s.epoch, Markers: []domain.Marker{}}
	switch s.mode {
	case domain.ModeHotspots:
		for _, c := range s.clusters {
			if !domain.ValidPosition(c.Latitude, c.Longitude) {
				continue
			}
			v.Markers = append(v.Markers, domain.RenderClusterMarker(c))
		}
	case domain.ModeEarthquakes:
		for i := range s.events {
			e := s.events[i]
			if !domain.ValidPosition(e.Latitude, e.Longitude) {
				continue
			}
			v.Markers = append(v.Markers, domain.RenderEventMarker(e, s.detailStateLocked(e.ID)))
		}
	}
	return v
}

// Marker renders the marker for id in the current mount.
func (s *Session) Marker(id string) (domain.Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == domain.ModeHotspots {
		for _, c := range s.clusters {
			if domain.ClusterMarkerID(c.ID) == id {
				return domain.RenderClusterMarker(c), true
			}
		}
		return domain.Marker{}, false
	}
	return s.renderEventLocked(id)
}

func (s *Session) renderEventLocked(id string) (domain.Marker, bool) {
	i, ok := s.eventIndex[id]
	if !ok {
		return domain.Marker{}, false
	}
	return domain.RenderEventMarker(s.events[i], s.detailStateLocked(id)), true
}

func (s *Session) detailStateLocked(id string) domain.DetailState {
	var state domain.DetailState
	_, state.Loading = s.inflight[id]
	if d, ok := s.cache.Peek(id); ok {
		state.Detail = &d
	}
	return state
}

// Subscribe returns a stream of updates for this session and a function that
// ends the subscription. The stream is closed when the session closes. While
// any subscription is live the session does not count as idle.
func (s *Session) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
			s.lastSeen = s.deps.Clock.Now()
		}
	}
}

func (s *Session) broadcastLocked(u Update) {
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.deps.Metrics.UpdatesDropped.Inc()
		}
	}
}

// Close cancels in-flight work and ends all subscriptions. Late results of
// cancelled fetches are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	s.epoch++
	s.deps.Metrics.OpenPopups.Sub(float64(s.popups.Len()))
	s.popups = NewPopupTracker()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) newCache() *DetailCache {
	c := NewDetailCache(s.deps.CacheSize)
	c.onEvict = func(string) { s.deps.Metrics.DetailCacheEvictions.Inc() }
	return c
}

func (s *Session) publish(kind domain.ActivityKind, mode domain.Mode, itemID string, epoch uint64, err error) {
	if s.deps.Activity == nil {
		return
	}
	a := domain.NewActivity(s.id, kind, mode, itemID, epoch)
	if err != nil {
		a.Error = err.Error()
	}
	s.deps.Activity.Publish(context.Background(), a)
}
