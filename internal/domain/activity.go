package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// ActivityKind names a viewer interaction recorded on the activity stream.
type ActivityKind string

const (
	ActivityModeSwitched ActivityKind = "mode_switched"
	ActivityPopupOpened  ActivityKind = "popup_opened"
	ActivityPopupClosed  ActivityKind = "popup_closed"
	ActivityDetailLoaded ActivityKind = "detail_loaded"
	ActivityDetailFailed ActivityKind = "detail_failed"
)

// ActivityEvent is one viewer interaction, published for offline analysis of
// which events people inspect.
type ActivityEvent struct {
	SessionID  string       `json:"session_id"`
	Kind       ActivityKind `json:"kind"`
	Mode       Mode         `json:"mode"`
	ItemID     string       `json:"item_id,omitempty"`
	Epoch      uint64       `json:"epoch"`
	Error      string       `json:"error,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// activityClock stamps OccurredAt on new activity events.
var activityClock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the clock behind NewActivity; nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	activityClock = c
}

// NewActivity stamps an activity event with the package clock.
func NewActivity(sessionID string, kind ActivityKind, mode Mode, itemID string, epoch uint64) ActivityEvent {
	return ActivityEvent{
		SessionID:  sessionID,
		Kind:       kind,
		Mode:       mode,
		ItemID:     itemID,
		Epoch:      epoch,
		OccurredAt: activityClock.Now().UTC(),
	}
}
