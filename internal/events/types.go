// Package events defines the input vocabulary of the reconciliation engine
// and the single ordered queue that carries it. Stream readers, snapshot
// fetches, timers and the host all post here; only the engine consumes.
package events

import (
	"time"

	"github.com/npratt/beacon/internal/progress"
)

// EventType identifies the category and nature of an event.
type EventType string

const (
	// Feed events
	EventFrameReceived     EventType = "frame.received"
	EventConnectionOpened  EventType = "connection.opened"
	EventConnectionErrored EventType = "connection.errored"

	// Snapshot events
	EventSnapshotUpdated EventType = "snapshot.updated"

	// Host events
	EventVisibilityChanged EventType = "visibility.changed"
	EventDismissed         EventType = "dismissed"

	// Timer events
	EventAutoHideElapsed EventType = "autohide.elapsed"
)

// Source constants identify the origin of events.
const (
	SourceFeed     = "feed"
	SourceSnapshot = "snapshot"
	SourceHost     = "host"
	SourceTimer    = "timer"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

func newBase(t EventType, src string) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now(), Src: src}
}

// FrameReceivedEvent carries one decoded frame from subscription Generation.
type FrameReceivedEvent struct {
	BaseEvent
	Generation uint64         `json:"generation"`
	Frame      progress.Frame `json:"frame"`
}

// ConnectionOpenedEvent is posted once a subscription's stream is open.
type ConnectionOpenedEvent struct {
	BaseEvent
	Generation     uint64 `json:"generation"`
	SubscriptionID string `json:"subscription_id"`
}

// ConnectionErroredEvent is posted when a subscription fails to open, the
// transport fails, or the producer closes the stream.
type ConnectionErroredEvent struct {
	BaseEvent
	Generation     uint64 `json:"generation"`
	SubscriptionID string `json:"subscription_id"`
	Err            error  `json:"-"`
}

// SnapshotUpdatedEvent carries the outcome of a session detail fetch. Exactly
// one of Detail and Err is set.
type SnapshotUpdatedEvent struct {
	BaseEvent
	Generation uint64                  `json:"generation"`
	SessionID  int64                   `json:"session_id"`
	Detail     *progress.SessionDetail `json:"detail,omitempty"`
	Err        error                   `json:"-"`
}

// VisibilityChangedEvent is posted by the host when the indicator is shown or hidden.
type VisibilityChangedEvent struct {
	BaseEvent
	Visible bool `json:"visible"`
}

// DismissedEvent is posted by the host when the user dismisses the indicator.
type DismissedEvent struct {
	BaseEvent
}

// AutoHideElapsedEvent is posted by the auto-hide timer. Seq identifies the
// timer instance so a superseded timer can be ignored.
type AutoHideElapsedEvent struct {
	BaseEvent
	Seq uint64 `json:"seq"`
}

// NewFrameReceived creates a FrameReceivedEvent.
func NewFrameReceived(gen uint64, f progress.Frame) *FrameReceivedEvent {
	return &FrameReceivedEvent{BaseEvent: newBase(EventFrameReceived, SourceFeed), Generation: gen, Frame: f}
}

// NewConnectionOpened creates a ConnectionOpenedEvent.
func NewConnectionOpened(gen uint64, subID string) *ConnectionOpenedEvent {
	return &ConnectionOpenedEvent{BaseEvent: newBase(EventConnectionOpened, SourceFeed), Generation: gen, SubscriptionID: subID}
}

// NewConnectionErrored creates a ConnectionErroredEvent.
func NewConnectionErrored(gen uint64, subID string, err error) *ConnectionErroredEvent {
	return &ConnectionErroredEvent{BaseEvent: newBase(EventConnectionErrored, SourceFeed), Generation: gen, SubscriptionID: subID, Err: err}
}

// NewSnapshotUpdated creates a SnapshotUpdatedEvent.
func NewSnapshotUpdated(gen uint64, sessionID int64, detail *progress.SessionDetail, err error) *SnapshotUpdatedEvent {
	return &SnapshotUpdatedEvent{
		BaseEvent:  newBase(EventSnapshotUpdated, SourceSnapshot),
		Generation: gen,
		SessionID:  sessionID,
		Detail:     detail,
		Err:        err,
	}
}

// NewVisibilityChanged creates a VisibilityChangedEvent.
func NewVisibilityChanged(visible bool) *VisibilityChangedEvent {
	return &VisibilityChangedEvent{BaseEvent: newBase(EventVisibilityChanged, SourceHost), Visible: visible}
}

// NewDismissed creates a DismissedEvent.
func NewDismissed() *DismissedEvent {
	return &DismissedEvent{BaseEvent: newBase(EventDismissed, SourceHost)}
}

// NewAutoHideElapsed creates an AutoHideElapsedEvent.
func NewAutoHideElapsed(seq uint64) *AutoHideElapsedEvent {
	return &AutoHideElapsedEvent{BaseEvent: newBase(EventAutoHideElapsed, SourceTimer), Seq: seq}
}
