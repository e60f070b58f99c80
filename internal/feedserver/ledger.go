package feedserver

import (
	"sync"

	"github.com/npratt/beacon/internal/progress"
)

// DefaultHistorySize is how many telemetry events are kept per session.
const DefaultHistorySize = 200

// Ledger keeps the most recent telemetry events of each session in memory.
type Ledger struct {
	mu     sync.RWMutex
	limit  int
	events map[int64][]progress.TelemetryEvent
}

// NewLedger creates a ledger keeping at most limit events per session.
func NewLedger(limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &Ledger{limit: limit, events: make(map[int64][]progress.TelemetryEvent)}
}

// Append records an event under ev.SessionID.
func (l *Ledger) Append(ev progress.TelemetryEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	evs := append(l.events[ev.SessionID], ev)
	if len(evs) > l.limit {
		evs = append([]progress.TelemetryEvent(nil), evs[len(evs)-l.limit:]...)
	}
	l.events[ev.SessionID] = evs
}

// Events returns a copy of the session's events, oldest first. The result is
// never nil.
func (l *Ledger) Events(sessionID int64) []progress.TelemetryEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]progress.TelemetryEvent, len(l.events[sessionID]))
	copy(out, l.events[sessionID])
	return out
}
