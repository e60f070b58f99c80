package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/beacon/internal/events"
	"github.com/npratt/beacon/internal/metrics"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 10 * time.Second

// Sink receives fetch results. *events.Queue satisfies it.
type Sink interface {
	Emit(ctx context.Context, ev events.Event) bool
}

// Tracker follows the session id reported by the feed and keeps the matching
// snapshot fetch in flight. Results are posted to the sink as
// SnapshotUpdatedEvents and must pass Accept before being applied.
type Tracker struct {
	fetcher Fetcher
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	lastID *int64
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewTracker creates a tracker. A nil fetcher tracks ids without fetching,
// which is how snapshots are disabled.
func NewTracker(fetcher Fetcher, sink Sink, logger *slog.Logger, timeout time.Duration) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{
		fetcher: fetcher,
		sink:    sink,
		logger:  logger.With("component", "snapshot"),
		timeout: timeout,
	}
}

// OnSessionID records the session id of the latest frame. It returns true
// when the id differs from the previous one, in which case the caller must
// clear any envelope it holds. A new non-nil id starts a fetch.
func (t *Tracker) OnSessionID(id *int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sameID(t.lastID, id) {
		return false
	}

	t.cancelLocked()
	t.gen++
	if id == nil {
		t.lastID = nil
		return true
	}
	v := *id
	t.lastID = &v

	if t.fetcher == nil {
		return true
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.wg.Add(1)
	go t.fetch(ctx, t.gen, v)
	return true
}

// Accept reports whether ev answers the current session id.
func (t *Tracker) Accept(ev *events.SnapshotUpdatedEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ev != nil && ev.Generation == t.gen && t.lastID != nil && *t.lastID == ev.SessionID
}

// Reset cancels any fetch and forgets the last id.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.gen++
	t.lastID = nil
}

// Close resets and waits for fetch goroutines to exit.
func (t *Tracker) Close() {
	t.Reset()
	t.wg.Wait()
}

func (t *Tracker) cancelLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker) fetch(ctx context.Context, gen uint64, id int64) {
	defer t.wg.Done()

	fetchCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	detail, err := t.fetcher.Fetch(fetchCtx, id)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		// Superseded or reset.
		metrics.ObserveSnapshot(metrics.SnapshotCancelled, elapsed)
		return
	}
	if err != nil {
		metrics.ObserveSnapshot(metrics.SnapshotFailed, elapsed)
		if errors.Is(err, context.DeadlineExceeded) {
			t.logger.Debug("snapshot fetch timed out", "session_id", id, "timeout", t.timeout)
		} else {
			t.logger.Debug("snapshot fetch failed", "session_id", id, "error", err)
		}
		t.sink.Emit(ctx, events.NewSnapshotUpdated(gen, id, nil, err))
		return
	}

	metrics.ObserveSnapshot(metrics.SnapshotSuccess, elapsed)
	t.logger.Debug("snapshot fetched", "session_id", id, "duration", elapsed)
	t.sink.Emit(ctx, events.NewSnapshotUpdated(gen, id, detail, nil))
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
