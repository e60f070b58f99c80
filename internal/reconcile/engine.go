// Package reconcile merges feed frames, connection state and session
// snapshots into one ViewModel. All mutation happens in Reduce, which must be
// called from the single goroutine draining the event queue.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/npratt/beacon/internal/events"
	"github.com/npratt/beacon/internal/feed"
	"github.com/npratt/beacon/internal/metrics"
	"github.com/npratt/beacon/internal/progress"
	"github.com/npratt/beacon/internal/stage"
	"github.com/npratt/beacon/internal/viewmodel"
)

// DefaultAutoHideDelay is the grace window between complete and hidden.
const DefaultAutoHideDelay = 2 * time.Second

// Subscription is the feed supervisor as seen by the engine.
type Subscription interface {
	Activate() uint64
	Deactivate()
	Accept(gen uint64) bool
	HandleOpened(gen uint64) bool
	HandleErrored(gen uint64, err error) bool
	State() feed.State
}

// SnapshotTracker is the snapshot tracker as seen by the engine.
type SnapshotTracker interface {
	OnSessionID(id *int64) bool
	Accept(ev *events.SnapshotUpdatedEvent) bool
	Reset()
}

// Sink receives timer events. *events.Queue satisfies it.
type Sink interface {
	Emit(ctx context.Context, ev events.Event) bool
}

// Clock schedules callbacks. AfterFunc returns a stop function with the
// semantics of time.Timer.Stop.
type Clock interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Hooks are the host notifications. Both run on the engine goroutine.
type Hooks struct {
	// OnComplete fires once when a completed job auto-hides.
	OnComplete func()
	// OnDismiss fires when a visible indicator is dismissed.
	OnDismiss func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for the auto-hide timer.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithHooks sets the host hooks.
func WithHooks(h Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithAutoHideDelay overrides the complete-to-hidden grace window.
func WithAutoHideDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithVisible sets the initial visibility. Engines start visible.
func WithVisible(v bool) Option {
	return func(e *Engine) { e.vm = viewmodel.Initial(v) }
}

// Engine is the reconciliation reducer.
type Engine struct {
	sub   Subscription
	snap  SnapshotTracker
	sink  Sink
	clock Clock
	hooks Hooks
	delay time.Duration

	logger *slog.Logger

	vm       viewmodel.ViewModel
	stopHide func() bool
	hideSeq  uint64
}

// New creates an engine. Call Start to open the subscription when visible.
func New(sub Subscription, snap SnapshotTracker, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		sub:    sub,
		snap:   snap,
		sink:   sink,
		clock:  realClock{},
		delay:  DefaultAutoHideDelay,
		logger: slog.Default(),
		vm:     viewmodel.Initial(true),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "reconcile")
	return e
}

// Start opens the subscription if the indicator starts visible.
func (e *Engine) Start() viewmodel.ViewModel {
	if e.vm.Visible {
		e.sub.Activate()
		e.vm.Connection = e.sub.State()
	}
	return e.vm
}

// Close cancels the timer, the subscription and any fetch.
func (e *Engine) Close() {
	e.cancelAutoHide()
	e.sub.Deactivate()
	e.snap.Reset()
}

// View returns the current view model.
func (e *Engine) View() viewmodel.ViewModel {
	return e.vm
}

// Reduce applies one event and returns the resulting view model. Events from
// superseded subscriptions, fetches or timers leave the state untouched.
func (e *Engine) Reduce(ev events.Event) viewmodel.ViewModel {
	switch ev := ev.(type) {
	case *events.FrameReceivedEvent:
		e.onFrame(ev)
	case *events.ConnectionOpenedEvent:
		if e.sub.HandleOpened(ev.Generation) {
			e.vm.Connection = feed.StateConnected
		}
	case *events.ConnectionErroredEvent:
		if e.sub.HandleErrored(ev.Generation, ev.Err) {
			e.vm.Connection = feed.StateDisconnected
			e.vm.Indicators = progress.Indicators{}
		}
	case *events.SnapshotUpdatedEvent:
		e.onSnapshot(ev)
	case *events.VisibilityChangedEvent:
		if ev.Visible {
			e.show()
		} else {
			e.hide()
		}
	case *events.DismissedEvent:
		e.dismiss()
	case *events.AutoHideElapsedEvent:
		e.onAutoHide(ev)
	default:
		e.logger.Debug("ignoring event", "type", ev.Type())
	}
	return e.vm
}

func (e *Engine) onFrame(ev *events.FrameReceivedEvent) {
	if !e.vm.Visible || !e.sub.Accept(ev.Generation) {
		return
	}
	f := ev.Frame

	e.vm.Stage = f.Stage
	e.vm.Progress = f.Progress
	e.vm.ElapsedS = f.ElapsedS
	e.vm.ETASeconds = f.ETASeconds
	e.vm.Tokens = f.Tokens
	e.vm.Message = f.Message
	e.vm.Indicators = f.Flags()
	e.vm.SessionID = f.SessionID
	e.vm.ComplexityLabel = f.ComplexityLabel

	// Complete is terminal until hide, dismissal or re-show.
	if e.vm.Status != stage.StatusComplete {
		e.setStatus(stage.Next(e.vm.Status, f))
	}

	if e.snap.OnSessionID(f.SessionID) {
		e.clearSnapshot()
	}
}

func (e *Engine) onSnapshot(ev *events.SnapshotUpdatedEvent) {
	if !e.snap.Accept(ev) {
		return
	}
	if ev.Err != nil {
		e.clearSnapshot()
		return
	}
	e.vm.Envelope = ev.Detail.Envelope()
	e.vm.EventCount = ev.Detail.EventCount()
}

// show re-enters thinking with a fresh subscription, whatever the prior state.
func (e *Engine) show() {
	e.cancelAutoHide()
	e.snap.Reset()

	prev := e.vm.Status
	e.vm = viewmodel.Initial(true)
	e.vm.Status = stage.StatusThinking
	metrics.ObserveTransition(string(prev), string(e.vm.Status))

	e.sub.Activate()
	e.vm.Connection = e.sub.State()
	e.logger.Debug("shown", "previous", prev)
}

func (e *Engine) hide() {
	e.teardown()
	e.logger.Debug("hidden")
}

func (e *Engine) dismiss() {
	wasVisible := e.vm.Visible
	e.teardown()
	e.logger.Debug("dismissed", "was_visible", wasVisible)
	if wasVisible && e.hooks.OnDismiss != nil {
		e.hooks.OnDismiss()
	}
}

func (e *Engine) onAutoHide(ev *events.AutoHideElapsedEvent) {
	if e.stopHide == nil || ev.Seq != e.hideSeq {
		return
	}
	e.stopHide = nil
	e.teardown()
	e.logger.Debug("auto-hidden after completion")
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete()
	}
}

// teardown moves to hidden and releases the subscription and any fetch.
func (e *Engine) teardown() {
	e.cancelAutoHide()
	e.sub.Deactivate()
	e.snap.Reset()

	if e.vm.Status != stage.StatusHidden {
		metrics.ObserveTransition(string(e.vm.Status), string(stage.StatusHidden))
	}
	e.vm.Visible = false
	e.vm.Status = stage.StatusHidden
	e.vm.Connection = feed.StateDisconnected
	e.vm.Indicators = progress.Indicators{}
	e.vm.SessionID = nil
	e.clearSnapshot()
}

func (e *Engine) setStatus(next stage.Status) {
	prev := e.vm.Status
	if next == prev {
		return
	}
	metrics.ObserveTransition(string(prev), string(next))
	e.cancelAutoHide()
	e.vm.Status = next
	if next == stage.StatusComplete {
		e.scheduleAutoHide()
	}
}

func (e *Engine) scheduleAutoHide() {
	e.hideSeq++
	seq := e.hideSeq
	e.stopHide = e.clock.AfterFunc(e.delay, func() {
		e.sink.Emit(context.Background(), events.NewAutoHideElapsed(seq))
	})
}

// cancelAutoHide stops the pending timer and invalidates any firing that
// is already queued.
func (e *Engine) cancelAutoHide() {
	if e.stopHide != nil {
		e.stopHide()
		e.stopHide = nil
	}
	e.hideSeq++
}

func (e *Engine) clearSnapshot() {
	e.vm.Envelope = nil
	e.vm.EventCount = nil
}
