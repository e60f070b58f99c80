package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/npratt/beacon/internal/events"
	"github.com/npratt/beacon/internal/progress"
	"github.com/npratt/beacon/internal/reconcile"
	"github.com/npratt/beacon/internal/snapshot"
	"github.com/npratt/beacon/internal/testutil"
)

// fixture wires a TUI model to a real engine over fakes.
type fixture struct {
	t       *testing.T
	ui      *TUI
	queue   *events.Queue
	sub     *testutil.FakeSubscription
	fetcher *testutil.FakeFetcher
	clock   *testutil.FakeClock
	engine  *reconcile.Engine
	quits   int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		queue:   events.NewQueue(32),
		sub:     testutil.NewFakeSubscription(),
		fetcher: testutil.NewFakeFetcher(),
		clock:   testutil.NewFakeClock(),
	}
	opts = append([]Option{WithOnQuit(func() { f.quits++ })}, opts...)
	f.ui = New(f.queue, opts...)

	tracker := snapshot.NewTracker(f.fetcher, f.queue, nil, time.Second)
	f.engine = reconcile.New(f.sub, tracker, f.queue,
		reconcile.WithClock(f.clock),
		reconcile.WithHooks(f.ui.Hooks()),
	)
	t.Cleanup(func() {
		f.engine.Close()
		tracker.Close()
		f.queue.Close()
	})
	return f
}

// model creates a sized model, starting the engine.
func (f *fixture) model() model {
	m := newModel(f.queue, f.engine, f.ui.signals, f.ui.onQuit, f.ui.quitOnComplete)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(model)
}

func (f *fixture) frame(m model, fr progress.Frame) (model, tea.Cmd) {
	updated, cmd := m.Update(eventMsg{event: events.NewFrameReceived(f.sub.Generation(), fr)})
	return updated.(model), cmd
}

func (f *fixture) frameJSON(m model, payload string) model {
	f.t.Helper()
	fr, err := progress.DecodeFrame([]byte(payload))
	if err != nil {
		f.t.Fatalf("decode %s: %v", payload, err)
	}
	m, _ = f.frame(m, fr)
	return m
}

// next feeds the next queued event to m.
func (f *fixture) next(m model) (model, tea.Cmd) {
	f.t.Helper()
	ev := testutil.NextEvent(f.t, f.queue)
	updated, cmd := m.Update(eventMsg{event: ev})
	return updated.(model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(m model, s string) (model, tea.Cmd) {
	updated, cmd := m.Update(key(s))
	return updated.(model), cmd
}

// isQuit runs cmd and reports whether it produced tea.QuitMsg. Only call it
// on commands expected to quit; waitForEvent blocks on an empty queue.
func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func decode(payload string) (progress.Frame, error) {
	return progress.DecodeFrame([]byte(payload))
}
