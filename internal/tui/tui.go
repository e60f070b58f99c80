// Package tui provides a terminal status indicator for the reconciliation
// engine using bubbletea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/npratt/beacon/internal/events"
	"github.com/npratt/beacon/internal/reconcile"
)

// TUI is the terminal host of a reconcile.Engine. The bubbletea update loop
// is the engine goroutine: it drains the queue and applies key presses.
type TUI struct {
	queue          *events.Queue
	onQuit         func()
	onComplete     func()
	onDismiss      func()
	quitOnComplete bool
	signals        *hostSignals
}

// hostSignals records hook calls made during the current Reduce.
type hostSignals struct {
	completed bool
	dismissed bool
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI reading from the given queue.
func New(q *events.Queue, opts ...Option) *TUI {
	t := &TUI{
		queue:   q,
		signals: &hostSignals{},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithOnQuit sets the callback invoked when the user quits.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithOnComplete sets the callback invoked when a completed job auto-hides.
func WithOnComplete(fn func()) Option {
	return func(t *TUI) {
		t.onComplete = fn
	}
}

// WithOnDismiss sets the callback invoked when the indicator is dismissed.
func WithOnDismiss(fn func()) Option {
	return func(t *TUI) {
		t.onDismiss = fn
	}
}

// WithQuitOnComplete makes the TUI exit after the first completed job hides.
func WithQuitOnComplete(quit bool) Option {
	return func(t *TUI) {
		t.quitOnComplete = quit
	}
}

// Hooks returns engine hooks that report back to this TUI. Pass them to
// reconcile.WithHooks when building the engine.
func (t *TUI) Hooks() reconcile.Hooks {
	return reconcile.Hooks{
		OnComplete: func() {
			t.signals.completed = true
			if t.onComplete != nil {
				t.onComplete()
			}
		},
		OnDismiss: func() {
			t.signals.dismissed = true
			if t.onDismiss != nil {
				t.onDismiss()
			}
		},
	}
}

// Run starts the engine and the TUI and blocks until the TUI exits. The
// engine is closed on return.
func (t *TUI) Run(engine *reconcile.Engine) error {
	defer engine.Close()

	m := newModel(t.queue, engine, t.signals, t.onQuit, t.quitOnComplete)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
