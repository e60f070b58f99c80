package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/npratt/beacon/internal/events"
	"github.com/npratt/beacon/internal/reconcile"
	"github.com/npratt/beacon/internal/viewmodel"
)

// Layout constants.
const (
	// minBarWidth is the narrowest progress bar rendered.
	minBarWidth = 10
	// maxBarWidth caps the progress bar on wide terminals.
	maxBarWidth = 60
)

// model is the bubbletea model for the TUI.
type model struct {
	// Event source and reducer
	queue   *events.Queue
	engine  *reconcile.Engine
	signals *hostSignals

	// Latest engine output
	vm viewmodel.ViewModel

	// Widgets
	spinner spinner.Model
	bar     progress.Model

	// Last hook notification shown in the footer
	notice string

	// UI state
	width  int
	height int

	// Callbacks
	onQuit         func()
	quitOnComplete bool
}

// eventMsg wraps a queued engine event for the bubbletea message system.
type eventMsg struct {
	event events.Event
}

// newModel starts the engine and creates a model showing its initial state.
func newModel(
	q *events.Queue,
	engine *reconcile.Engine,
	signals *hostSignals,
	onQuit func(),
	quitOnComplete bool,
) model {
	if signals == nil {
		signals = &hostSignals{}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = maxBarWidth

	return model{
		queue:          q,
		engine:         engine,
		signals:        signals,
		vm:             engine.Start(),
		spinner:        sp,
		bar:            bar,
		onQuit:         onQuit,
		quitOnComplete: quitOnComplete,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.queue),
		m.spinner.Tick,
	)
}

// Update, handleKey and apply are implemented in update.go
// View is implemented in view.go

// barWidth returns the progress bar width for a terminal width.
func barWidth(termWidth int) int {
	// Border (2) and padding (2)
	w := termWidth - 4
	return min(max(w, minBarWidth), maxBarWidth)
}
