package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/npratt/beacon/internal/events"
)

// queueClosedMsg signals that the event queue was closed.
type queueClosedMsg struct{}

// waitForEvent creates a command that waits for the next event from the queue.
// Returns queueClosedMsg once the queue is closed.
func waitForEvent(q *events.Queue) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-q.Events():
			return eventMsg{event: ev}
		case <-q.Done():
			return queueClosedMsg{}
		}
	}
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case eventMsg:
		if m.apply(msg.event) {
			return m, m.quit()
		}
		return m, waitForEvent(m.queue)

	case queueClosedMsg:
		slog.Info("event queue closed, exiting TUI")
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

// handleKey processes keyboard input. Host actions are reduced directly since
// Update runs on the engine goroutine.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, m.quit()

	case "v":
		m.apply(events.NewVisibilityChanged(!m.vm.Visible))
		return m, nil

	case "s":
		m.apply(events.NewVisibilityChanged(true))
		return m, nil

	case "h":
		m.apply(events.NewVisibilityChanged(false))
		return m, nil

	case "d", "esc":
		m.apply(events.NewDismissed())
		return m, nil

	default:
		return m, nil
	}
}

// apply reduces ev and picks up any hook notifications. It reports whether
// the TUI should exit.
func (m *model) apply(ev events.Event) bool {
	m.vm = m.engine.Reduce(ev)

	quit := false
	if m.signals.completed {
		m.notice = "job complete"
		quit = m.quitOnComplete
	}
	if m.signals.dismissed {
		m.notice = "dismissed"
	}
	if m.vm.Visible && !m.signals.completed && !m.signals.dismissed {
		m.notice = ""
	}
	*m.signals = hostSignals{}
	return quit
}

func (m model) quit() tea.Cmd {
	if m.onQuit != nil {
		m.onQuit()
	}
	return tea.Quit
}
