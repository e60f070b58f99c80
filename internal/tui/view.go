package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/npratt/beacon/internal/stage"
	"github.com/npratt/beacon/internal/viewmodel"
)

const (
	minWidth = 30
	// maxCircles is the number of discovery circles listed.
	maxCircles = 4
)

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth {
		return "Terminal too small"
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderDivider())
	if m.vm.Visible {
		sections = append(sections, m.renderBody())
	} else {
		sections = append(sections, styles.StatusHidden.Render("indicator hidden"))
	}
	sections = append(sections, m.renderDivider())
	sections = append(sections, m.renderFooter())

	content := strings.Join(sections, "\n")

	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderHeader renders the status badge and connection state.
func (m model) renderHeader() string {
	left := styles.Title.Render("beacon") + "  " + m.renderStatus()

	var conn string
	if m.vm.Connected() {
		conn = styles.Connected.Render("● connected")
	} else {
		conn = styles.Disconnected.Render("○ disconnected")
	}

	gap := safeWidth(m.innerWidth() - lipgloss.Width(left) - lipgloss.Width(conn))
	return left + strings.Repeat(" ", gap) + conn
}

// renderStatus renders the visual status with its animation.
func (m model) renderStatus() string {
	switch m.vm.Status {
	case stage.StatusThinking:
		return m.spinner.View() + " " + styles.StatusThinking.Render("Thinking")
	case stage.StatusCoding:
		return m.spinner.View() + " " + styles.StatusCoding.Render("Coding")
	case stage.StatusComplete:
		return styles.StatusComplete.Render("✓ Complete")
	case stage.StatusHidden:
		return styles.StatusHidden.Render("Hidden")
	default:
		return styles.StatusIdle.Render("Idle")
	}
}

// renderBody renders the frame fields and the session snapshot.
func (m model) renderBody() string {
	vm := m.vm
	var lines []string

	stageLine := "Stage: " + styles.Stage.Render(orDash(vm.Stage))
	if vm.ComplexityLabel != "" {
		stageLine += "  " + styles.Detail.Render("("+vm.ComplexityLabel+")")
	}
	lines = append(lines, stageLine)

	if vm.Message != "" {
		lines = append(lines, styles.Message.Render(truncate(vm.Message, m.innerWidth())))
	}

	bar := m.bar.ViewAs(float64(viewmodel.Percentage(vm.Progress)) / 100)
	if vm.Status == stage.StatusComplete {
		lines = append(lines, bar+" "+styles.Complete.Render(vm.PercentLabel()))
	} else {
		lines = append(lines, bar+" "+vm.PercentLabel())
	}

	lines = append(lines, styles.Detail.Render(timingLine(vm)))
	lines = append(lines, styles.Detail.Render("Activity: "+vm.IndicatorLabel()))

	if s := sessionLine(vm); s != "" {
		lines = append(lines, styles.Detail.Render(s))
	}
	lines = append(lines, m.renderEnvelope()...)

	return strings.Join(lines, "\n")
}

// renderEnvelope renders the context envelope of the current session.
func (m model) renderEnvelope() []string {
	env := m.vm.Envelope
	if env == nil {
		return nil
	}

	var lines []string
	if env.IntentSummary != "" {
		lines = append(lines, styles.Intent.Render(truncate("Intent: "+env.IntentSummary, m.innerWidth())))
	}
	if len(env.WorkingSet) > 0 {
		lines = append(lines, styles.Detail.Render(fmt.Sprintf("Working set: %d files", len(env.WorkingSet))))
	}
	for i, c := range env.Circles {
		if i == maxCircles {
			lines = append(lines, styles.Detail.Render(fmt.Sprintf("  +%d more", len(env.Circles)-maxCircles)))
			break
		}
		lines = append(lines, styles.Circle.Render(fmt.Sprintf("  %s (%d)", c.Name, len(c.Files))))
	}
	return lines
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider() string {
	return styles.Divider.Render(strings.Repeat("─", m.innerWidth()))
}

// renderFooter renders key hints and the last hook notice.
func (m model) renderFooter() string {
	var hints string
	if m.vm.Visible {
		hints = "h: hide  d: dismiss  q: quit"
	} else {
		hints = "s: show  q: quit"
	}
	footer := styles.Footer.Render(hints)
	if m.notice != "" {
		footer += "  " + styles.Notice.Render(m.notice)
	}
	return footer
}

func (m model) innerWidth() int {
	// Border (2) and padding (2)
	return safeWidth(m.width - 4)
}

// timingLine formats elapsed time, remaining time and token count.
func timingLine(vm viewmodel.ViewModel) string {
	parts := []string{"Elapsed " + vm.ElapsedLabel()}
	if eta := vm.ETALabel(); eta != "" {
		parts = append(parts, "ETA "+eta)
	}
	if vm.Tokens != nil {
		parts = append(parts, strconv.Itoa(*vm.Tokens)+" tokens")
	}
	return strings.Join(parts, " · ")
}

// sessionLine formats the session id and event count, or "" without a session.
func sessionLine(vm viewmodel.ViewModel) string {
	if vm.SessionID == nil {
		return ""
	}
	s := fmt.Sprintf("Session %d", *vm.SessionID)
	if vm.EventCount != nil {
		s += fmt.Sprintf(" · %d events", *vm.EventCount)
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to width runes, adding an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// safeWidth ensures width is non-negative.
func safeWidth(w int) int {
	if w < 0 {
		return 0
	}
	return w
}
