// Package viewmodel provides the read-only state renderers display, plus the
// pure formatting helpers derived from it.
package viewmodel

import (
	"github.com/npratt/beacon/internal/feed"
	"github.com/npratt/beacon/internal/progress"
	"github.com/npratt/beacon/internal/stage"
)

// ViewModel is a value snapshot of the engine state. Renderers read it and
// never mutate it; the engine builds a new one for every event.
type ViewModel struct {
	Status     stage.Status // Visual state of the indicator
	Visible    bool         // Whether the host is showing the indicator
	Connection feed.State   // Feed connection state

	// Inputs from the latest accepted frame. Cleared on re-show.
	Stage           string
	Progress        float64
	ElapsedS        float64
	ETASeconds      *float64
	Tokens          *int
	Message         string
	Indicators      progress.Indicators
	SessionID       *int64
	ComplexityLabel string

	// From the latest accepted session snapshot.
	Envelope   *progress.Envelope
	EventCount *int
}

// Initial returns the view model before any event has been processed.
func Initial(visible bool) ViewModel {
	vm := ViewModel{
		Status:     stage.StatusIdle,
		Visible:    visible,
		Connection: feed.StateDisconnected,
	}
	if !visible {
		vm.Status = stage.StatusHidden
	}
	return vm
}

// PercentLabel formats the progress as "NN%".
func (vm ViewModel) PercentLabel() string {
	return PercentLabel(vm.Progress)
}

// ElapsedLabel formats the elapsed time.
func (vm ViewModel) ElapsedLabel() string {
	return FormatDuration(vm.ElapsedS)
}

// ETALabel formats the remaining time, or returns "" when unknown.
func (vm ViewModel) ETALabel() string {
	if vm.ETASeconds == nil {
		return ""
	}
	return FormatDuration(*vm.ETASeconds)
}

// IndicatorLabel describes the activity flags.
func (vm ViewModel) IndicatorLabel() string {
	return IndicatorLabel(vm.Indicators)
}

// Connected reports whether the feed is connected.
func (vm ViewModel) Connected() bool {
	return vm.Connection.Connected()
}
