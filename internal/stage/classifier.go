// Package stage classifies raw progress frames into the small set of visual
// statuses a status indicator can show.
package stage

import (
	"strings"

	"github.com/npratt/beacon/internal/progress"
)

// Status is the visual state of the status indicator.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusThinking Status = "thinking"
	StatusCoding   Status = "coding"
	StatusComplete Status = "complete"
	StatusHidden   Status = "hidden"
)

// StageComplete is the raw stage label that ends a job.
const StageComplete = "complete"

var thinkingStages = map[string]bool{
	"compressing":        true,
	"invoking_assistant": true,
	"thinking":           true,
}

var codingStages = map[string]bool{
	"writing":        true,
	"tool_execution": true,
	"executing_code": true,
	"summarizing":    true,
	"executing":      true,
}

// Classify maps a frame to a visual status. Recognized stage names take
// priority over the indicator flags. ok is false when neither the stage nor
// the indicators carry enough information to pick a status.
func Classify(f progress.Frame) (status Status, ok bool) {
	if f.Stage == StageComplete {
		return StatusComplete, true
	}

	name := strings.ToLower(f.Stage)
	if thinkingStages[name] {
		return StatusThinking, true
	}
	if codingStages[name] {
		return StatusCoding, true
	}

	flags := f.Flags()
	switch {
	case flags.Coding:
		return StatusCoding, true
	case flags.Thinking:
		return StatusThinking, true
	}
	return "", false
}

// Next returns the status after applying f to prev. Frames without usable
// information leave prev unchanged.
func Next(prev Status, f progress.Frame) Status {
	if s, ok := Classify(f); ok {
		return s
	}
	return prev
}
