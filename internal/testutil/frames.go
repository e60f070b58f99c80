package testutil

import (
	"encoding/json"

	"github.com/npratt/beacon/internal/progress"
)

// Wire payloads for the three-frame walkthrough used across packages.
const (
	ThinkingFrameJSON = `{"stage":"thinking","progress":0.1,"elapsed_s":5}`
	CodingFrameJSON   = `{"stage":"executing_code","progress":0.6,"elapsed_s":40,"indicators":{"coding":true}}`
	CompleteFrameJSON = `{"stage":"complete","progress":1.0,"elapsed_s":125}`
)

// SessionsStateJSON is a sessions state file with one envelope for session 42.
const SessionsStateJSON = `{
  "42": {
    "context_envelope": {
      "intent_summary": "Fix the login redirect",
      "summary_text": "Touching auth handlers",
      "working_set": ["internal/auth/login.go", "internal/auth/session.go"],
      "circles": [{"name": "auth", "files": ["internal/auth/login.go"], "reason": "edited"}],
      "git_history": "abc123 tweak redirect"
    }
  }
}`

// Frame builds a frame for the given stage.
func Frame(stage string, prog, elapsed float64) progress.Frame {
	return progress.Frame{Stage: stage, Progress: prog, ElapsedS: elapsed}
}

// WithSession returns f with session id set.
func WithSession(f progress.Frame, id int64) progress.Frame {
	f.SessionID = &id
	return f
}

// WithIndicators returns f with the given indicator flags.
func WithIndicators(f progress.Frame, thinking, coding bool) progress.Frame {
	f.Indicators = &progress.Indicators{Thinking: thinking, Coding: coding}
	return f
}

// MustJSON marshals v, panicking on failure.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Detail builds a session detail with an envelope and n telemetry events.
func Detail(id int64, intent string, n int) *progress.SessionDetail {
	evs := make([]progress.TelemetryEvent, n)
	for i := range evs {
		evs[i] = progress.TelemetryEvent{SessionID: id, EventType: "progress"}
	}
	return &progress.SessionDetail{
		SessionID: id,
		State:     &progress.SessionState{ContextEnvelope: &progress.Envelope{IntentSummary: intent}},
		Events:    evs,
	}
}
