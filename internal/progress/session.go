package progress

// Circle is one discovery circle of the context envelope: a named group of
// files and the reason they were pulled into the working context.
type Circle struct {
	Name   string   `json:"name"`
	Files  []string `json:"files"`
	Reason string   `json:"reason"`
}

// Envelope is the richer working-context snapshot of a session.
type Envelope struct {
	IntentSummary string   `json:"intent_summary,omitempty"`
	SummaryText   string   `json:"summary_text,omitempty"`
	WorkingSet    []string `json:"working_set"`
	Circles       []Circle `json:"circles"`
	GitHistory    string   `json:"git_history,omitempty"`
	Entities      []string `json:"entities,omitempty"`
}

// SessionState is the subset of the stored session state the client reads.
type SessionState struct {
	ContextEnvelope *Envelope `json:"context_envelope,omitempty"`
}

// TelemetryEvent is one entry of a session's event ledger.
type TelemetryEvent struct {
	SessionID int64          `json:"session_id,omitempty"`
	EventType string         `json:"event_type"`
	Timestamp float64        `json:"timestamp,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// SessionDetail is the response body of the session snapshot endpoint.
type SessionDetail struct {
	SessionID int64            `json:"session_id"`
	State     *SessionState    `json:"state,omitempty"`
	Events    []TelemetryEvent `json:"events,omitempty"`
}

// Envelope returns the context envelope, or nil when the session has none yet.
func (d *SessionDetail) Envelope() *Envelope {
	if d == nil || d.State == nil {
		return nil
	}
	return d.State.ContextEnvelope
}

// EventCount returns the number of ledger events, or nil when the response
// carried no events list at all.
func (d *SessionDetail) EventCount() *int {
	if d == nil || d.Events == nil {
		return nil
	}
	n := len(d.Events)
	return &n
}
