// Package progress defines the wire data model shared by the progress feed
// and the session snapshot endpoint.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidFrame is returned when a feed payload is not a valid progress frame.
var ErrInvalidFrame = errors.New("invalid progress frame")

// Indicators are the boolean activity hints carried by a frame.
type Indicators struct {
	Thinking bool `json:"thinking"`
	Coding   bool `json:"coding"`
}

// Frame is one message from the progress feed describing the current state
// of the remote job. Frames are immutable once received.
type Frame struct {
	Stage      string      `json:"stage"`
	Progress   float64     `json:"progress"`
	ElapsedS   float64     `json:"elapsed_s"`
	ETASeconds *float64    `json:"eta_seconds,omitempty"`
	Tokens     *int        `json:"tokens,omitempty"`
	Message    string      `json:"message,omitempty"`
	Indicators *Indicators `json:"indicators,omitempty"`
	SessionID  *int64      `json:"session_id,omitempty"`

	// Fields emitted by the orchestrator that the client only passes through.
	VisualState     string         `json:"visual_state,omitempty"`
	ComplexityLabel string         `json:"complexity_label,omitempty"`
	ComplexityScore *float64       `json:"complexity_score,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Timestamp       float64        `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts the orchestrator's "visual_indicators" key as an
// alias for "indicators". When both are present "indicators" wins.
func (f *Frame) UnmarshalJSON(data []byte) error {
	type plain Frame
	var aux struct {
		plain
		VisualIndicators *Indicators `json:"visual_indicators"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = Frame(aux.plain)
	if f.Indicators == nil {
		f.Indicators = aux.VisualIndicators
	}
	return nil
}

// Flags returns the frame's indicators, treating a missing object as all false.
func (f Frame) Flags() Indicators {
	if f.Indicators == nil {
		return Indicators{}
	}
	return *f.Indicators
}

// DecodeFrame validates a raw feed payload against the frame schema and
// decodes it. Errors wrap ErrInvalidFrame.
func DecodeFrame(data []byte) (Frame, error) {
	if err := ValidateFrame(data); err != nil {
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return f, nil
}

// ValidateFrame checks a raw payload against the frame schema without decoding it.
func ValidateFrame(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidFrame)
	}
	result, err := frameSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidFrame, strings.Join(msgs, "; "))
	}
	return nil
}
