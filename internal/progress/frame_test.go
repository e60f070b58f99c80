package progress

import (
	"errors"
	"testing"
)

func TestDecodeFrame_Valid(t *testing.T) {
	data := []byte(`{"stage":"executing_code","progress":0.6,"elapsed_s":40,"eta_seconds":12,"tokens":321,"message":"Running code...","indicators":{"coding":true},"session_id":42}`)

	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if f.Stage != "executing_code" {
		t.Errorf("Stage = %q, want %q", f.Stage, "executing_code")
	}
	if f.Progress != 0.6 {
		t.Errorf("Progress = %v, want 0.6", f.Progress)
	}
	if f.ElapsedS != 40 {
		t.Errorf("ElapsedS = %v, want 40", f.ElapsedS)
	}
	if f.ETASeconds == nil || *f.ETASeconds != 12 {
		t.Errorf("ETASeconds = %v, want 12", f.ETASeconds)
	}
	if f.Tokens == nil || *f.Tokens != 321 {
		t.Errorf("Tokens = %v, want 321", f.Tokens)
	}
	if !f.Flags().Coding || f.Flags().Thinking {
		t.Errorf("Flags = %+v, want coding only", f.Flags())
	}
	if f.SessionID == nil || *f.SessionID != 42 {
		t.Errorf("SessionID = %v, want 42", f.SessionID)
	}
}

func TestDecodeFrame_NullableFields(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"stage":"thinking","progress":null,"elapsed_s":null,"session_id":null,"message":null}`))
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if f.Progress != 0 || f.ElapsedS != 0 {
		t.Errorf("null numbers should decode to zero, got progress=%v elapsed=%v", f.Progress, f.ElapsedS)
	}
	if f.SessionID != nil {
		t.Error("null session_id should decode to no session")
	}
	if f.Flags() != (Indicators{}) {
		t.Errorf("missing indicators should be all false, got %+v", f.Flags())
	}
}

func TestDecodeFrame_VisualIndicatorsAlias(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Indicators
	}{
		{
			name: "alias only",
			data: `{"stage":"coding","visual_indicators":{"thinking":true,"coding":true}}`,
			want: Indicators{Thinking: true, Coding: true},
		},
		{
			name: "indicators wins over alias",
			data: `{"stage":"coding","indicators":{"thinking":true},"visual_indicators":{"coding":true}}`,
			want: Indicators{Thinking: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame([]byte(tt.data))
			if err != nil {
				t.Fatalf("DecodeFrame failed: %v", err)
			}
			if f.Flags() != tt.want {
				t.Errorf("Flags = %+v, want %+v", f.Flags(), tt.want)
			}
		})
	}
}

func TestDecodeFrame_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"not json", `data: nope`},
		{"array", `[1,2,3]`},
		{"missing stage", `{"progress":0.5}`},
		{"stage not string", `{"stage":7}`},
		{"progress above one", `{"stage":"thinking","progress":1.5}`},
		{"negative elapsed", `{"stage":"thinking","elapsed_s":-1}`},
		{"fractional tokens", `{"stage":"thinking","tokens":1.5}`},
		{"negative tokens", `{"stage":"thinking","tokens":-3}`},
		{"indicator not bool", `{"stage":"thinking","indicators":{"coding":"yes"}}`},
		{"session id string", `{"stage":"thinking","session_id":"abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("error should wrap ErrInvalidFrame, got %v", err)
			}
		})
	}
}

func TestSessionDetail_EnvelopeAndEventCount(t *testing.T) {
	var nilDetail *SessionDetail
	if nilDetail.Envelope() != nil {
		t.Error("nil detail should have no envelope")
	}
	if nilDetail.EventCount() != nil {
		t.Error("nil detail should have no event count")
	}

	d := &SessionDetail{SessionID: 1}
	if d.Envelope() != nil {
		t.Error("missing state should have no envelope")
	}
	if d.EventCount() != nil {
		t.Error("missing events should yield nil count")
	}

	d.State = &SessionState{ContextEnvelope: &Envelope{IntentSummary: "fix login"}}
	d.Events = []TelemetryEvent{}
	if d.Envelope() == nil || d.Envelope().IntentSummary != "fix login" {
		t.Errorf("Envelope = %+v, want intent summary", d.Envelope())
	}
	if c := d.EventCount(); c == nil || *c != 0 {
		t.Errorf("EventCount = %v, want 0", c)
	}
}
