package stage

import (
	"testing"

	"github.com/npratt/beacon/internal/progress"
)

func frame(stage string, thinking, coding bool) progress.Frame {
	return progress.Frame{
		Stage:      stage,
		Indicators: &progress.Indicators{Thinking: thinking, Coding: coding},
	}
}

func TestClassify_RecognizedStages(t *testing.T) {
	tests := []struct {
		stage string
		want  Status
	}{
		{"complete", StatusComplete},
		{"compressing", StatusThinking},
		{"invoking_assistant", StatusThinking},
		{"thinking", StatusThinking},
		{"THINKING", StatusThinking},
		{"writing", StatusCoding},
		{"tool_execution", StatusCoding},
		{"executing_code", StatusCoding},
		{"summarizing", StatusCoding},
		{"executing", StatusCoding},
		{"Executing", StatusCoding},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			got, ok := Classify(progress.Frame{Stage: tt.stage})
			if !ok {
				t.Fatal("expected a classification")
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.stage, got, tt.want)
			}
		})
	}
}

func TestClassify_CompleteIgnoresIndicators(t *testing.T) {
	for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}} {
		got, ok := Classify(frame("complete", flags[0], flags[1]))
		if !ok || got != StatusComplete {
			t.Errorf("indicators %v: got %q, want complete", flags, got)
		}
	}
}

func TestClassify_CompleteIsCaseSensitive(t *testing.T) {
	// Only the exact label ends a job; other spellings fall through to indicators.
	got, ok := Classify(frame("Complete", true, false))
	if !ok || got != StatusThinking {
		t.Errorf("got %q, want thinking from indicator fallback", got)
	}
}

func TestClassify_StageBeatsIndicators(t *testing.T) {
	got, _ := Classify(frame("thinking", false, true))
	if got != StatusThinking {
		t.Errorf("got %q, want thinking", got)
	}
	got, _ = Classify(frame("writing", true, false))
	if got != StatusCoding {
		t.Errorf("got %q, want coding", got)
	}
}

func TestClassify_IndicatorFallback(t *testing.T) {
	tests := []struct {
		name     string
		thinking bool
		coding   bool
		want     Status
		wantOK   bool
	}{
		{"coding only", false, true, StatusCoding, true},
		{"both prefers coding", true, true, StatusCoding, true},
		{"thinking only", true, false, StatusThinking, true},
		{"neither", false, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(frame("transcribing", tt.thinking, tt.coding))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNext_UnknownStageKeepsPrevious(t *testing.T) {
	prevs := []Status{StatusIdle, StatusThinking, StatusCoding, StatusComplete, StatusHidden}
	for _, prev := range prevs {
		if got := Next(prev, frame("some_future_stage", false, false)); got != prev {
			t.Errorf("Next(%q) = %q, want unchanged", prev, got)
		}
		if got := Next(prev, progress.Frame{Stage: "another"}); got != prev {
			t.Errorf("Next(%q) without indicators = %q, want unchanged", prev, got)
		}
	}
}
