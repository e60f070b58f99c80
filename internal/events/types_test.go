package events

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/npratt/beacon/internal/progress"
)

// TestEventInterfaceCompliance verifies all concrete event types implement Event.
func TestEventInterfaceCompliance(t *testing.T) {
	var _ Event = (*FrameReceivedEvent)(nil)
	var _ Event = (*ConnectionOpenedEvent)(nil)
	var _ Event = (*ConnectionErroredEvent)(nil)
	var _ Event = (*SnapshotUpdatedEvent)(nil)
	var _ Event = (*VisibilityChangedEvent)(nil)
	var _ Event = (*DismissedEvent)(nil)
	var _ Event = (*AutoHideElapsedEvent)(nil)

	var _ Event = (*BaseEvent)(nil)
}

func TestConstructors_TypeAndSource(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		event    Event
		wantType EventType
		wantSrc  string
	}{
		{"frame", NewFrameReceived(1, progress.Frame{Stage: "thinking"}), EventFrameReceived, SourceFeed},
		{"opened", NewConnectionOpened(1, "sub"), EventConnectionOpened, SourceFeed},
		{"errored", NewConnectionErrored(1, "sub", boom), EventConnectionErrored, SourceFeed},
		{"snapshot", NewSnapshotUpdated(2, 42, nil, boom), EventSnapshotUpdated, SourceSnapshot},
		{"visibility", NewVisibilityChanged(true), EventVisibilityChanged, SourceHost},
		{"dismissed", NewDismissed(), EventDismissed, SourceHost},
		{"autohide", NewAutoHideElapsed(3), EventAutoHideElapsed, SourceTimer},
	}

	before := time.Now()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", tt.event.Type(), tt.wantType)
			}
			if tt.event.Source() != tt.wantSrc {
				t.Errorf("Source() = %q, want %q", tt.event.Source(), tt.wantSrc)
			}
			if tt.event.Timestamp().Before(before.Add(-time.Second)) {
				t.Errorf("Timestamp() = %v, want recent", tt.event.Timestamp())
			}
		})
	}
}

func TestConstructors_Fields(t *testing.T) {
	boom := errors.New("boom")

	errored := NewConnectionErrored(7, "sub-7", boom)
	if errored.Generation != 7 || errored.SubscriptionID != "sub-7" || !errors.Is(errored.Err, boom) {
		t.Errorf("ConnectionErrored fields = %+v", errored)
	}

	detail := &progress.SessionDetail{SessionID: 42}
	snap := NewSnapshotUpdated(3, 42, detail, nil)
	if snap.Generation != 3 || snap.SessionID != 42 || snap.Detail != detail || snap.Err != nil {
		t.Errorf("SnapshotUpdated fields = %+v", snap)
	}

	if !NewVisibilityChanged(true).Visible {
		t.Error("VisibilityChanged.Visible = false, want true")
	}
	if NewAutoHideElapsed(9).Seq != 9 {
		t.Error("AutoHideElapsed.Seq not set")
	}
}

// TestJSONOmitsErrors verifies errors stay out of the serialized form.
func TestJSONOmitsErrors(t *testing.T) {
	data, err := json.Marshal(NewConnectionErrored(1, "sub", errors.New("secret failure")))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "secret failure") {
		t.Errorf("error leaked into JSON: %s", s)
	}
	if !strings.Contains(s, `"type":"connection.errored"`) {
		t.Errorf("missing type in JSON: %s", s)
	}
	if !strings.Contains(s, `"subscription_id":"sub"`) {
		t.Errorf("missing subscription_id in JSON: %s", s)
	}
}
