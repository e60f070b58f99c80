package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/observability/sessions/42":
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Authorization = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"session_id":42,"state":{"context_envelope":{"intent_summary":"fix login","working_set":["a.go"],"circles":[{"name":"auth","files":["a.go"],"reason":"touched"}]}},"events":[{"event_type":"started"},{"event_type":"tool"}]}`)
		case "/observability/sessions/43":
			fmt.Fprint(w, `{"session_id":43}`)
		case "/observability/sessions/500":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/observability/sessions/501":
			fmt.Fprint(w, `{not json`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"session not found"}`)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/observability/progress", "tok", srv.Client())

	t.Run("success", func(t *testing.T) {
		detail, err := f.Fetch(context.Background(), 42)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		env := detail.Envelope()
		if env == nil || env.IntentSummary != "fix login" {
			t.Fatalf("envelope = %+v", env)
		}
		if len(env.Circles) != 1 || env.Circles[0].Name != "auth" {
			t.Errorf("circles = %+v", env.Circles)
		}
		if n := detail.EventCount(); n == nil || *n != 2 {
			t.Errorf("event count = %v, want 2", n)
		}
	})

	t.Run("missing envelope is valid", func(t *testing.T) {
		detail, err := f.Fetch(context.Background(), 43)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if detail.Envelope() != nil {
			t.Errorf("expected nil envelope")
		}
		if detail.EventCount() != nil {
			t.Errorf("expected nil event count")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), 99)
		if !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		if _, err := f.Fetch(context.Background(), 500); err == nil {
			t.Error("expected error for 500")
		}
	})

	t.Run("bad json", func(t *testing.T) {
		if _, err := f.Fetch(context.Background(), 501); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := f.Fetch(ctx, 42); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
