package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/npratt/beacon/internal/feedserver"
	"github.com/npratt/beacon/internal/progress"
	"github.com/npratt/beacon/internal/testutil"
)

func TestReadFrameArg(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.json")
	if err := os.WriteFile(path, []byte(testutil.CodingFrameJSON), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"stdin when empty", nil, testutil.ThinkingFrameJSON, testutil.ThinkingFrameJSON},
		{"stdin dash", []string{"-"}, testutil.CompleteFrameJSON, testutil.CompleteFrameJSON},
		{"inline json", []string{" " + testutil.ThinkingFrameJSON}, "", testutil.ThinkingFrameJSON},
		{"file", []string{path}, "", testutil.CodingFrameJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readFrameArg(tt.args, strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatalf("readFrameArg() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("readFrameArg() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := readFrameArg([]string{filepath.Join(dir, "missing.json")}, nil); err == nil {
		t.Error("missing file should error")
	}
}

func newFeedServer(t *testing.T, token string) (*feedserver.Server, *httptest.Server) {
	t.Helper()
	srv := feedserver.New(feedserver.Options{
		StateFile: filepath.Join(t.TempDir(), "missing.json"),
		Token:     token,
		Logger:    discardLogger(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestPublishFrame_DeliversToSubscribers(t *testing.T) {
	srv, ts := newFeedServer(t, "")
	frames, unsubscribe := srv.Hub().Subscribe()
	defer unsubscribe()

	result, err := publishFrame(context.Background(), ts.Client(), ts.URL, "", []byte(testutil.CodingFrameJSON))
	if err != nil {
		t.Fatalf("publishFrame() error = %v", err)
	}
	if result.Delivered != 1 || result.Dropped != 0 {
		t.Errorf("result = %+v, want 1 delivered", result)
	}

	select {
	case raw := <-frames:
		f, err := progress.DecodeFrame(raw)
		if err != nil {
			t.Fatalf("decode published frame: %v", err)
		}
		if f.Stage != "executing_code" {
			t.Errorf("stage = %q, want executing_code", f.Stage)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not receive the frame")
	}
}

func TestPublishFrame_Token(t *testing.T) {
	_, ts := newFeedServer(t, "secret")

	_, err := publishFrame(context.Background(), ts.Client(), ts.URL, "", []byte(testutil.ThinkingFrameJSON))
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("publish without token error = %v, want 401", err)
	}

	if _, err := publishFrame(context.Background(), ts.Client(), ts.URL, "secret", []byte(testutil.ThinkingFrameJSON)); err != nil {
		t.Errorf("publish with token error = %v", err)
	}
}

func TestPublishFrame_InvalidFrameNotSent(t *testing.T) {
	srv, ts := newFeedServer(t, "")
	frames, unsubscribe := srv.Hub().Subscribe()
	defer unsubscribe()

	_, err := publishFrame(context.Background(), ts.Client(), ts.URL, "", []byte(`{"stage":`))
	if !errors.Is(err, progress.ErrInvalidFrame) {
		t.Errorf("error = %v, want ErrInvalidFrame", err)
	}

	select {
	case raw := <-frames:
		t.Errorf("invalid frame reached subscribers: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	cfg := newServeConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, cfg, true, discardLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not stop after cancel")
	}
}
