package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/npratt/beacon/internal/events"
)

// TempDir creates a temporary directory and returns it along with a cleanup function.
// The cleanup function removes the directory and all its contents.
func TempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "beacon-test-*")
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }
}

// WriteFile writes content to a file in the given directory.
// It creates parent directories as needed and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
// It fails the test if the file cannot be read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

// SetupTestDir creates a test directory with an empty .beacon directory.
// Returns the directory path and cleanup function.
func SetupTestDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, cleanup := TempDir(t)

	if err := os.MkdirAll(filepath.Join(dir, ".beacon"), 0755); err != nil {
		cleanup()
		t.Fatal(err)
	}

	return dir, cleanup
}

// NextEvent waits up to two seconds for the next queued event.
func NextEvent(t *testing.T, q *events.Queue) events.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, ok := q.Next(ctx)
	if !ok {
		t.Fatal("timed out waiting for event")
	}
	return ev
}

// NextEventOf waits for the next event of type T, failing on any other type.
func NextEventOf[T events.Event](t *testing.T, q *events.Queue) T {
	t.Helper()
	ev := NextEvent(t, q)
	typed, ok := ev.(T)
	if !ok {
		var zero T
		t.Fatalf("expected %T, got %T (%s)", zero, ev, ev.Type())
	}
	return typed
}

// ExpectNoEvent fails if an event arrives within d.
func ExpectNoEvent(t *testing.T, q *events.Queue, d time.Duration) {
	t.Helper()
	select {
	case ev := <-q.Events():
		t.Fatalf("unexpected event %s", ev.Type())
	case <-time.After(d):
	}
}
