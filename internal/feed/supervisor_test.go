package feed

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/npratt/beacon/internal/events"
)

// scriptSource hands out streams that replay a fixed list of payloads and
// then end with endErr. A nil endErr blocks until the stream is cancelled.
type scriptSource struct {
	mu       sync.Mutex
	payloads []string
	endErr   error
	openErr  error
	opens    int
}

func (s *scriptSource) Open(ctx context.Context) (Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.openErr != nil {
		return nil, s.openErr
	}
	ch := make(chan string, len(s.payloads))
	for _, p := range s.payloads {
		ch <- p
	}
	close(ch)
	return &scriptStream{ctx: ctx, ch: ch, endErr: s.endErr}, nil
}

func (s *scriptSource) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

type scriptStream struct {
	ctx    context.Context
	ch     chan string
	endErr error
}

func (s *scriptStream) Recv() ([]byte, error) {
	if p, ok := <-s.ch; ok {
		return []byte(p), nil
	}
	if s.endErr != nil {
		return nil, s.endErr
	}
	<-s.ctx.Done()
	return nil, s.ctx.Err()
}

func (s *scriptStream) Close() error { return nil }

func nextEvent(t *testing.T, q *events.Queue) events.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, ok := q.Next(ctx)
	if !ok {
		t.Fatal("timed out waiting for event")
	}
	return ev
}

func expectNoEvent(t *testing.T, q *events.Queue) {
	t.Helper()
	select {
	case ev := <-q.Events():
		t.Fatalf("unexpected event %s", ev.Type())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSupervisor_FramesThenProducerClose(t *testing.T) {
	src := &scriptSource{
		payloads: []string{
			`{"stage":"thinking","progress":0.1}`,
			`not json`,
			`{"progress":0.2}`,
			`{"stage":"writing","progress":0.4}`,
		},
		endErr: ErrStreamClosed,
	}
	q := events.NewQueue(16)
	sup := NewSupervisor(src, q, nil)
	defer sup.Close()

	gen := sup.Activate()

	opened, ok := nextEvent(t, q).(*events.ConnectionOpenedEvent)
	if !ok {
		t.Fatal("expected ConnectionOpenedEvent first")
	}
	if opened.Generation != gen || opened.SubscriptionID == "" {
		t.Errorf("opened = %+v, want generation %d and a subscription id", opened, gen)
	}
	if !sup.HandleOpened(gen) {
		t.Fatal("HandleOpened rejected live generation")
	}
	if sup.State() != StateConnected {
		t.Errorf("state = %s, want connected", sup.State())
	}

	// Malformed payloads are skipped without ending the stream.
	for _, wantStage := range []string{"thinking", "writing"} {
		fr, ok := nextEvent(t, q).(*events.FrameReceivedEvent)
		if !ok {
			t.Fatalf("expected FrameReceivedEvent for %s", wantStage)
		}
		if fr.Frame.Stage != wantStage {
			t.Errorf("stage = %q, want %q", fr.Frame.Stage, wantStage)
		}
	}

	errEv, ok := nextEvent(t, q).(*events.ConnectionErroredEvent)
	if !ok {
		t.Fatal("expected ConnectionErroredEvent after producer close")
	}
	if !errors.Is(errEv.Err, ErrStreamClosed) {
		t.Errorf("err = %v, want ErrStreamClosed", errEv.Err)
	}
	if !sup.HandleErrored(errEv.Generation, errEv.Err) {
		t.Fatal("HandleErrored rejected live generation")
	}
	if sup.State() != StateDisconnected || sup.Active() {
		t.Errorf("after error: state=%s active=%v", sup.State(), sup.Active())
	}

	// No retry.
	time.Sleep(50 * time.Millisecond)
	if n := src.openCount(); n != 1 {
		t.Errorf("opens = %d, want 1", n)
	}
}

func TestSupervisor_OpenFailure(t *testing.T) {
	src := &scriptSource{openErr: io.ErrUnexpectedEOF}
	q := events.NewQueue(4)
	sup := NewSupervisor(src, q, nil)
	defer sup.Close()

	gen := sup.Activate()
	ev, ok := nextEvent(t, q).(*events.ConnectionErroredEvent)
	if !ok {
		t.Fatal("expected ConnectionErroredEvent")
	}
	if ev.Generation != gen || !errors.Is(ev.Err, io.ErrUnexpectedEOF) {
		t.Errorf("event = %+v", ev)
	}
}

func TestSupervisor_ReactivateRejectsStaleGeneration(t *testing.T) {
	src := &scriptSource{payloads: []string{`{"stage":"thinking"}`}}
	q := events.NewQueue(16)
	sup := NewSupervisor(src, q, nil)
	defer sup.Close()

	first := sup.Activate()
	second := sup.Activate()
	if second <= first {
		t.Fatalf("generation did not advance: %d -> %d", first, second)
	}
	if sup.Accept(first) {
		t.Error("Accept(first) = true after re-activation")
	}
	if !sup.Accept(second) {
		t.Error("Accept(second) = false")
	}
	if sup.HandleOpened(first) {
		t.Error("HandleOpened accepted stale generation")
	}
	if sup.HandleErrored(first, io.EOF) {
		t.Error("HandleErrored accepted stale generation")
	}
	if !sup.Active() {
		t.Error("stale error closed the live subscription")
	}

	// Events from the first reader may precede the second open.
	deadline := time.After(2 * time.Second)
	for {
		var ev events.Event
		select {
		case ev = <-q.Events():
		case <-deadline:
			t.Fatal("timed out waiting for the second generation to open")
		}
		if opened, ok := ev.(*events.ConnectionOpenedEvent); ok && opened.Generation == second {
			break
		}
	}
	if n := src.openCount(); n < 1 {
		t.Errorf("opens = %d", n)
	}
}

func TestSupervisor_DeactivateIdempotent(t *testing.T) {
	src := &scriptSource{}
	q := events.NewQueue(16)
	sup := NewSupervisor(src, q, nil)

	gen := sup.Activate()
	nextEvent(t, q) // opened
	sup.HandleOpened(gen)

	sup.Deactivate()
	sup.Deactivate()

	if sup.Active() || sup.State() != StateDisconnected {
		t.Errorf("after deactivate: active=%v state=%s", sup.Active(), sup.State())
	}
	if sup.Accept(gen) {
		t.Error("Accept(gen) = true after deactivate")
	}

	// The cancelled reader exits without posting an error.
	sup.Close()
	expectNoEvent(t, q)
}

func TestSupervisor_CloseUnblocksFullQueue(t *testing.T) {
	src := &scriptSource{payloads: []string{
		`{"stage":"thinking"}`, `{"stage":"thinking"}`, `{"stage":"thinking"}`,
	}}
	q := events.NewQueue(1)
	sup := NewSupervisor(src, q, nil)
	sup.Activate()

	done := make(chan struct{})
	go func() {
		sup.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a full queue")
	}
}
