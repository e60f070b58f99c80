package testutil

import (
	"context"
	"sync"

	"github.com/npratt/beacon/internal/feed"
)

// ScriptedSource is a feed.Source driven by the test. Every Open creates a new
// stream; Push and End act on the most recent one.
type ScriptedSource struct {
	mu      sync.Mutex
	OpenErr error
	opens   int
	current *scriptedStream
	opened  chan struct{}
}

// NewScriptedSource creates a scripted source.
func NewScriptedSource() *ScriptedSource {
	return &ScriptedSource{opened: make(chan struct{}, 16)}
}

// Open implements feed.Source.
func (s *ScriptedSource) Open(ctx context.Context) (feed.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	select {
	case s.opened <- struct{}{}:
	default:
	}
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	st := &scriptedStream{ctx: ctx, ch: make(chan item, 64)}
	s.current = st
	return st, nil
}

// Opened is signalled on every Open call.
func (s *ScriptedSource) Opened() <-chan struct{} {
	return s.opened
}

// Opens returns how many times Open was called.
func (s *ScriptedSource) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Push delivers a raw payload on the current stream.
func (s *ScriptedSource) Push(payload string) {
	s.mu.Lock()
	st := s.current
	s.mu.Unlock()
	if st != nil {
		st.ch <- item{data: []byte(payload)}
	}
}

// End makes the current stream's next Recv fail with err.
func (s *ScriptedSource) End(err error) {
	s.mu.Lock()
	st := s.current
	s.mu.Unlock()
	if st != nil {
		st.ch <- item{err: err}
	}
}

type item struct {
	data []byte
	err  error
}

type scriptedStream struct {
	ctx context.Context
	ch  chan item
}

func (s *scriptedStream) Recv() ([]byte, error) {
	select {
	case it := <-s.ch:
		return it.data, it.err
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

func (s *scriptedStream) Close() error { return nil }
