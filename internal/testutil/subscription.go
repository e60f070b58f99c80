package testutil

import (
	"sync"

	"github.com/npratt/beacon/internal/feed"
)

// FakeSubscription records supervisor calls without opening anything. Its
// generation bookkeeping matches feed.Supervisor.
type FakeSubscription struct {
	mu            sync.Mutex
	gen           uint64
	active        bool
	state         feed.State
	Activations   int
	Deactivations int
}

// NewFakeSubscription creates an inactive subscription.
func NewFakeSubscription() *FakeSubscription {
	return &FakeSubscription{state: feed.StateDisconnected}
}

func (s *FakeSubscription) Activate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.active = true
	s.state = feed.StateDisconnected
	s.Activations++
	return s.gen
}

func (s *FakeSubscription) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.active = false
	s.state = feed.StateDisconnected
	s.Deactivations++
}

func (s *FakeSubscription) Accept(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && gen == s.gen
}

func (s *FakeSubscription) HandleOpened(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || gen != s.gen {
		return false
	}
	s.state = feed.StateConnected
	return true
}

func (s *FakeSubscription) HandleErrored(gen uint64, _ error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || gen != s.gen {
		return false
	}
	s.active = false
	s.state = feed.StateDisconnected
	return true
}

func (s *FakeSubscription) State() feed.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether a subscription is open.
func (s *FakeSubscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Generation returns the current generation.
func (s *FakeSubscription) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
