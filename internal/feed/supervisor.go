package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/npratt/beacon/internal/events"
	"github.com/npratt/beacon/internal/metrics"
	"github.com/npratt/beacon/internal/progress"
)

// Sink receives the events produced by a subscription. *events.Queue
// satisfies it.
type Sink interface {
	Emit(ctx context.Context, ev events.Event) bool
}

// Supervisor owns at most one live subscription to a Source. Each
// subscription is stamped with a generation; events carrying an older
// generation are rejected by Accept.
//
// Activate, Deactivate and the Handle methods are meant to be called from
// the single goroutine that drains the event queue. The reader goroutines
// only post events.
type Supervisor struct {
	source Source
	sink   Sink
	logger *slog.Logger

	mu     sync.Mutex
	gen    uint64
	active bool
	state  State
	subID  string
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// NewSupervisor creates a supervisor. Nothing is opened until Activate.
func NewSupervisor(source Source, sink Sink, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		source: source,
		sink:   sink,
		logger: logger.With("component", "feed"),
		state:  StateDisconnected,
	}
}

// Activate opens a new subscription, force-closing any previous one first,
// and returns its generation.
func (s *Supervisor) Activate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.logger.Debug("closing stale subscription", "generation", s.gen, "subscription_id", s.subID)
	}
	s.closeLocked()

	s.gen++
	s.active = true
	s.subID = uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	gen, id := s.gen, s.subID
	s.logger.Debug("opening subscription", "generation", gen, "subscription_id", id)
	s.wg.Add(1)
	go s.read(ctx, gen, id)
	return gen
}

// Deactivate closes the current subscription. It is idempotent.
func (s *Supervisor) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.logger.Debug("closing subscription", "generation", s.gen, "subscription_id", s.subID)
		metrics.ObserveSubscription("closed")
	}
	s.closeLocked()
	// Invalidate anything already queued by the closed reader.
	s.gen++
}

func (s *Supervisor) closeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.active = false
	s.state = StateDisconnected
	s.subID = ""
}

// Close deactivates and waits for reader goroutines to exit.
func (s *Supervisor) Close() {
	s.Deactivate()
	s.wg.Wait()
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether a subscription is open or opening.
func (s *Supervisor) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Generation returns the generation of the current subscription.
func (s *Supervisor) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Accept reports whether an event stamped with gen belongs to the live
// subscription.
func (s *Supervisor) Accept(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acceptLocked(gen)
}

func (s *Supervisor) acceptLocked(gen uint64) bool {
	return s.active && gen == s.gen
}

// HandleOpened marks the subscription connected. It returns false and
// changes nothing when gen is stale.
func (s *Supervisor) HandleOpened(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.acceptLocked(gen) {
		return false
	}
	s.state = StateConnected
	metrics.ObserveSubscription("opened")
	s.logger.Info("feed connected", "generation", gen, "subscription_id", s.subID)
	return true
}

// HandleErrored closes the subscription after a transport error and marks it
// disconnected. There is no automatic retry. It returns false when gen is
// stale.
func (s *Supervisor) HandleErrored(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.acceptLocked(gen) {
		return false
	}
	if errors.Is(err, ErrStreamClosed) {
		s.logger.Info("feed closed by producer", "generation", gen, "subscription_id", s.subID)
	} else {
		s.logger.Warn("feed error", "generation", gen, "subscription_id", s.subID, "error", err)
	}
	metrics.ObserveSubscription("errored")
	s.closeLocked()
	return true
}

func (s *Supervisor) read(ctx context.Context, gen uint64, id string) {
	defer s.wg.Done()

	stream, err := s.source.Open(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.sink.Emit(ctx, events.NewConnectionErrored(gen, id, err))
		}
		return
	}
	defer stream.Close()

	if !s.sink.Emit(ctx, events.NewConnectionOpened(gen, id)) {
		return
	}

	for {
		data, err := stream.Recv()
		if err != nil {
			if ctx.Err() == nil {
				s.sink.Emit(ctx, events.NewConnectionErrored(gen, id, err))
			}
			return
		}

		frame, err := progress.DecodeFrame(data)
		if err != nil {
			metrics.ObserveFrame(metrics.FrameMalformed)
			s.logger.Warn("discarding malformed frame",
				"generation", gen,
				"subscription_id", id,
				"error", err,
				"bytes", len(data))
			continue
		}
		metrics.ObserveFrame(metrics.FrameAccepted)

		if !s.sink.Emit(ctx, events.NewFrameReceived(gen, frame)) {
			return
		}
	}
}
