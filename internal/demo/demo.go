// Package demo provides a fixed-timer progress feed for trying the client
// without a producer: a thinking phase, a coding phase, then complete.
package demo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/npratt/beacon/internal/feed"
	"github.com/npratt/beacon/internal/progress"
)

const (
	// DefaultPhaseDuration is the length of each of the two phases.
	DefaultPhaseDuration = 2 * time.Second

	// ticksPerPhase is how many frames each phase emits.
	ticksPerPhase = 4
)

// Source is a feed.Source that replays a scripted job. Every Open starts
// the script from the beginning.
type Source struct {
	phase     time.Duration
	sessionID *int64
}

// NewSource creates a demo source. A zero phase uses DefaultPhaseDuration and
// a zero sessionID sends frames without a session.
func NewSource(phase time.Duration, sessionID int64) *Source {
	if phase <= 0 {
		phase = DefaultPhaseDuration
	}
	s := &Source{phase: phase}
	if sessionID != 0 {
		s.sessionID = &sessionID
	}
	return s
}

// Open starts the script.
func (s *Source) Open(ctx context.Context) (feed.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	interval := s.interval()
	return &stream{
		ctx:      ctx,
		src:      s,
		interval: interval,
		ticker:   time.NewTicker(interval),
	}, nil
}

// Frames returns the full script in order.
func (s *Source) Frames() []progress.Frame {
	frames := make([]progress.Frame, 0, 2*ticksPerPhase+1)
	for i := 0; i <= 2*ticksPerPhase; i++ {
		frames = append(frames, s.frame(i))
	}
	return frames
}

// Replay plays the script into publish over and over, waiting pause between
// runs, until ctx ends or publish fails.
func (s *Source) Replay(ctx context.Context, pause time.Duration, publish func([]byte) error) error {
	for {
		if err := s.play(ctx, publish); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}

func (s *Source) play(ctx context.Context, publish func([]byte) error) error {
	st, err := s.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	for i := 0; i <= 2*ticksPerPhase; i++ {
		raw, err := st.Recv()
		if err != nil {
			return err
		}
		if err := publish(raw); err != nil {
			return err
		}
	}
	return nil
}

// interval is the time between frames, never below time.NewTicker's minimum.
func (s *Source) interval() time.Duration {
	return max(s.phase/ticksPerPhase, time.Nanosecond)
}

func (s *Source) frame(i int) progress.Frame {
	total := 2 * ticksPerPhase
	interval := s.interval()
	f := progress.Frame{
		Progress:  float64(i) / float64(total),
		ElapsedS:  (time.Duration(i) * interval).Seconds(),
		SessionID: s.sessionID,
	}
	remaining := (time.Duration(total-i) * interval).Seconds()
	f.ETASeconds = &remaining

	switch {
	case i >= total:
		f.Stage = "complete"
		f.Message = "Done"
		f.Indicators = &progress.Indicators{}
		f.ETASeconds = nil
	case i >= ticksPerPhase:
		f.Stage = "writing"
		f.Message = "Writing changes"
		f.Indicators = &progress.Indicators{Coding: true}
	default:
		f.Stage = "thinking"
		f.Message = "Planning"
		f.Indicators = &progress.Indicators{Thinking: true}
	}
	return f
}

type stream struct {
	ctx      context.Context
	src      *Source
	interval time.Duration
	ticker   *time.Ticker
	next     int
}

// Recv returns the first frame immediately and one per tick after that. Once
// the script is done it blocks until the context ends, like an idle producer.
func (s *stream) Recv() ([]byte, error) {
	if s.next > 2*ticksPerPhase {
		<-s.ctx.Done()
		return nil, s.ctx.Err()
	}
	if s.next > 0 {
		select {
		case <-s.ticker.C:
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		}
	}
	f := s.src.frame(s.next)
	s.next++
	return json.Marshal(f)
}

func (s *stream) Close() error {
	s.ticker.Stop()
	return nil
}
