package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/npratt/beacon/internal/progress"
)

// FakeFetcher returns canned session details. Fetches for ids listed in Hold
// block until Release is called for that id or the context ends.
type FakeFetcher struct {
	mu      sync.Mutex
	Details map[int64]*progress.SessionDetail
	Errors  map[int64]error
	Calls   []int64
	holds   map[int64]chan struct{}
}

// NewFakeFetcher creates a FakeFetcher with initialized maps.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		Details: make(map[int64]*progress.SessionDetail),
		Errors:  make(map[int64]error),
		holds:   make(map[int64]chan struct{}),
	}
}

// Hold makes fetches for id block until Release.
func (f *FakeFetcher) Hold(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holds[id] = make(chan struct{})
}

// Release unblocks fetches for id.
func (f *FakeFetcher) Release(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.holds[id]; ok {
		close(ch)
		delete(f.holds, id)
	}
}

// Fetch implements snapshot.Fetcher.
func (f *FakeFetcher) Fetch(ctx context.Context, id int64) (*progress.SessionDetail, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, id)
	hold := f.holds[id]
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errors[id]; err != nil {
		return nil, err
	}
	if d, ok := f.Details[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("no canned detail for session %d", id)
}

// CallCount returns the number of Fetch calls.
func (f *FakeFetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
