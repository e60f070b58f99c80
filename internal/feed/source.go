// Package feed owns the progress feed subscription: the transports that
// carry raw frames and the supervisor that opens, closes and stamps them.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnsupportedScheme is returned by NewSource for URLs that are not
	// http, https, ws or wss.
	ErrUnsupportedScheme = errors.New("unsupported feed scheme")

	// ErrStreamClosed is returned by Stream.Recv when the producer ends the
	// stream. The supervisor treats it like any other transport error.
	ErrStreamClosed = errors.New("feed stream closed by producer")
)

// Stream yields raw frame payloads in arrival order.
type Stream interface {
	// Recv blocks until the next payload is available.
	Recv() ([]byte, error)
	Close() error
}

// Source opens streams. Cancelling the context passed to Open must unblock
// a pending Recv on the returned stream.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Options configures the network sources.
type Options struct {
	// Token is sent as a bearer token when non-empty.
	Token string
	// DialTimeout bounds connection setup. Zero means no limit.
	DialTimeout time.Duration
	// HTTPClient overrides the client used by the SSE source.
	HTTPClient *http.Client
}

// NewSource picks a transport from the URL scheme.
func NewSource(rawURL string, opts Options) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewSSESource(u.String(), opts), nil
	case "ws", "wss":
		return NewWSSource(u.String(), opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
