package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// SSESource reads frames from a text/event-stream endpoint. Each event's
// data lines, joined with newlines, form one payload.
type SSESource struct {
	url    string
	token  string
	client *http.Client
}

// streamTransport bounds connection setup and header arrival by timeout
// while leaving the response body unbounded.
func streamTransport(timeout time.Duration) http.RoundTripper {
	if timeout <= 0 {
		return http.DefaultTransport
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout
	return t
}

// NewSSESource creates an SSE source for url.
func NewSSESource(url string, opts Options) *SSESource {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Transport: streamTransport(opts.DialTimeout)}
	}
	return &SSESource{url: url, token: opts.Token, client: client}
}

// Open issues the GET request and returns once response headers arrive.
func (s *SSESource) Open(ctx context.Context) (Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s failed: %s", s.url, resp.Status)
	}
	return &sseStream{body: resp.Body, reader: bufio.NewReader(resp.Body)}, nil
}

type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
}

// Recv returns the data of the next event that has any. Events without data
// lines and comment lines are skipped.
func (s *sseStream) Recv() ([]byte, error) {
	var dataLines []string
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// An event not terminated by a blank line is incomplete and dropped.
				return nil, ErrStreamClosed
			}
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if len(dataLines) == 0 {
				continue
			}
			return []byte(strings.Join(dataLines, "\n")), nil
		case strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
