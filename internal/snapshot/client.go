package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/npratt/beacon/internal/progress"
)

// ErrSessionNotFound is returned when the server does not know the session.
var ErrSessionNotFound = errors.New("session not found")

// maxBodyBytes caps how much of a snapshot response is read.
const maxBodyBytes = 4 << 20

// Fetcher retrieves session detail by id.
type Fetcher interface {
	Fetch(ctx context.Context, sessionID int64) (*progress.SessionDetail, error)
}

// HTTPFetcher fetches session detail from the endpoint next to the feed.
type HTTPFetcher struct {
	feedURL string
	token   string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher for the feed at feedURL. A nil client
// uses http.DefaultClient.
func NewHTTPFetcher(feedURL, token string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{feedURL: feedURL, token: token, client: client}
}

// Fetch issues GET <feed-base>/sessions/{id}.
func (f *HTTPFetcher) Fetch(ctx context.Context, sessionID int64) (*progress.SessionDetail, error) {
	target, err := SessionURL(f.feedURL, sessionID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrSessionNotFound)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s failed: %s", target, resp.Status)
	}

	var detail progress.SessionDetail
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&detail); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", sessionID, err)
	}
	return &detail, nil
}
