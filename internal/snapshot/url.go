// Package snapshot fetches session detail alongside the progress feed. The
// Tracker keeps at most one fetch in flight and stamps each with a
// generation so results for superseded session ids are discarded.
package snapshot

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SessionURL derives the session detail URL from the feed URL: a trailing
// "/progress" segment is replaced by "/sessions/{id}", WebSocket schemes map
// to their HTTP equivalents, and any query or fragment is dropped.
func SessionURL(feedURL string, id int64) (string, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
		u.Scheme = strings.ToLower(u.Scheme)
	default:
		return "", fmt.Errorf("unsupported feed scheme %q", u.Scheme)
	}

	base := strings.TrimRight(u.Path, "/")
	base = strings.TrimSuffix(base, "/progress")
	u.Path = base + "/sessions/" + strconv.FormatInt(id, 10)
	u.RawPath = ""
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
