package feedserver

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
)

// StateStore reads per-session state from a JSON file keyed by session id.
// The file is owned by an external session store and is re-read on every
// lookup.
type StateStore struct {
	path   string
	logger *slog.Logger
}

// NewStateStore creates a store for the file at path.
func NewStateStore(path string, logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{path: path, logger: logger}
}

// Lookup returns the raw state of a session. A missing or unreadable file
// behaves like an empty one.
func (s *StateStore) Lookup(sessionID int64) (json.RawMessage, bool) {
	if s.path == "" {
		return nil, false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("reading session state failed", "path", s.path, "error", err)
		}
		return nil, false
	}

	var states map[string]json.RawMessage
	if err := json.Unmarshal(data, &states); err != nil {
		s.logger.Warn("parsing session state failed", "path", s.path, "error", err)
		return nil, false
	}

	raw, ok := states[strconv.FormatInt(sessionID, 10)]
	if !ok || isEmptyState(raw) {
		return nil, false
	}
	return raw, true
}

func isEmptyState(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return true
	}
	return false
}
