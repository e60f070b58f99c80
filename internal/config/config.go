// Package config provides configuration types and defaults for beacon.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

// DefaultFeedURL is where the observability server publishes progress.
const DefaultFeedURL = "http://127.0.0.1:8765/observability/progress"

// Config holds all configuration for beacon.
type Config struct {
	Feed        FeedConfig        `yaml:"feed" mapstructure:"feed"`
	Snapshot    SnapshotConfig    `yaml:"snapshot" mapstructure:"snapshot"`
	Display     DisplayConfig     `yaml:"display" mapstructure:"display"`
	Demo        DemoConfig        `yaml:"demo" mapstructure:"demo"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// FeedConfig holds progress feed subscription settings.
type FeedConfig struct {
	URL         string        `yaml:"url" mapstructure:"url"`                   // http(s) for SSE, ws(s) for WebSocket
	Token       string        `yaml:"token" mapstructure:"token"`               // Bearer token sent to the feed and snapshot endpoints
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"` // Connection setup limit (0 = none)
}

// SnapshotConfig holds session snapshot fetch settings.
type SnapshotConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per-fetch limit
}

// DisplayConfig holds indicator behaviour settings.
type DisplayConfig struct {
	AutoHideDelay time.Duration `yaml:"auto_hide_delay" mapstructure:"auto_hide_delay"` // Grace window between complete and hidden
	StartVisible  bool          `yaml:"start_visible" mapstructure:"start_visible"`
}

// DemoConfig holds settings for the fixed-timer demo feed.
type DemoConfig struct {
	PhaseDuration time.Duration `yaml:"phase_duration" mapstructure:"phase_duration"`
	SessionID     int64         `yaml:"session_id" mapstructure:"session_id"` // 0 = frames carry no session
}

// ServerConfig holds feed server settings.
type ServerConfig struct {
	Addr             string `yaml:"addr" mapstructure:"addr"`
	StateFile        string `yaml:"state_file" mapstructure:"state_file"`     // Session state JSON keyed by session id
	HistorySize      int    `yaml:"history_size" mapstructure:"history_size"` // Telemetry events kept per session
	SubscriberBuffer int    `yaml:"subscriber_buffer" mapstructure:"subscriber_buffer"`
	Token            string `yaml:"token" mapstructure:"token"` // Required on POST endpoints when set
}

// MetricsConfig holds Prometheus endpoint settings for the client.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // Empty disables the endpoint
}

// PathsConfig holds file paths.
type PathsConfig struct {
	LogDir string `yaml:"log_dir" mapstructure:"log_dir"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			URL:         DefaultFeedURL,
			DialTimeout: 10 * time.Second,
		},
		Snapshot: SnapshotConfig{
			Enabled: true,
			Timeout: 10 * time.Second,
		},
		Display: DisplayConfig{
			AutoHideDelay: 2 * time.Second,
			StartVisible:  true,
		},
		Demo: DemoConfig{
			PhaseDuration: 2 * time.Second,
		},
		Server: ServerConfig{
			Addr:             "127.0.0.1:8765",
			StateFile:        defaultStateFile(),
			HistorySize:      200,
			SubscriberBuffer: 64,
		},
		Paths: PathsConfig{
			LogDir: ".beacon",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

func defaultStateFile() string {
	home, err := userHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".voice-to-code", "sessions-state.json")
}

// Validate reports configuration values the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Feed.URL == "" {
		errs = append(errs, errors.New("feed.url is required"))
	} else if u, err := url.Parse(c.Feed.URL); err != nil {
		errs = append(errs, fmt.Errorf("feed.url: %w", err))
	} else {
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			errs = append(errs, fmt.Errorf("feed.url: unsupported scheme %q", u.Scheme))
		}
	}
	if c.Feed.DialTimeout < 0 {
		errs = append(errs, errors.New("feed.dial_timeout must not be negative"))
	}
	if c.Snapshot.Timeout < 0 {
		errs = append(errs, errors.New("snapshot.timeout must not be negative"))
	}
	if c.Display.AutoHideDelay <= 0 {
		errs = append(errs, errors.New("display.auto_hide_delay must be positive"))
	}
	if c.Demo.PhaseDuration <= 0 {
		errs = append(errs, errors.New("demo.phase_duration must be positive"))
	}
	if c.Server.HistorySize < 0 {
		errs = append(errs, errors.New("server.history_size must not be negative"))
	}
	if c.Server.SubscriberBuffer < 0 {
		errs = append(errs, errors.New("server.subscriber_buffer must not be negative"))
	}
	return errors.Join(errs...)
}
