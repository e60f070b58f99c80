package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose = "verbose"
	FlagConfig  = "config"
	FlagLogDir  = "log-dir"

	// Watch command flags
	FlagTUI           = "tui"
	FlagDemo          = "demo"
	FlagOnce          = "once"
	FlagFeedURL       = "feed-url"
	FlagToken         = "token"
	FlagNoSnapshot    = "no-snapshot"
	FlagAutoHideDelay = "auto-hide-delay"
	FlagMetricsAddr   = "metrics-addr"

	// Serve command flags
	FlagAddr        = "addr"
	FlagStateFile   = "state-file"
	FlagServerToken = "server-token"

	// Publish command flags
	FlagServer = "server"
)
