package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/beacon/internal/config"
)

var version = "dev"

// loadConfig loads the layered config and applies global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed(FlagLogDir) {
		cfg.Paths.LogDir = viper.GetString(FlagLogDir)
	}
	return cfg, nil
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	viper.SetEnvPrefix("BEACON")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "beacon",
		Short: "Live status indicator for assistant coding sessions",
		Long: `beacon subscribes to a progress feed published by an assistant
orchestrator and reconciles it into a single status indicator: idle,
thinking, coding, complete and hidden. When a frame names a session,
beacon fetches that session's context envelope and shows it alongside.

It can also serve a compatible feed, replay a demo job, and publish frames
for scripting.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}
		},
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .beacon/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogDir, "", "Directory for the TUI debug log")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("beacon %s\n", version)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the live status indicator",
		Long: `Subscribe to the progress feed and show the status indicator.

The feed URL selects the transport: http(s) for Server-Sent Events,
ws(s) for WebSocket. The terminal UI starts automatically when stdout is a
terminal; otherwise one line is printed per status change.

Use --demo to replay a scripted job without a feed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// demo is also a serve flag, so read it from this command's flag set.
			demoMode, _ := cmd.Flags().GetBool(FlagDemo)
			opts := watchOptions{
				TUI:  viper.GetBool(FlagTUI),
				Demo: demoMode,
				Once: viper.GetBool(FlagOnce),
			}
			if !cmd.Flags().Changed(FlagTUI) {
				opts.TUI = term.IsTerminal(int(os.Stdout.Fd()))
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed(FlagFeedURL) {
				cfg.Feed.URL = viper.GetString(FlagFeedURL)
			}
			if cmd.Flags().Changed(FlagToken) {
				cfg.Feed.Token = viper.GetString(FlagToken)
			}
			if cmd.Flags().Changed(FlagNoSnapshot) {
				cfg.Snapshot.Enabled = !viper.GetBool(FlagNoSnapshot)
			}
			if cmd.Flags().Changed(FlagAutoHideDelay) {
				cfg.Display.AutoHideDelay = viper.GetDuration(FlagAutoHideDelay)
			}
			if cmd.Flags().Changed(FlagMetricsAddr) {
				cfg.Metrics.Addr = viper.GetString(FlagMetricsAddr)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			return runWatch(cmd.Context(), cfg, opts, logger, logLevel)
		},
	}

	watchCmd.Flags().Bool(FlagTUI, false, "Enable terminal UI (default: on when stdout is a terminal)")
	watchCmd.Flags().Bool(FlagDemo, false, "Replay a scripted job instead of connecting to a feed")
	watchCmd.Flags().Bool(FlagOnce, false, "Exit after the first job completes")
	watchCmd.Flags().String(FlagFeedURL, config.DefaultFeedURL, "Progress feed URL (http(s) for SSE, ws(s) for WebSocket)")
	watchCmd.Flags().String(FlagToken, "", "Bearer token for the feed and snapshot endpoints")
	watchCmd.Flags().Bool(FlagNoSnapshot, false, "Do not fetch session snapshots")
	watchCmd.Flags().Duration(FlagAutoHideDelay, 0, "Delay between complete and hidden (default from config)")
	watchCmd.Flags().String(FlagMetricsAddr, "", "Serve Prometheus metrics on this address")

	watchCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a progress feed",
		Long: `Serve the observability feed: progress frames over SSE and WebSocket,
session snapshots from the sessions state file, and a publish endpoint.

Stops gracefully on SIGINT or SIGTERM. Use --demo to publish the demo job
in a loop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed(FlagAddr) {
				cfg.Server.Addr = viper.GetString(FlagAddr)
			}
			if cmd.Flags().Changed(FlagStateFile) {
				cfg.Server.StateFile = viper.GetString(FlagStateFile)
			}
			if cmd.Flags().Changed(FlagServerToken) {
				cfg.Server.Token, _ = cmd.Flags().GetString(FlagServerToken)
			}
			demoMode, _ := cmd.Flags().GetBool(FlagDemo)

			logger.Info("beacon serving",
				"version", version,
				"addr", cfg.Server.Addr,
				"state_file", cfg.Server.StateFile,
			)
			return runServe(cmd.Context(), cfg, demoMode, logger)
		},
	}

	serveCmd.Flags().String(FlagAddr, "", "Listen address (default from config)")
	serveCmd.Flags().String(FlagStateFile, "", "Sessions state file (default from config)")
	serveCmd.Flags().String(FlagServerToken, "", "Bearer token required on publish endpoints")
	serveCmd.Flags().Bool(FlagDemo, false, "Publish the demo job in a loop")

	serveCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	publishCmd := &cobra.Command{
		Use:   "publish [frame.json | '{...}' | -]",
		Short: "Publish one progress frame to a feed server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			server := "http://" + cfg.Server.Addr
			if cmd.Flags().Changed(FlagServer) {
				server = viper.GetString(FlagServer)
			}
			token := cfg.Server.Token
			if cmd.Flags().Changed(FlagServerToken) {
				token, _ = cmd.Flags().GetString(FlagServerToken)
			}

			frame, err := readFrameArg(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			result, err := publishFrame(cmd.Context(), nil, server, token, frame)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published to %d subscribers (%d dropped)\n", result.Delivered, result.Dropped)
			return nil
		},
	}

	publishCmd.Flags().String(FlagServer, "", "Feed server base URL (default: http://<server.addr>)")
	publishCmd.Flags().String(FlagServerToken, "", "Bearer token for the publish endpoint")

	publishCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(publishCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
