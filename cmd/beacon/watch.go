package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/npratt/beacon/internal/config"
	"github.com/npratt/beacon/internal/demo"
	"github.com/npratt/beacon/internal/events"
	"github.com/npratt/beacon/internal/feed"
	"github.com/npratt/beacon/internal/metrics"
	"github.com/npratt/beacon/internal/reconcile"
	"github.com/npratt/beacon/internal/shutdown"
	"github.com/npratt/beacon/internal/snapshot"
	"github.com/npratt/beacon/internal/tui"
	"github.com/npratt/beacon/internal/viewmodel"
)

// watchOptions are the watch settings that do not live in the config file.
type watchOptions struct {
	TUI  bool
	Demo bool
	Once bool
	// Out receives headless status lines. Nil means stdout.
	Out io.Writer
}

// runWatch subscribes to the feed and renders the indicator until the user
// quits, a signal arrives, or (with Once) the first job completes.
func runWatch(ctx context.Context, cfg *config.Config, opts watchOptions, logger *slog.Logger, level slog.Leveler) error {
	source, err := newFeedSource(cfg, opts.Demo)
	if err != nil {
		return err
	}

	if opts.TUI {
		tuiLog, err := SetupTUILogger(cfg.Paths.LogDir, level, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = tuiLog.Close() }()
		logger = tuiLog.Logger
		slog.SetDefault(logger)
	}

	logger.Info("beacon watching",
		"version", version,
		"feed_url", cfg.Feed.URL,
		"demo", opts.Demo,
		"tui", opts.TUI,
	)

	q := events.NewQueue(events.DefaultQueueSize)
	defer q.Close()

	sup := feed.NewSupervisor(source, q, logger)
	defer sup.Close()

	tracker := snapshot.NewTracker(newFetcher(cfg, opts.Demo), q, logger, cfg.Snapshot.Timeout)
	defer tracker.Close()

	stopMetrics := startMetricsServer(ctx, cfg.Metrics.Addr, logger)
	defer stopMetrics()

	engineOpts := []reconcile.Option{
		reconcile.WithAutoHideDelay(cfg.Display.AutoHideDelay),
		reconcile.WithVisible(cfg.Display.StartVisible),
		reconcile.WithLogger(logger),
	}

	if opts.TUI {
		ui := newTUI(q, opts.Once, logger)
		engine := reconcile.New(sup, tracker, q, append(engineOpts, reconcile.WithHooks(ui.Hooks()))...)
		return ui.Run(engine)
	}

	runCtx, cancel := signal.NotifyContext(ctx, shutdown.Signals...)
	defer cancel()

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	p := newPrinter(out)
	hooks := reconcile.Hooks{
		OnComplete: func() {
			p.notice("job complete")
			if opts.Once {
				cancel()
			}
		},
		OnDismiss: func() { p.notice("dismissed") },
	}
	engine := reconcile.New(sup, tracker, q, append(engineOpts, reconcile.WithHooks(hooks))...)

	err = reconcile.Run(runCtx, q, engine, p.render)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newTUI builds the terminal host. Completion and dismissal go to the log
// file since the screen belongs to the TUI.
func newTUI(q *events.Queue, once bool, logger *slog.Logger) *tui.TUI {
	return tui.New(q,
		tui.WithQuitOnComplete(once),
		tui.WithOnComplete(func() { logger.Info("job complete") }),
		tui.WithOnDismiss(func() { logger.Info("indicator dismissed") }),
	)
}

// newFeedSource returns the demo script or the configured feed transport.
func newFeedSource(cfg *config.Config, demoMode bool) (feed.Source, error) {
	if demoMode {
		return demo.NewSource(cfg.Demo.PhaseDuration, cfg.Demo.SessionID), nil
	}
	source, err := feed.NewSource(cfg.Feed.URL, feed.Options{
		Token:       cfg.Feed.Token,
		DialTimeout: cfg.Feed.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("feed source: %w", err)
	}
	return source, nil
}

// newFetcher returns the snapshot fetcher, or nil when snapshots are off.
// The demo feed has no server behind it.
func newFetcher(cfg *config.Config, demoMode bool) snapshot.Fetcher {
	if demoMode || !cfg.Snapshot.Enabled {
		return nil
	}
	return snapshot.NewHTTPFetcher(cfg.Feed.URL, cfg.Feed.Token, nil)
}

// startMetricsServer serves /metrics on addr until the returned stop
// function is called. An empty addr disables it.
func startMetricsServer(ctx context.Context, addr string, logger *slog.Logger) (stop func()) {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("metrics listening", "addr", addr)
		if err := shutdown.Run(metricsCtx, logger, shutdown.DefaultTimeout, srv); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// printer writes one line per visible change of the view model.
type printer struct {
	w    io.Writer
	now  func() time.Time
	last string
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, now: time.Now}
}

func (p *printer) render(vm viewmodel.ViewModel) {
	line := describe(vm)
	if line == p.last {
		return
	}
	p.last = line
	p.println(line)
}

func (p *printer) notice(msg string) {
	p.println(msg)
}

func (p *printer) println(s string) {
	_, _ = fmt.Fprintf(p.w, "[%s] %s\n", p.now().Format("15:04:05"), s)
}

// describe formats a view model as a single status line.
func describe(vm viewmodel.ViewModel) string {
	if !vm.Visible {
		return "hidden"
	}

	conn := "disconnected"
	if vm.Connected() {
		conn = "connected"
	}
	parts := []string{string(vm.Status), conn}
	if vm.Stage != "" {
		parts = append(parts, "stage="+vm.Stage)
	}
	parts = append(parts, vm.PercentLabel(), "elapsed="+vm.ElapsedLabel())
	if eta := vm.ETALabel(); eta != "" {
		parts = append(parts, "eta="+eta)
	}
	if vm.SessionID != nil {
		parts = append(parts, fmt.Sprintf("session=%d", *vm.SessionID))
	}
	if vm.Envelope != nil && vm.Envelope.IntentSummary != "" {
		parts = append(parts, fmt.Sprintf("intent=%q", vm.Envelope.IntentSummary))
	}
	return strings.Join(parts, " ")
}
