package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/npratt/beacon/internal/config"
	"github.com/npratt/beacon/internal/demo"
	"github.com/npratt/beacon/internal/feedserver"
)

// runServe runs the feed server until a signal arrives. With demoMode the
// demo script is published into the hub in a loop.
func runServe(ctx context.Context, cfg *config.Config, demoMode bool, logger *slog.Logger) error {
	srv := feedserver.New(feedserver.Options{
		Addr:             cfg.Server.Addr,
		StateFile:        cfg.Server.StateFile,
		HistorySize:      cfg.Server.HistorySize,
		SubscriberBuffer: cfg.Server.SubscriberBuffer,
		Token:            cfg.Server.Token,
		Logger:           logger,
	})

	if demoMode {
		demoCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		src := demo.NewSource(cfg.Demo.PhaseDuration, cfg.Demo.SessionID)
		go func() {
			err := src.Replay(demoCtx, cfg.Demo.PhaseDuration, func(raw []byte) error {
				_, _, err := srv.PublishFrame(raw)
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("demo publisher stopped", "error", err)
			}
		}()
	}

	return srv.Run(ctx)
}
