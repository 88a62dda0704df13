package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/poiesic/jobmatch/api"
	"github.com/poiesic/jobmatch/reembed"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the HTTP API",
		Action: serveAction,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   ":8080",
				EnvVars: []string{"JOBMATCH_ADDR"},
			},
			&cli.StringFlag{
				Name:    "backfill-schedule",
				Usage:   "Cron schedule for background embedding backfill, e.g. \"@every 15m\" (empty disables)",
				EnvVars: []string{"JOBMATCH_BACKFILL_SCHEDULE"},
			},
		}, backfillFlags()...),
	}
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	logger := slog.Default().With("component", "server")

	if schedule := c.String("backfill-schedule"); schedule != "" {
		config, err := backfillConfig(c)
		if err != nil {
			return err
		}
		backfiller, err := engine.NewBackfiller(config, nil)
		if err != nil {
			return fmt.Errorf("failed to create backfiller: %w", err)
		}
		defer backfiller.Release()

		scheduler, err := reembed.NewScheduler(backfiller, schedule, slog.Default())
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           api.NewHandler(engine, slog.Default()).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	return nil
}
