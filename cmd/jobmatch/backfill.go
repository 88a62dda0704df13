package main

import (
	"fmt"
	"os"
	"time"

	"github.com/poiesic/jobmatch/reembed"
	"github.com/urfave/cli/v2"
)

func backfillCommand() *cli.Command {
	return &cli.Command{
		Name:   "backfill",
		Usage:  "Compute embeddings for listings and profiles that are absent or stale",
		Action: backfillAction,
		Flags:  backfillFlags(),
	}
}

func backfillFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of entities to process in each batch",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N entities",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed operations",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "Maximum recommender calls per second (0 is unlimited)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent embedding calls (0 uses half the CPUs)",
		},
	}
}

func backfillConfig(c *cli.Context) (*reembed.Config, error) {
	config := reembed.DefaultConfig()
	config.BatchSize = c.Int("batch-size")
	config.ReportInterval = c.Int("report-interval")
	config.MaxRetries = c.Int("max-retries")
	config.RetryDelay = c.Duration("retry-delay")
	config.RatePerSecond = c.Float64("rate")
	config.Workers = c.Int("workers")
	config.CallTimeout = c.Duration("ai-timeout")

	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	if config.RatePerSecond < 0 {
		return nil, fmt.Errorf("rate cannot be negative")
	}
	return config, nil
}

func backfillAction(c *cli.Context) error {
	config, err := backfillConfig(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c.Context, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	backfiller, err := engine.NewBackfiller(config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create backfiller: %w", err)
	}
	defer backfiller.Release()

	fmt.Fprintf(os.Stderr, "Database: %s\n", storageName(c))
	fmt.Fprintf(os.Stderr, "Recommender: %s (%s)\n", c.String("ai-host"), c.String("ai-provider"))
	fmt.Fprintln(os.Stderr)

	summary, err := backfiller.Run(c.Context)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("backfill left %d entities without a fresh embedding", summary.Failed)
	}
	return nil
}

// storageName describes where records live, without credentials.
func storageName(c *cli.Context) string {
	if c.String("postgres-url") != "" {
		return "postgres"
	}
	return c.String("db")
}
