// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/jobmatch"
	"github.com/poiesic/jobmatch/ai"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "jobmatch",
		Usage:  "Job listing search and recommendation engine",
		Flags:  globalFlags(),
		Before: setupLogger,
		Commands: []*cli.Command{
			serveCommand(),
			searchCommand(),
			filterCommand(),
			recommendCommand(),
			categoriesCommand(),
			ingestCommand(),
			backfillCommand(),
			seedCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   "./jobmatch_db",
			EnvVars: []string{"JOBMATCH_DB"},
		},
		&cli.StringFlag{
			Name:    "postgres-url",
			Usage:   "Store records in PostgreSQL instead of BadgerDB",
			EnvVars: []string{"JOBMATCH_POSTGRES_URL"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Keep the embedding cache in Redis",
			EnvVars: []string{"JOBMATCH_REDIS_URL"},
		},
		&cli.DurationFlag{
			Name:  "redis-ttl",
			Usage: "Expiry of Redis embedding entries (0 keeps them)",
		},
		&cli.StringFlag{
			Name:    "ai-provider",
			Usage:   "Recommender provider (remote, openai)",
			Value:   ai.ProviderRemote,
			EnvVars: []string{"JOBMATCH_AI_PROVIDER"},
		},
		&cli.StringFlag{
			Name:    "ai-host",
			Usage:   "Recommender or embedding service host URL",
			Value:   "http://localhost:8000",
			EnvVars: []string{"JOBMATCH_AI_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name (openai provider only)",
			Value:   "embeddinggemma",
			EnvVars: []string{"JOBMATCH_EMBEDDING_MODEL"},
		},
		&cli.DurationFlag{
			Name:  "ai-timeout",
			Usage: "Timeout for each recommender call",
			Value: 10 * time.Second,
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Maximum recommendations requested per call",
			Value: 100,
		},
		&cli.BoolFlag{
			Name:  "match-all",
			Usage: "Require every keyword token to match",
		},
	}
}

// aiConfig builds the recommender configuration from the global flags.
func aiConfig(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithProvider(c.String("ai-provider")),
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithTimeout(c.Duration("ai-timeout")),
		ai.WithTopK(c.Int("top-k")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

// openEngine opens the engine described by the global flags.
func openEngine(ctx context.Context, c *cli.Context) (*jobmatch.Engine, error) {
	config, err := aiConfig(c)
	if err != nil {
		return nil, err
	}

	opts := []jobmatch.EngineOption{
		jobmatch.WithAIConfig(config),
		jobmatch.WithMatchAllTerms(c.Bool("match-all")),
		jobmatch.WithLogger(slog.Default()),
	}
	if url := c.String("postgres-url"); url != "" {
		opts = append(opts, jobmatch.WithPostgres(url))
	}
	if url := c.String("redis-url"); url != "" {
		opts = append(opts, jobmatch.WithRedis(url, c.Duration("redis-ttl")))
	}

	engine, err := jobmatch.NewEngine(ctx, c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
