package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Runner is a single backfill pass.
type Runner interface {
	Run(ctx context.Context) (Summary, error)
}

// Scheduler runs a backfill on a cron schedule, plus once at start so
// fresh deployments do not wait for the first tick. Passes never overlap:
// a tick that fires while a pass is running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	spec    string // cron spec, e.g. "@every 15m"
	running sync.Mutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewScheduler creates a scheduler for runner. spec uses the standard cron
// format or a descriptor such as "@hourly" or "@every 15m".
func NewScheduler(runner Runner, spec string, logger *slog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, ErrBackfillerRequired
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid backfill schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reembed-scheduler")

	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{logger: logger})),
		runner: runner,
		spec:   spec,
		logger: logger,
	}, nil
}

// Start registers the job, starts the cron loop and triggers one pass
// immediately. Passes run until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		s.cancel()
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("backfill scheduler started", "spec", s.spec)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	return nil
}

// Stop cancels a running pass and waits for it to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("backfill scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Debug("backfill still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	if ctx.Err() != nil {
		return
	}

	summary, err := s.runner.Run(ctx)
	if err != nil && ctx.Err() == nil {
		s.logger.Error("backfill failed", "err", err)
		return
	}
	if summary.Pending > 0 {
		s.logger.Info("backfill pass complete",
			"pending", summary.Pending, "embedded", summary.Embedded, "failed", summary.Failed)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}
