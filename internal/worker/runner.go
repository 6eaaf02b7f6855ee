// Package worker runs the periodic maintenance jobs of the finance service.
// Every run is guarded by a distributed lock so a job executes on one
// instance at a time.
package worker

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	"github.com/cassiomorais/finance/pkg/retry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Job run statuses, used as the status label of WorkerJobRuns.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Locker runs fn while holding a named lock. It returns
// ErrLockAcquisitionFailed when another instance holds it.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Config struct {
	LockTTL    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

type Runner struct {
	locker  Locker
	metrics *observability.Metrics
	logger  zerolog.Logger
	cfg     Config
}

func NewRunner(locker Locker, metrics *observability.Metrics, logger zerolog.Logger, cfg Config) *Runner {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Runner{locker: locker, metrics: metrics, logger: logger, cfg: cfg}
}

// Run starts every job on its own ticker and blocks until ctx is cancelled.
// Each job runs once immediately. A failing run is logged and counted; it
// never stops the other jobs.
func (r *Runner) Run(ctx context.Context, jobs ...Job) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			r.loop(gCtx, job)
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	interval := job.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Str("job", job.Name).Dur("interval", interval).Msg("Job scheduled")
	for {
		r.RunOnce(ctx, job)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes one locked, retried run of job and returns its status.
func (r *Runner) RunOnce(ctx context.Context, job Job) string {
	if ctx.Err() != nil {
		return StatusSkipped
	}
	start := time.Now()
	logger := r.logger.With().Str("job", job.Name).Logger()

	err := r.locker.WithLock(ctx, "job:"+job.Name, r.cfg.LockTTL, func(ctx context.Context) error {
		return retry.Do(ctx, retry.Config{
			MaxAttempts:  uint(r.cfg.MaxRetries),
			InitialDelay: r.cfg.RetryDelay,
			MaxDelay:     10 * r.cfg.RetryDelay,
			OnRetry: func(attempt uint, err error) {
				logger.Warn().Err(err).Uint("attempt", attempt+1).Msg("Job attempt failed, retrying")
			},
			Retryable: func(err error) bool {
				return !errors.Is(err, context.Canceled)
			},
		}, func() error {
			return job.Run(ctx)
		})
	})

	status := StatusSuccess
	switch {
	case errors.Is(err, domainErrors.ErrLockAcquisitionFailed):
		status = StatusSkipped
		logger.Debug().Msg("Job held by another instance, skipping")
	case err != nil:
		status = StatusFailure
		logger.Error().Err(err).Msg("Job failed")
	}

	if r.metrics != nil {
		r.metrics.WorkerJobRuns.WithLabelValues(job.Name, status).Inc()
		if status != StatusSkipped {
			r.metrics.WorkerJobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
		}
	}
	return status
}
