// Package worker runs the maintenance jobs on a fixed interval.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/idunn/internal/jobs"
	"github.com/dukerupert/idunn/internal/telemetry"
	"github.com/google/uuid"
)

// Config holds worker configuration.
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs.
	WorkerID string

	// Interval is how often the job set runs.
	Interval time.Duration

	// MaxConcurrency caps how many jobs run at once.
	MaxConcurrency int
}

// Worker runs a fixed set of maintenance jobs on a ticker.
type Worker struct {
	config  Config
	jobs    []jobs.Job
	logger  *slog.Logger
	metrics *telemetry.BusinessMetrics
}

// NewWorker creates a maintenance worker.
func NewWorker(jobSet []jobs.Job, config Config, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = len(jobSet)
	}

	return &Worker{
		config:  config,
		jobs:    jobSet,
		logger:  logger,
		metrics: metrics,
	}
}

// Start runs the job set every interval until the context is
// cancelled. In-flight jobs finish before Start returns.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"interval", w.config.Interval,
		"jobs", len(w.jobs),
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Semaphore for concurrency control.
	sem := make(chan struct{}, w.config.MaxConcurrency)
	var wg sync.WaitGroup

	// One pass at startup so a restart does not delay overdue sweeps
	// by a full interval.
	w.runAll(ctx, sem, &wg)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			wg.Wait()
			return ctx.Err()

		case <-ticker.C:
			w.runAll(ctx, sem, &wg)
		}
	}
}

func (w *Worker) runAll(ctx context.Context, sem chan struct{}, wg *sync.WaitGroup) {
	for _, job := range w.jobs {
		select {
		case sem <- struct{}{}:
			wg.Add(1)
			go func(job jobs.Job) {
				defer wg.Done()
				defer func() { <-sem }()
				w.runOne(ctx, job)
			}(job)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) runOne(ctx context.Context, job jobs.Job) {
	start := time.Now()
	count, err := job.Run(ctx)
	elapsed := time.Since(start)

	if w.metrics != nil {
		w.metrics.JobDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())
		if err != nil {
			w.metrics.JobsFailed.WithLabelValues(job.Name).Inc()
		} else {
			w.metrics.JobsProcessed.WithLabelValues(job.Name).Inc()
		}
	}

	if err != nil {
		w.logger.Error("job failed",
			"worker_id", w.config.WorkerID,
			"job", job.Name,
			"error", err,
		)
		telemetry.CaptureError(err, map[string]any{"job": job.Name})
		return
	}
	if count > 0 {
		w.logger.Info("job finished",
			"worker_id", w.config.WorkerID,
			"job", job.Name,
			"rows", count,
			"duration", elapsed,
		)
	}
}
