package jobs

import (
	"context"
	"fmt"
	"time"

	"trailerhub-backend/internal/config"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/service"
)

// jobTimeout bounds a single run so a stuck gateway or database never piles
// up overlapping executions.
const jobTimeout = 5 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Availability service.AvailabilityService
	Payments     service.PaymentService
	Rentals      service.RentalService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config, m *metrics.Metrics) *JobRunner {
	if m == nil {
		m = metrics.Default()
	}
	return &JobRunner{
		services: services,
		config:   cfg,
		metrics:  m,
		now:      time.Now,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			jr.metrics.JobRuns.WithLabelValues(jobName, "panic").Inc()
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	err = jobFunc(ctx)
	jr.metrics.JobRuns.WithLabelValues(jobName, metrics.Result(err)).Inc()
	if err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName)
	return nil
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SweepStaleHolds()
	jr.ReconcilePayments()
	jr.MarkLateReturns()
	jr.SendReturnReminders()
}
