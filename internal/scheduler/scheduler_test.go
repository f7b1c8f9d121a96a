package scheduler

import (
	"testing"
	"time"

	"trailerhub-backend/internal/config"
	"trailerhub-backend/internal/jobs"
	"trailerhub-backend/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cfg(sweep string) *config.Config {
	return &config.Config{
		Holds: config.HoldConfig{StaleAfter: 30 * time.Minute},
		Scheduler: config.SchedulerConfig{
			SweepStaleHolds:     sweep,
			MarkLateReturns:     "0 0 2 * * *",
			ReconcilePayments:   "0 */15 * * * *",
			SendReturnReminders: "0 0 9 * * *",
		},
	}
}

func TestNewScheduler_RegistersAllJobs(t *testing.T) {
	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg("0 */10 * * * *"), metrics.New()))
	require.NoError(t, err)
	assert.Equal(t, 4, s.Entries())

	s.Start()
	s.Stop()
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg("every ten minutes"), metrics.New()))
	assert.Error(t, err)
}
