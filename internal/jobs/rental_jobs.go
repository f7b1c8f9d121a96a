package jobs

import (
	"context"

	"trailerhub-backend/internal/logger"
)

// MarkLateReturns moves ACTIVE rentals past their end date to LATE_RETURN
func (jr *JobRunner) MarkLateReturns() error {
	return jr.runWithRecovery("MarkLateReturns", func(ctx context.Context) error {
		n, err := jr.services.Rentals.MarkLateReturns(ctx, jr.now().UTC())
		if err != nil {
			return err
		}
		logger.Info("Marked rentals as late", "count", n)
		return nil
	})
}

// SendReturnReminders notifies both parties of rentals ending today
func (jr *JobRunner) SendReturnReminders() error {
	return jr.runWithRecovery("SendReturnReminders", func(ctx context.Context) error {
		n, err := jr.services.Rentals.SendReturnReminders(ctx, jr.now().UTC())
		if err != nil {
			return err
		}
		logger.Info("Sent return reminders", "count", n)
		return nil
	})
}
