package jobs

import (
	"context"

	"trailerhub-backend/internal/logger"
)

// SweepStaleHolds deletes payment holds whose intent never turned into a
// live reservation.
func (jr *JobRunner) SweepStaleHolds() error {
	return jr.runWithRecovery("SweepStaleHolds", func(ctx context.Context) error {
		n, err := jr.services.Availability.SweepStaleHolds(ctx, jr.config.Holds.StaleAfter)
		if err != nil {
			return err
		}
		logger.Info("Swept stale holds", "count", n, "olderThan", jr.config.Holds.StaleAfter)
		return nil
	})
}

// ReconcilePayments re-reads pending payments from the gateway in case a
// webhook was lost. Only payments older than the hold staleness window are
// polled, so fresh checkouts are left to the webhook.
func (jr *JobRunner) ReconcilePayments() error {
	return jr.runWithRecovery("ReconcilePayments", func(ctx context.Context) error {
		n, err := jr.services.Payments.ReconcilePending(ctx, jr.config.Holds.StaleAfter)
		if err != nil {
			return err
		}
		logger.Info("Reconciled pending payments", "count", n)
		return nil
	})
}
