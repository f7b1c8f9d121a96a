package events

import (
	"context"
	"errors"
	"fmt"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/repository"
)

// NotificationWriter turns events into in-app notification rows for each
// recipient. Delivery (push, email) is left to downstream consumers.
type NotificationWriter struct {
	repo repository.NotificationRepository
}

func NewNotificationWriter(repo repository.NotificationRepository) *NotificationWriter {
	return &NotificationWriter{repo: repo}
}

func (w *NotificationWriter) Publish(ctx context.Context, evt Event) error {
	title, message := render(evt)
	if title == "" {
		return nil
	}
	var errs []error
	for _, userID := range evt.Recipients {
		attrs := map[string]string{"rental_id": evt.RentalID, "event_type": evt.Type}
		for k, v := range evt.Data {
			attrs[k] = v
		}
		n := &domain.Notification{
			UserID:     userID,
			Title:      title,
			Message:    message,
			Attributes: attrs,
		}
		if err := w.repo.Create(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", userID, err))
		}
	}
	return errors.Join(errs...)
}

func render(evt Event) (string, string) {
	switch evt.Type {
	case TypeRentalCreated:
		return "New Rental Request", fmt.Sprintf("A rental request for %s is awaiting payment.", evt.Data["range"])
	case TypeRentalStatusChanged:
		return "Rental Status Updated", fmt.Sprintf("Rental %s moved from %s to %s.", evt.RentalID, evt.Data["from"], evt.Data["to"])
	case TypeRentalReturnDue:
		return "Return Reminder", fmt.Sprintf("Rental %s is due back on %s.", evt.RentalID, evt.Data["end_date"])
	case TypePaymentUpdated:
		return "Payment Update", fmt.Sprintf("Payment for rental %s is now %s.", evt.RentalID, evt.Data["status"])
	case TypeDamageReported:
		return "Damage Reported", fmt.Sprintf("A %s severity damage report was filed for rental %s.", evt.Data["severity"], evt.RentalID)
	case TypeDamageResolved:
		return "Damage Report Answered", fmt.Sprintf("Damage report %s was %s.", evt.Data["report_id"], evt.Data["status"])
	}
	return "", ""
}
