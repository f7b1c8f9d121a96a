package service

import (
	"context"
	"errors"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

// NewNotificationService exposes the in-app inbox written by the event
// pipeline's notification writer.
func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Notification, int32, error) {
	if actor.UserID == "" {
		return nil, 0, domain.NewMissingField("userId")
	}
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, actor.UserID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, actor domain.Actor, notificationID string) error {
	if notificationID == "" {
		return domain.NewMissingField("notificationId")
	}
	err := s.noteRepo.MarkAsRead(ctx, notificationID, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		// Someone else's notification looks the same as a missing one.
		return &domain.Error{Kind: domain.KindNotFound, Code: domain.CodeNotificationNotFound, Message: "notification " + notificationID + " not found"}
	}
	return err
}
