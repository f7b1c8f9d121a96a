package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/repository"
	"trailerhub-backend/internal/storage"

	"github.com/google/uuid"
)

// PhotoUpload is where the client PUTs the photo and the URL it then lists
// in ReportDamage.
type PhotoUpload struct {
	Key       string
	UploadURL string
	PhotoURL  string
	ExpiresAt time.Time
}

type damagePhotoService struct {
	rentalRepo repository.RentalRepository
	store      storage.PhotoStore
}

func NewDamagePhotoService(rentalRepo repository.RentalRepository, store storage.PhotoStore) DamagePhotoService {
	return &damagePhotoService{
		rentalRepo: rentalRepo,
		store:      store,
	}
}

func (s *damagePhotoService) RequestUpload(ctx context.Context, actor domain.Actor, rentalID, contentType string) (*PhotoUpload, error) {
	logger.EnterMethod("damagePhotoService.RequestUpload", "rentalID", rentalID, "userID", actor.UserID)

	ext, ok := storage.Extension(contentType)
	if !ok {
		return nil, domain.NewInvalidField("contentType", "must be image/jpeg, image/png or image/webp")
	}
	rental, err := loadRental(ctx, s.rentalRepo, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsParty(actor.UserID) {
		return nil, domain.NewForbidden("only the renter or lessor can upload damage photos")
	}
	if rental.Status != domain.RentalStatusActive && rental.Status != domain.RentalStatusDisputed {
		return nil, domain.NewInvalidState(fmt.Sprintf("photos can only be added to active or disputed rentals, rental is %s", rental.Status))
	}

	key := fmt.Sprintf("damage/%s/%s%s", rental.ID, uuid.NewString(), ext)
	uploadURL, expiresAt, err := s.store.UploadURL(ctx, key, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return nil, domain.NewInvalidField("rentalId", "cannot be used in a storage path")
		}
		logger.ExitMethodWithError("damagePhotoService.RequestUpload", err, "rentalID", rental.ID)
		return nil, err
	}

	logger.ExitMethod("damagePhotoService.RequestUpload", "rentalID", rental.ID, "key", key)
	return &PhotoUpload{
		Key:       key,
		UploadURL: uploadURL,
		PhotoURL:  s.store.PublicURL(key),
		ExpiresAt: expiresAt,
	}, nil
}
