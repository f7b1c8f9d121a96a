package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPhotoStore
type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) UploadURL(ctx context.Context, key, contentType string) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
func (m *MockPhotoStore) PublicURL(key string) string {
	return "https://photos.example.com/" + key
}

func TestRequestUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedRental(t, "rental-1", domain.RentalStatusActive)
	expires := time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)

	store := new(MockPhotoStore)
	store.On("UploadURL", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "damage/rental-1/") && strings.HasSuffix(key, ".png")
	}), "image/png").Return("https://upload.example.com/grant", expires, nil)

	svc := service.NewDamagePhotoService(f.store.Rentals, store)
	upload, err := svc.RequestUpload(ctx, lessor, "rental-1", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://upload.example.com/grant", upload.UploadURL)
	assert.Equal(t, "https://photos.example.com/"+upload.Key, upload.PhotoURL)
	assert.Equal(t, expires, upload.ExpiresAt)
	store.AssertExpectations(t)
}

func TestRequestUpload_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedRental(t, "rental-1", domain.RentalStatusActive)
	f.seedRental(t, "rental-2", domain.RentalStatusCompleted)

	store := new(MockPhotoStore)
	svc := service.NewDamagePhotoService(f.store.Rentals, store)

	_, err := svc.RequestUpload(ctx, renter2, "rental-1", "image/jpeg")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = svc.RequestUpload(ctx, renter1, "rental-1", "application/pdf")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.RequestUpload(ctx, renter1, "rental-2", "image/jpeg")
	assert.Equal(t, domain.KindState, domain.KindOf(err))

	_, err = svc.RequestUpload(ctx, renter1, "missing", "image/jpeg")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	store.AssertNotCalled(t, "UploadURL", mock.Anything, mock.Anything, mock.Anything)
}
