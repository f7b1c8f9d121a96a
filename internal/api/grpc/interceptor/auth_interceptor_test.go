package interceptor

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"trailerhub-backend/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = "/trailerhub.v1.ReservationService/"

func run(t *testing.T, tm security.TokenManager, method string, md metadata.MD) (metadata.MD, error) {
	t.Helper()
	ctx := context.Background()
	if md != nil {
		ctx = metadata.NewIncomingContext(ctx, md)
	}
	var seen metadata.MD
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen, _ = metadata.FromIncomingContext(ctx)
		return "ok", nil
	}
	_, err := NewAuthInterceptor(tm).Unary()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	return seen, err
}

func TestAuthInterceptor(t *testing.T) {
	tm := security.NewTokenManager("secret", "", time.Hour)
	access, err := tm.GenerateAccessToken("renter-1", "", nil)
	require.NoError(t, err)
	adminToken, err := tm.GenerateAccessToken("admin-1", "", []string{security.RoleAdmin})
	require.NoError(t, err)
	refresh, err := tm.GenerateRefreshToken("renter-1", "")
	require.NoError(t, err)

	t.Run("public method needs no token", func(t *testing.T) {
		_, err := run(t, tm, prefix+"GetQuote", nil)
		assert.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := run(t, tm, prefix+"CreateReservation", metadata.Pairs())
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		_, err := run(t, tm, prefix+"CreateReservation", metadata.Pairs("authorization", "Bearer "+refresh))
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("identity headers are overwritten", func(t *testing.T) {
		md := metadata.Pairs("authorization", "Bearer "+access, UserIDKey, "lessor-1", UserRoleKey, "ADMIN")
		seen, err := run(t, tm, prefix+"CreateReservation", md)
		require.NoError(t, err)
		assert.Equal(t, []string{"renter-1"}, seen.Get(UserIDKey))
		assert.Equal(t, []string{"USER"}, seen.Get(UserRoleKey))
	})

	t.Run("admin method", func(t *testing.T) {
		_, err := run(t, tm, prefix+"SyncPayment", metadata.Pairs("authorization", "Bearer "+access))
		assert.Equal(t, codes.PermissionDenied, status.Code(err))

		seen, err := run(t, tm, prefix+"SyncPayment", metadata.Pairs("authorization", "bearer "+adminToken))
		require.NoError(t, err)
		assert.Equal(t, []string{"ADMIN"}, seen.Get(UserRoleKey))
	})
}
