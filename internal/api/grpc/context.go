package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"trailerhub-backend/internal/api/grpc/interceptor"
	"trailerhub-backend/internal/domain"
)

// GetActorFromContext extracts the caller identity from the gRPC metadata.
// It expects the "user-id" and "user-role" headers set by the auth
// interceptor.
func GetActorFromContext(ctx context.Context) (domain.Actor, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.Actor{}, status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	userIDs := md.Get(interceptor.UserIDKey)
	if len(userIDs) == 0 || userIDs[0] == "" {
		return domain.Actor{}, status.Errorf(codes.Unauthenticated, "user_id is not provided in metadata")
	}

	role := domain.ActorRoleUser
	if roles := md.Get(interceptor.UserRoleKey); len(roles) > 0 && domain.ActorRole(roles[0]) == domain.ActorRoleAdmin {
		role = domain.ActorRoleAdmin
	}
	return domain.Actor{UserID: userIDs[0], Role: role}, nil
}
