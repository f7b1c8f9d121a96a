package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"trailerhub-backend/internal/api/grpc/interceptor"
)

// NewServer builds the gRPC server with authentication, the reservation
// service and the standard health service. The returned health server is
// flipped to NOT_SERVING on shutdown.
func NewServer(handler ReservationServiceServer, auth *interceptor.AuthInterceptor, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.UnaryInterceptor(auth.Unary())}, opts...)
	s := grpc.NewServer(opts...)

	RegisterReservationServiceServer(s, handler)

	hs := health.NewServer()
	hs.SetServingStatus(ReservationServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	// Register reflection service for grpcurl
	reflection.Register(s)

	return s, hs
}
