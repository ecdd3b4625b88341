package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside "".
const ServiceName = "internship.v1.InternshipService"

// GRPCServer exposes grpc.health.v1 for orchestrators that probe over gRPC.
// Serving status follows the Checker.
type GRPCServer struct {
	server  *grpc.Server
	health  *grpchealth.Server
	checker *Checker
	logger  *slog.Logger
}

func NewGRPCServer(checker *Checker, logger *slog.Logger) *GRPCServer {
	server := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := grpchealth.NewServer()
	grpc_health_v1.RegisterHealthServer(server, hs)

	// NOT_SERVING until the first check completes.
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return &GRPCServer{
		server:  server,
		health:  hs,
		checker: checker,
		logger:  logger,
	}
}

// SetReady updates the reported status of every service.
func (s *GRPCServer) SetReady(ready bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if ready {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// StartHealthChecks keeps the serving status in line with the dependency
// checks until ctx is done.
func (s *GRPCServer) StartHealthChecks(ctx context.Context, interval time.Duration) {
	s.checker.Watch(ctx, interval, s.SetReady)
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server starting", "addr", lis.Addr().String())
	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("gRPC server stopped: %w", err)
	}
	return nil
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
