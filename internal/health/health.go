// Package health serves the standard gRPC health protocol so orchestrators
// can probe the service without going through the HTTP API.
package health

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported alongside the overall "" service.
const ServiceName = "omniasr.Transcription"

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    *zap.SugaredLogger
}

// New returns a server reporting NOT_SERVING until SetServing is called.
func New(logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		log:    logger.With("component", "health.Server"),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.SetServing(false)
	return s
}

// SetServing flips both the overall and the named service status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	s.log.Infow("health status changed", "status", status.String())
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Infow("gRPC health server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains open streams.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
