package main

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/WessleyAI/cakg/engine/graph"
)

// AnswerService is the health service name that reports whether the loaded
// graph can answer questions. The empty name reports the process itself.
const AnswerService = "cakg.answer"

// grpcServer serves the standard gRPC health protocol for load balancers
// and orchestrators that probe over gRPC instead of HTTP.
func (s *server) grpcServer() *grpc.Server {
	g := grpc.NewServer()
	healthpb.RegisterHealthServer(g, s.health)
	return g
}

// setHealth marks the answer service serving only while the graph has at
// least one index to answer from.
func (s *server) setHealth(st graph.Stats) {
	status := healthpb.HealthCheckResponse_SERVING
	if st.Indexes == 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(AnswerService, status)
}
