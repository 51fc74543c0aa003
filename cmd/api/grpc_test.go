package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/WessleyAI/cakg/engine/graph"
)

func healthClient(t *testing.T, s *server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := s.grpcServer()
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func checkHealth(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("check %q: %v", service, err)
	}
	return resp.GetStatus()
}

func TestGRPCHealth(t *testing.T) {
	s := fixtureServer(t)
	c := healthClient(t, s)

	for _, svc := range []string{"", AnswerService} {
		if got := checkHealth(t, c, svc); got != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("%q: expected SERVING, got %s", svc, got)
		}
	}

	_, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "cakg.unknown"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound for an unknown service, got %v", err)
	}

	s.health.Shutdown()
	if got := checkHealth(t, c, AnswerService); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING after shutdown, got %s", got)
	}
}

func TestGRPCHealth_FollowsReload(t *testing.T) {
	path := copyFixture(t)
	s := newTestServer(t, graph.Source{Kind: graph.SourceYAML, Path: path}, nil)
	c := healthClient(t, s)
	h := testHandler(s)

	writeDataset(t, path, "years:\n  - {year: 2011}\n")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("reload: %d %s", w.Code, w.Body.String())
	}
	if got := checkHealth(t, c, AnswerService); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("a graph without indexes should not be serving, got %s", got)
	}
	if got := checkHealth(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("the process itself stays up, got %s", got)
	}

	writeDataset(t, path, "indexes:\n  - {id: 1, name: 旅客运输量, unit: 万人次}\n")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if got := checkHealth(t, c, AnswerService); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING after reloading a real graph, got %s", got)
	}
}
