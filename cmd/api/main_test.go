package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/render"
	"github.com/WessleyAI/cakg/pkg/mid"
	"github.com/WessleyAI/cakg/pkg/natsutil"
)

const fixture = "../../engine/graph/testdata/aviation.yaml"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, string, render.Chart) (string, error) {
	return "", errors.New("disk full")
}

func newTestServer(t *testing.T, src graph.Source, r render.Renderer) *server {
	t.Helper()
	snap, err := src.Load(context.Background(), quiet)
	if err != nil {
		t.Fatal(err)
	}
	return newServer(snap, serverOptions{Source: src, Renderer: r, Logger: quiet})
}

func fixtureServer(t *testing.T) *server {
	return newTestServer(t, graph.Source{Kind: graph.SourceYAML, Path: fixture}, render.NewHTMLRenderer(t.TempDir()))
}

func testHandler(s *server) http.Handler {
	return mid.Chain(s.routes(rate.NewLimiter(rate.Inf, 1)), mid.RequestID())
}

func postQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/answer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func encode(t *testing.T, q domain.Query) string {
	t.Helper()
	b, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestHealthEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	testHandler(fixtureServer(t)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %q", resp["status"])
	}
}

func TestAnswerEndpoint(t *testing.T) {
	h := testHandler(fixtureServer(t))

	w := postQuery(t, h, encode(t, domain.Query{
		Question: "2011年货邮周转量是多少？",
		Type:     domain.IndexValue,
		Years:    []domain.YearRef{domain.Year(2011)},
		Indexes:  []string{"货邮周转量"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp AnswerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "货邮周转量为173.91亿吨公里。" {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
	if resp.Type != "index_value" || resp.ID == "" || resp.ID != w.Header().Get(mid.RequestIDHeader) {
		t.Fatalf("unexpected response %+v (request id %q)", resp, w.Header().Get(mid.RequestIDHeader))
	}
}

func TestAnswerEndpoint_BadRequests(t *testing.T) {
	h := testHandler(fixtureServer(t))
	for _, tc := range []struct {
		name string
		body string
	}{
		{"invalid json", `{invalid`},
		{"unknown question type", `{"question":"q","type":"nope"}`},
		{"missing entity", encode(t, domain.Query{Type: domain.IndexValue, Years: []domain.YearRef{domain.Year(2011)}})},
		{"one year for a two-year question", encode(t, domain.Query{
			Type:    domain.IndexTimeRatio,
			Years:   []domain.YearRef{domain.Year(2011)},
			Indexes: []string{"货邮周转量"},
		})},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if w := postQuery(t, h, tc.body); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAnswerEndpoint_RenderFailure(t *testing.T) {
	s := newTestServer(t, graph.Source{Kind: graph.SourceYAML, Path: fixture}, failingRenderer{})
	w := postQuery(t, testHandler(s), encode(t, domain.Query{
		Question: "2011到2013年货邮周转量的变化趋势？",
		Type:     domain.IndexTrend,
		Years:    []domain.YearRef{domain.YearSpan(2011, 2013)},
		Indexes:  []string{"货邮周转量"},
	}))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "disk full") {
		t.Fatal("internal error details should not leak")
	}
}

func TestAnswerEndpoint_RateLimited(t *testing.T) {
	s := fixtureServer(t)
	h := s.routes(rate.NewLimiter(rate.Limit(0.001), 1))
	body := encode(t, domain.Query{Type: domain.BeginStats, Indexes: []string{"货邮周转量"}})

	if w := postQuery(t, h, body); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	if w := postQuery(t, h, body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatal("health should not be rate limited")
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := fixtureServer(t)
	w := httptest.NewRecorder()
	testHandler(s).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var got graph.Stats
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := s.Stats()
	if got.Indexes != want.Indexes || got.Records != want.Records || got.Indexes == 0 {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func writeDataset(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func copyFixture(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "aviation.yaml")
	writeDataset(t, path, string(raw))
	return path
}

func TestReloadEndpoint(t *testing.T) {
	path := copyFixture(t)
	s := newTestServer(t, graph.Source{Kind: graph.SourceYAML, Path: path}, nil)
	h := testHandler(s)
	before := s.Stats()

	writeDataset(t, path, "{bad")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a broken dataset, got %d", w.Code)
	}
	if s.Stats().Indexes != before.Indexes {
		t.Fatal("a failed reload should keep the current graph")
	}

	writeDataset(t, path, "years:\n  - {year: 2011}\n")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if st := s.Stats(); st.Indexes != 0 || st.Years != 1 {
		t.Fatalf("unexpected stats after reload: %+v", st)
	}

	w = postQuery(t, h, encode(t, domain.Query{Type: domain.BeginStats, Indexes: []string{"货邮周转量"}}))
	if !bytes.Contains(w.Body.Bytes(), []byte("没有找到“货邮周转量”的相关数据")) {
		t.Fatalf("answers should come from the new graph: %s", w.Body.String())
	}
}

func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

func TestServeNATS(t *testing.T) {
	nc := startTestNATS(t)
	path := copyFixture(t)
	s := newTestServer(t, graph.Source{Kind: graph.SourceYAML, Path: path}, nil)
	if err := s.serveNATS(nc, "test.ask"); err != nil {
		t.Fatal(err)
	}

	events := make(chan AnswerEvent, 1)
	sub, err := natsutil.Subscribe(nc, EventSubject, func(_ context.Context, ev AnswerEvent) { events <- ev })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	resp, err := natsutil.Request[domain.Query, AnswerResponse](ctx, nc, "test.ask", domain.Query{
		Type:    domain.IndexValue,
		Years:   []domain.YearRef{domain.Year(2011)},
		Indexes: []string{"货邮周转量"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "货邮周转量为173.91亿吨公里。" || resp.ID == "" {
		t.Fatalf("unexpected reply %+v", resp)
	}
	select {
	case ev := <-events:
		if ev.ID != resp.ID || ev.Answer != resp.Answer {
			t.Fatalf("event %+v does not match reply %+v", ev, resp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no answer event published")
	}

	_, err = natsutil.Request[domain.Query, AnswerResponse](ctx, nc, "test.ask", domain.Query{Type: domain.IndexValue})
	var remote *natsutil.RemoteError
	if !errors.As(err, &remote) || !strings.Contains(remote.Message, "invalid query") {
		t.Fatalf("expected a remote invalid-query error, got %v", err)
	}

	writeDataset(t, path, "years:\n  - {year: 2011}\n")
	if err := natsutil.Publish(ctx, nc, ReloadSubject, ReloadRequest{Reason: "test"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Stats().Indexes != 0 {
		if time.Now().After(deadline) {
			t.Fatal("reload request was not applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "GRPC_PORT", "GRAPH_SOURCE", "NATS_URL", "NATS_SUBJECT", "RATE_LIMIT", "RATE_BURST"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig()
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.GRPCPort != "" {
		t.Fatalf("gRPC health should be off by default, got port %s", cfg.GRPCPort)
	}
	if cfg.GraphSource != graph.SourceNeo4j || cfg.NATSURL != "" || cfg.NATSSubject != "cakg.ask" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RateLimit != 20 || cfg.RateBurst != 40 {
		t.Fatalf("unexpected rate defaults %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if src := cfg.source(); src.Kind != graph.SourceNeo4j || src.URL != cfg.Neo4jURL {
		t.Fatalf("unexpected source %+v", src)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CAKG_TEST_STR", "custom")
	t.Setenv("CAKG_TEST_INT", "7")
	t.Setenv("CAKG_TEST_FLOAT", "oops")

	if envOr("CAKG_TEST_STR", "default") != "custom" {
		t.Fatal("envOr should use the set value")
	}
	if envOr("CAKG_TEST_MISSING", "fallback") != "fallback" {
		t.Fatal("envOr should fall back")
	}
	if envInt("CAKG_TEST_INT", 1) != 7 {
		t.Fatal("envInt should parse the set value")
	}
	if envFloat("CAKG_TEST_FLOAT", 2.5) != 2.5 {
		t.Fatal("envFloat should fall back on a malformed value")
	}
}
