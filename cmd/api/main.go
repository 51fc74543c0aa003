// Package main implements the CAKG answer server. It serves answers over
// HTTP and, when NATS_URL is set, over NATS request/reply.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/render"
	"github.com/WessleyAI/cakg/pkg/fn"
	"github.com/WessleyAI/cakg/pkg/metrics"
	"github.com/WessleyAI/cakg/pkg/mid"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	GRPCPort      string
	GraphSource   string
	GraphSnapshot string
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
	Neo4jDatabase string
	NATSURL       string
	NATSSubject   string
	ResultsDir    string
	RateLimit     float64
	RateBurst     int
	CORSOrigin    string
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		GRPCPort:      envOr("GRPC_PORT", ""),
		GraphSource:   envOr("GRAPH_SOURCE", graph.SourceNeo4j),
		GraphSnapshot: envOr("GRAPH_SNAPSHOT", "data/aviation.yaml"),
		Neo4jURL:      envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:     envOr("NEO4J_PASS", "password"),
		Neo4jDatabase: envOr("NEO4J_DATABASE", ""),
		NATSURL:       envOr("NATS_URL", ""),
		NATSSubject:   envOr("NATS_SUBJECT", "cakg.ask"),
		ResultsDir:    envOr("RESULTS_DIR", "results"),
		RateLimit:     envFloat("RATE_LIMIT", 20),
		RateBurst:     envInt("RATE_BURST", 40),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
	}
}

func (c Config) source() graph.Source {
	return graph.Source{
		Kind:     c.GraphSource,
		Path:     c.GraphSnapshot,
		URL:      c.Neo4jURL,
		User:     c.Neo4jUser,
		Pass:     c.Neo4jPass,
		Database: c.Neo4jDatabase,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return f
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Load the graph ---
	source := cfg.source()
	snap, err := source.Load(ctx, logger)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	srv := newServer(snap, serverOptions{
		Source:   source,
		Renderer: render.NewHTMLRenderer(cfg.ResultsDir),
		Metrics:  m,
		Logger:   logger,
	})
	st := srv.Stats()
	logger.Info("graph loaded", "source", source.String(), "indexes", st.Indexes, "records", st.Records)

	// --- Connect to NATS (optional) ---
	if cfg.NATSURL != "" {
		nc, err := connectNATS(ctx, cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer nc.Drain()
		if err := srv.serveNATS(nc, cfg.NATSSubject); err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		logger.Info("serving answers over nats", "subject", cfg.NATSSubject)
	}

	// --- gRPC health (optional) ---
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		gs := srv.grpcServer()
		go func() {
			logger.Info("grpc health server starting", "port", cfg.GRPCPort)
			if err := gs.Serve(lis); err != nil {
				logger.Error("grpc server stopped", "err", err)
			}
		}()
		defer gs.GracefulStop()
		defer srv.health.Shutdown()
	}

	// --- Build HTTP server ---
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	mux := srv.routes(limiter)
	mux.Handle("GET /metrics", metrics.Handler(prometheus.DefaultGatherer))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.OTel("cakg-api"),
		mid.RequestID(),
		mid.Access(logger, m),
		mid.CORS(cfg.CORSOrigin),
	)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}

func connectNATS(ctx context.Context, url string, logger *slog.Logger) (*nats.Conn, error) {
	opts := fn.DefaultRetry
	opts.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("nats not reachable, retrying", "url", url, "attempt", attempt, "wait", wait, "err", err)
	}
	res := fn.Retry(ctx, opts, func(context.Context) fn.Result[*nats.Conn] {
		return fn.FromPair(nats.Connect(url, nats.Name("cakg-api")))
	})
	nc, err := res.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return nc, nil
}
