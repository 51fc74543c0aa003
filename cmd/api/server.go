package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/health"

	"github.com/WessleyAI/cakg/engine/answer"
	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/render"
	"github.com/WessleyAI/cakg/pkg/fn"
	"github.com/WessleyAI/cakg/pkg/metrics"
	"github.com/WessleyAI/cakg/pkg/mid"
	"github.com/WessleyAI/cakg/pkg/natsutil"
)

const (
	// EventSubject receives one AnswerEvent per answered query.
	EventSubject = "cakg.answered"
	// ReloadSubject triggers a graph reload on every replica.
	ReloadSubject = "cakg.reload"

	natsQueue   = "cakg-api"
	maxBodySize = 1 << 20
)

// AnswerResponse is the JSON response for POST /api/answer and the NATS
// reply on the ask subject.
type AnswerResponse struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Type     string `json:"type"`
	Answer   string `json:"answer"`
}

// AnswerEvent is published after every answered query.
type AnswerEvent struct {
	AnswerResponse
	TookMS int64 `json:"took_ms"`
}

// ReloadRequest asks replicas to reload the graph from their source.
type ReloadRequest struct {
	Reason string `json:"reason,omitempty"`
}

type serverOptions struct {
	Source   graph.Source
	Renderer render.Renderer
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// server owns the current engine. A reload swaps in a new engine built over
// a fresh snapshot; in-flight queries finish on the old one.
type server struct {
	opts   serverOptions
	logger *slog.Logger

	engine atomic.Pointer[answer.Engine]
	stats  atomic.Pointer[graph.Stats]

	events *nats.Conn
	ask    fn.Stage[domain.Query, AnswerResponse]
	health *health.Server
}

func newServer(g *graph.Snapshot, opts serverOptions) *server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &server{opts: opts, logger: opts.Logger, health: health.NewServer()}
	s.ask = fn.TracedStage("answer.search", fn.Lift(s.search))
	s.install(g)
	return s
}

func (s *server) install(g *graph.Snapshot) {
	s.engine.Store(answer.New(g, answer.Options{
		Renderer: s.opts.Renderer,
		Metrics:  s.opts.Metrics,
		Logger:   s.logger,
	}))
	st := g.Stats()
	s.stats.Store(&st)
	s.setHealth(st)
	s.opts.Metrics.SetGraphSize(map[string]int{
		"year":    st.Years,
		"catalog": st.Catalogs,
		"index":   st.Indexes,
		"area":    st.Areas,
		"record":  st.Records,
	})
}

// Stats describes the graph currently served.
func (s *server) Stats() graph.Stats { return *s.stats.Load() }

// reload loads a new snapshot from the configured source. On failure the
// current graph stays in place.
func (s *server) reload(ctx context.Context) error {
	g, err := s.opts.Source.Load(ctx, s.logger)
	if err != nil {
		return err
	}
	s.install(g)
	st := s.Stats()
	s.logger.Info("graph reloaded", "source", s.opts.Source.String(), "indexes", st.Indexes, "records", st.Records)
	return nil
}

func (s *server) search(ctx context.Context, q domain.Query) (AnswerResponse, error) {
	start := time.Now()
	text, err := s.engine.Load().Search(ctx, q)
	if err != nil {
		return AnswerResponse{}, err
	}

	id := mid.RequestIDFrom(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	resp := AnswerResponse{ID: id, Question: q.Question, Type: q.Type.String(), Answer: text}

	if s.events != nil {
		ev := AnswerEvent{AnswerResponse: resp, TookMS: time.Since(start).Milliseconds()}
		if err := natsutil.Publish(ctx, s.events, EventSubject, ev); err != nil {
			s.logger.Warn("publish answer event failed", "err", err)
		}
	}
	return resp, nil
}

// serveNATS answers queries on subject, publishes answer events and
// listens for reload requests.
func (s *server) serveNATS(nc *nats.Conn, subject string) error {
	s.events = nc
	_, err := natsutil.Reply(nc, subject, natsQueue, func(ctx context.Context, q domain.Query) (AnswerResponse, error) {
		return s.ask(ctx, q).Unwrap()
	})
	if err != nil {
		return err
	}
	_, err = natsutil.Subscribe(nc, ReloadSubject, func(ctx context.Context, req ReloadRequest) {
		s.logger.Info("reload requested", "reason", req.Reason)
		if err := s.reload(ctx); err != nil {
			s.logger.Error("graph reload failed", "err", err)
		}
	})
	return err
}

func (s *server) routes(limiter *rate.Limiter) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.Handle("POST /api/answer", mid.RateLimit(limiter)(http.HandlerFunc(s.handleAnswer)))
	mux.HandleFunc("POST /api/reload", s.handleReload)
	return mux
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Stats())
}

func (s *server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var q domain.Query
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.ask(r.Context(), q).Unwrap()
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("answer failed", "question_type", q.Type.String(), "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.reload(r.Context()); err != nil {
		s.logger.Error("graph reload failed", "err", err)
		writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	writeJSON(w, http.StatusOK, s.Stats())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
