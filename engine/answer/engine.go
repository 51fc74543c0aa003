// Package answer computes and phrases answers to classified questions about
// the civil-aviation statistics graph.
//
// Each question type has one analysis routine. Missing or incomparable data
// never fails a search: it becomes a fixed explanatory sentence. Only a
// malformed query or a failed chart render is returned as an error.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/render"
	"github.com/WessleyAI/cakg/engine/resolve"
	"github.com/WessleyAI/cakg/pkg/metrics"
)

// ErrNoRenderer is returned when a question needs a chart and the engine
// was built without a renderer.
var ErrNoRenderer = errors.New("answer: no renderer configured")

// Options configures an Engine.
type Options struct {
	Renderer render.Renderer
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Engine answers queries against one immutable graph snapshot. It holds no
// per-query state and is safe for concurrent use.
type Engine struct {
	res      *resolve.Resolver
	renderer render.Renderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates an Engine over g.
func New(g *graph.Snapshot, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		res:      resolve.New(g),
		renderer: opts.Renderer,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// Search answers q. The returned error wraps domain.ErrInvalidQuery for
// malformed queries; domain-level gaps are reported in the answer text.
func (e *Engine) Search(ctx context.Context, q domain.Query) (string, error) {
	start := time.Now()
	s := &search{Engine: e, ctx: ctx, q: q}

	text, err := domain.Dispatch[string](q, s)
	switch {
	case err != nil:
		e.metrics.ObserveQuestion(q.Type.String(), "invalid", time.Since(start))
		return "", fmt.Errorf("answer: search: %w", err)
	case s.err != nil:
		e.metrics.ObserveQuestion(q.Type.String(), "error", time.Since(start))
		return "", fmt.Errorf("answer: %s: %w", q.Type, s.err)
	}

	e.metrics.ObserveQuestion(q.Type.String(), "answered", time.Since(start))
	e.logger.Debug("question answered",
		"question_type", q.Type.String(),
		"indexes", len(q.Indexes),
		"areas", len(q.Areas),
		"took", time.Since(start),
	)
	return text, nil
}

// search carries one query through the analysis routines. It implements
// domain.Visitor[string].
type search struct {
	*Engine
	ctx context.Context
	q   domain.Query
	err error // first infrastructure failure, if any
}

var _ domain.Visitor[string] = (*search)(nil)

func (s *search) years() []int { return s.res.Years(s.q.Years) }

// year is the single year single-year families answer for.
func (s *search) year() int {
	if ys := s.years(); len(ys) > 0 {
		return ys[0]
	}
	return 0
}

// yearPair returns the first two distinct resolved years in query order.
// When both references name the same year the comparison year is the one
// before it.
func (s *search) yearPair() (int, int, bool) {
	ys := s.years()
	switch len(ys) {
	case 0:
		return 0, 0, false
	case 1:
		return ys[0], ys[0] - 1, true
	}
	return ys[0], ys[1], true
}

// areas resolves area names in query order.
func (s *search) areas() (found []*graph.Area, missing []string) {
	seen := make(map[string]bool)
	for _, n := range s.q.Areas {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		if a, o := s.res.Area(n); o == resolve.Found {
			found = append(found, a)
		} else {
			missing = append(missing, n)
		}
	}
	return found, missing
}

// withMissing appends a not-found sentence per unknown name.
func withMissing(parts []string, missing ...[]string) []string {
	for _, names := range missing {
		for _, n := range names {
			parts = append(parts, notFound(n))
		}
	}
	return parts
}

// rendered asks the renderer for a chart and phrases the delegation
// sentence. A failure is kept on s and fails the whole search.
func (s *search) rendered(chart render.Chart) string {
	if s.renderer == nil {
		s.fail(ErrNoRenderer)
		return ""
	}
	path, err := s.renderer.Render(s.ctx, s.q.Question, chart)
	s.metrics.ObserveRender(err)
	if err != nil {
		s.logger.Warn("chart render failed", "question_type", s.q.Type.String(), "err", err)
		s.fail(fmt.Errorf("render: %w", err))
		return ""
	}
	return fmt.Sprintf(tmplRendered, path)
}

func (s *search) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}
