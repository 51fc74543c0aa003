package mid

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/WessleyAI/cakg/pkg/metrics"
)

// statusWriter records the status code and body size written by the
// wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
	wrote  bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.status = http.StatusOK
		w.wrote = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Access logs one line per request and counts it by matched route pattern
// and status code. Requests that matched no route are reported as
// "unmatched". It must sit inside RequestID and outside the mux, where both
// the request id and the route pattern are visible. A nil log only counts.
func Access(log *slog.Logger, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(route, sw.status)
			if log == nil {
				return
			}
			log.Info("request",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.bytes,
				"request_id", RequestIDFrom(r.Context()),
				"duration", time.Since(start),
			)
		})
	}
}
