package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/cakg/pkg/fn"
)

// Source kinds.
const (
	SourceYAML  = "yaml"
	SourceNeo4j = "neo4j"
)

// Source says where a snapshot is loaded from.
type Source struct {
	Kind string

	// Path is the dataset file for SourceYAML.
	Path string

	URL      string
	User     string
	Pass     string
	Database string

	// Retry governs connecting to Neo4j. Zero means fn.DefaultRetry.
	Retry fn.RetryOpts
}

func (s Source) String() string {
	if s.Kind == SourceNeo4j {
		return s.URL
	}
	return s.Path
}

// Load builds a fresh snapshot from the source.
func (s Source) Load(ctx context.Context, logger *slog.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch s.Kind {
	case SourceYAML, "":
		return LoadSnapshotFile(s.Path)
	case SourceNeo4j:
		driver, err := s.Connect(ctx, logger)
		if err != nil {
			return nil, err
		}
		defer driver.Close(ctx)
		return NewNeo4jLoader(driver, s.Database).Load(ctx)
	default:
		return nil, fmt.Errorf("graph: unknown source kind %q", s.Kind)
	}
}

// Connect opens a Neo4j driver and waits, with retries, until the server
// answers.
func (s Source) Connect(ctx context.Context, logger *slog.Logger) (neo4j.DriverWithContext, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(s.URL, neo4j.BasicAuth(s.User, s.Pass, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: neo4j driver: %w", err)
	}

	opts := s.Retry
	if opts.MaxAttempts == 0 {
		opts = fn.DefaultRetry
	}
	opts.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("neo4j not reachable, retrying", "url", s.URL, "attempt", attempt, "wait", wait, "err", err)
	}
	res := fn.Retry(ctx, opts, func(ctx context.Context) fn.Result[struct{}] {
		return fn.FromPair(struct{}{}, driver.VerifyConnectivity(ctx))
	})
	if err := res.Err(); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("graph: connect %s: %w", s.URL, err)
	}
	return driver, nil
}
