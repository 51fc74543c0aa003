// Command cakg answers aviation statistics questions from the command line,
// either against a local graph or through the answer service over NATS.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/WessleyAI/cakg/engine/answer"
	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/render"
	"github.com/WessleyAI/cakg/pkg/natsutil"
)

// options holds the flags shared by every command.
type options struct {
	source     string
	snapshot   string
	neo4jURL   string
	neo4jUser  string
	neo4jPass  string
	neo4jDB    string
	resultsDir string
	natsURL    string
	subject    string
	timeout    time.Duration
	json       bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "cakg",
		Short: "Answer civil aviation statistics questions from the knowledge graph",
		Long: `cakg answers classified questions about the civil aviation statistics
graph. Queries run against a local YAML snapshot or Neo4j, or are sent to
a running answer service with --nats.`,
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&o.source, "source", envOr("GRAPH_SOURCE", graph.SourceYAML), "graph source: yaml|neo4j")
	f.StringVar(&o.snapshot, "snapshot", envOr("GRAPH_SNAPSHOT", "data/aviation.yaml"), "YAML dataset for --source yaml")
	f.StringVar(&o.neo4jURL, "neo4j-url", envOr("NEO4J_URL", "neo4j://localhost:7687"), "Neo4j URL")
	f.StringVar(&o.neo4jUser, "neo4j-user", envOr("NEO4J_USER", "neo4j"), "Neo4j user")
	f.StringVar(&o.neo4jPass, "neo4j-pass", envOr("NEO4J_PASS", "password"), "Neo4j password")
	f.StringVar(&o.neo4jDB, "neo4j-db", envOr("NEO4J_DATABASE", ""), "Neo4j database (empty for the server default)")
	f.StringVar(&o.resultsDir, "results", envOr("RESULTS_DIR", "results"), "directory for rendered charts")
	f.StringVar(&o.natsURL, "nats", envOr("NATS_URL", ""), "send queries to the answer service at this NATS URL")
	f.StringVar(&o.subject, "subject", envOr("NATS_SUBJECT", "cakg.ask"), "NATS subject of the answer service")
	f.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall timeout")
	f.BoolVar(&o.json, "json", false, "print JSON")
	f.BoolVar(&o.verbose, "verbose", false, "debug logging")

	root.AddCommand(
		newAskCmd(o),
		newBatchCmd(o),
		newStatsCmd(o),
		newTypesCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *options) graphSource() graph.Source {
	return graph.Source{
		Kind:     o.source,
		Path:     o.snapshot,
		URL:      o.neo4jURL,
		User:     o.neo4jUser,
		Pass:     o.neo4jPass,
		Database: o.neo4jDB,
	}
}

// answerFunc answers one query.
type answerFunc func(context.Context, domain.Query) (string, error)

// serviceReply mirrors the answer service's reply.
type serviceReply struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// answerer returns a local engine or a NATS client, depending on --nats. The
// returned close func releases the connection.
func (o *options) answerer(ctx context.Context, logger *slog.Logger) (answerFunc, func(), error) {
	if o.natsURL != "" {
		nc, err := nats.Connect(o.natsURL, nats.Name("cakg-cli"))
		if err != nil {
			return nil, nil, fmt.Errorf("nats connect %s: %w", o.natsURL, err)
		}
		ask := func(ctx context.Context, q domain.Query) (string, error) {
			r, err := natsutil.Request[domain.Query, serviceReply](ctx, nc, o.subject, q)
			return r.Answer, err
		}
		return ask, nc.Close, nil
	}

	snap, err := o.graphSource().Load(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	e := answer.New(snap, answer.Options{
		Renderer: render.NewHTMLRenderer(o.resultsDir),
		Logger:   logger,
	})
	return e.Search, func() {}, nil
}
