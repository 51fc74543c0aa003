package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/pkg/fn"
)

// =============================================================================
// ASK
// =============================================================================

type askFlags struct {
	query    string
	typ      string
	years    []string
	indexes  []string
	areas    []string
	catalogs []string
}

func newAskCmd(o *options) *cobra.Command {
	a := &askFlags{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one classified question",
		Example: `  cakg ask --type index_value --year 2011 --index 旅客运输量 "2011年旅客运输量是多少？"
  cakg ask --type indexes_trend --year 2011-2014 --index 货邮周转量
  cakg ask --query '{"type":"begin_stats","indexes":["旅客运输量"]}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.build(args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			ask, closeFn, err := o.answerer(ctx, o.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeFn()

			text, err := ask(ctx, q)
			if err != nil {
				return err
			}
			if o.json {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"question": q.Question,
					"type":     q.Type.String(),
					"answer":   text,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.query, "query", "", "the whole query as JSON; other query flags are ignored")
	f.StringVarP(&a.typ, "type", "t", "", "question type (see cakg types)")
	f.StringSliceVarP(&a.years, "year", "y", nil, "year: 2011, 11, 2011-2013, or -N for N years before the first year")
	f.StringSliceVarP(&a.indexes, "index", "i", nil, "index name")
	f.StringSliceVarP(&a.areas, "area", "a", nil, "area name")
	f.StringSliceVarP(&a.catalogs, "catalog", "c", nil, "catalog name")
	return cmd
}

func (a *askFlags) build(args []string) (domain.Query, error) {
	var q domain.Query
	if a.query != "" {
		if err := json.Unmarshal([]byte(a.query), &q); err != nil {
			return q, fmt.Errorf("parse --query: %w", err)
		}
	} else {
		if a.typ == "" {
			return q, errors.New("either --type or --query is required")
		}
		typ, err := domain.ParseQuestionType(a.typ)
		if err != nil {
			return q, err
		}
		q.Type = typ
		for _, s := range a.years {
			y, err := parseYearRef(s)
			if err != nil {
				return q, err
			}
			q.Years = append(q.Years, y)
		}
		q.Indexes, q.Areas, q.Catalogs = a.indexes, a.areas, a.catalogs
	}
	if len(args) == 1 {
		q.Question = args[0]
	}
	return q, nil
}

// parseYearRef reads "2011", "11", "2011-2013" or "-2".
func parseYearRef(s string) (domain.YearRef, error) {
	s = strings.TrimSpace(s)
	if back, ok := strings.CutPrefix(s, "-"); ok {
		n, err := strconv.Atoi(back)
		if err != nil || n <= 0 {
			return domain.YearRef{}, fmt.Errorf("bad relative year %q", s)
		}
		return domain.YearsAgo(n), nil
	}
	if from, to, ok := strings.Cut(s, "-"); ok {
		a, err1 := strconv.Atoi(from)
		b, err2 := strconv.Atoi(to)
		if err1 != nil || err2 != nil {
			return domain.YearRef{}, fmt.Errorf("bad year range %q", s)
		}
		return domain.YearSpan(a, b), nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return domain.YearRef{}, fmt.Errorf("bad year %q", s)
	}
	return domain.Year(y), nil
}

// =============================================================================
// BATCH
// =============================================================================

type batchResult struct {
	Line     int    `json:"line"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newBatchCmd(o *options) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Answer JSON Lines queries from FILE (- for stdin)",
		Long: `batch reads one JSON query per line and prints one JSON result per line,
in input order. Blank lines are skipped. The command fails if any query
failed, after printing every result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			lines, err := readLines(in)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			ask, closeFn, err := o.answerer(ctx, o.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeFn()

			decode := fn.Stage[line, domain.Query](func(_ context.Context, l line) fn.Result[domain.Query] {
				var q domain.Query
				if err := json.Unmarshal([]byte(l.text), &q); err != nil {
					return fn.Errf[domain.Query]("parse query: %w", err)
				}
				return fn.Ok(q)
			})
			answerLine := fn.Then(decode, fn.Lift[domain.Query, string](ask))
			results := fn.ParMapResult[line, string](ctx, lines, workers, answerLine)

			failed := 0
			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetEscapeHTML(false)
			for i, r := range results {
				res := batchResult{Line: lines[i].n, Question: questionOf(lines[i].text)}
				if r.IsErr() {
					res.Error = r.Err().Error()
					failed++
				} else {
					res.Answer, _ = r.Unwrap()
				}
				if err := out.Encode(res); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d queries failed", failed, len(lines))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "queries answered in parallel")
	return cmd
}

type line struct {
	n    int
	text string
}

func readLines(r io.Reader) ([]line, error) {
	var out []line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for n := 1; sc.Scan(); n++ {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			out = append(out, line{n: n, text: t})
		}
	}
	return out, sc.Err()
}

func questionOf(raw string) string {
	var q struct {
		Question string `json:"question"`
	}
	_ = json.Unmarshal([]byte(raw), &q)
	return q.Question
}

// =============================================================================
// STATS
// =============================================================================

func newStatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show node and record counts of the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			snap, err := o.graphSource().Load(ctx, o.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			st := snap.Stats()
			if o.json {
				return writeJSON(cmd.OutOrStdout(), st)
			}

			_, err = io.WriteString(cmd.OutOrStdout(), renderStats(st))
			return err
		},
	}
}

// =============================================================================
// TYPES
// =============================================================================

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the question types",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range domain.QuestionTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
