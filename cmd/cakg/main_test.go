package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/pkg/natsutil"
)

const fixture = "../../engine/graph/testdata/aviation.yaml"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--source", "yaml", "--snapshot", fixture, "--results", t.TempDir(), "--nats", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAsk(t *testing.T) {
	out, err := run(t, "ask", "--type", "index_value", "--year", "2011", "--index", "货邮周转量")
	if err != nil {
		t.Fatal(err)
	}
	if out != "货邮周转量为173.91亿吨公里。\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAskQueryJSON(t *testing.T) {
	out, err := run(t, "--json", "ask", "--query", `{"type":"index_value","years":[{"kind":0,"year":2011}],"indexes":["货邮周转量"]}`, "2011年货邮周转量？")
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("%v: %s", err, out)
	}
	if got["answer"] != "货邮周转量为173.91亿吨公里。" || got["type"] != "index_value" || got["question"] != "2011年货邮周转量？" {
		t.Fatalf("unexpected output %+v", got)
	}
}

func TestAskErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{"no type", []string{"ask", "--index", "货邮周转量"}},
		{"unknown type", []string{"ask", "--type", "nope"}},
		{"bad year", []string{"ask", "--type", "index_value", "--year", "last", "--index", "货邮周转量"}},
		{"bad query json", []string{"ask", "--query", "{"}},
		{"invalid query", []string{"ask", "--type", "index_value", "--year", "2011"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := run(t, tc.args...); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseYearRef(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.YearRef
		wantErr bool
	}{
		{in: "2011", want: domain.Year(2011)},
		{in: "11", want: domain.Year(11)},
		{in: "2011-2013", want: domain.YearSpan(2011, 2013)},
		{in: "-2", want: domain.YearsAgo(2)},
		{in: "-0", wantErr: true},
		{in: "2011-x", wantErr: true},
		{in: "去年", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseYearRef(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseYearRef(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseYearRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.jsonl")
	body := strings.Join([]string{
		`{"question":"货邮周转量","type":"index_value","years":[{"kind":0,"year":2011}],"indexes":["货邮周转量"]}`,
		``,
		`{not json`,
		`{"question":"缺少指标","type":"index_value","years":[{"kind":0,"year":2011}]}`,
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "batch", "--workers", "2", path)
	if err == nil || !strings.Contains(err.Error(), "2 of 3") {
		t.Fatalf("expected 2 of 3 failures, got %v", err)
	}

	var results []batchResult
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		var r batchResult
		if err := json.Unmarshal([]byte(l), &r); err != nil {
			t.Fatalf("%v: %s", err, l)
		}
		results = append(results, r)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Line != 1 || results[0].Answer != "货邮周转量为173.91亿吨公里。" || results[0].Question != "货邮周转量" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Line != 3 || !strings.HasPrefix(results[1].Error, "parse query: ") {
		t.Errorf("malformed line should fail: %+v", results[1])
	}
	if results[2].Line != 4 || !strings.Contains(results[2].Error, "invalid query") {
		t.Errorf("invalid query should fail: %+v", results[2])
	}
}

func TestStats(t *testing.T) {
	out, err := run(t, "stats")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"indexes", "records", "YEAR", "2011"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestTypes(t *testing.T) {
	out, err := run(t, "types")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(domain.QuestionTypes()) || lines[0] != "year_status" {
		t.Fatalf("unexpected types output:\n%s", out)
	}
}

func TestAskOverNATS(t *testing.T) {
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	defer srv.Shutdown()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()

	sub, err := natsutil.Reply(nc, "test.ask", "", func(_ context.Context, q domain.Query) (serviceReply, error) {
		return serviceReply{ID: "1", Answer: q.Type.String() + ":" + strings.Join(q.Indexes, ",")}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--nats", srv.ClientURL(), "--subject", "test.ask", "ask", "--type", "begin_stats", "--index", "旅客运输量"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "begin_stats:旅客运输量\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
