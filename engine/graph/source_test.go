package graph

import (
	"context"
	"testing"
)

func TestSourceUnknownKind(t *testing.T) {
	if _, err := (Source{Kind: "csv"}).Load(context.Background(), nil); err == nil {
		t.Fatal("expected an error for an unknown source kind")
	}
}

func TestSourceYAML(t *testing.T) {
	src := Source{Kind: SourceYAML, Path: "testdata/aviation.yaml"}
	snap, err := src.Load(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Indexes()) == 0 {
		t.Fatal("fixture should have indexes")
	}
	if src.String() != "testdata/aviation.yaml" {
		t.Fatalf("String() = %q", src.String())
	}
}

func TestSourceDefaultsToYAML(t *testing.T) {
	if _, err := (Source{Path: "testdata/missing.yaml"}).Load(context.Background(), nil); err == nil {
		t.Fatal("expected a file error")
	}
	neo := Source{Kind: SourceNeo4j, URL: "neo4j://db:7687", Path: "ignored"}
	if neo.String() != "neo4j://db:7687" {
		t.Fatalf("String() = %q", neo.String())
	}
}
