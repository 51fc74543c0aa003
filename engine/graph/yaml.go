package graph

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseSnapshot decodes a YAML dataset and builds a Snapshot. Unknown keys
// are rejected so typos in a hand-edited dataset surface at load time.
func ParseSnapshot(r io.Reader) (*Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var data SnapshotData
	if err := dec.Decode(&data); err != nil && err != io.EOF {
		return nil, fmt.Errorf("graph: parse snapshot: %w", err)
	}
	snap, err := NewSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("graph: parse snapshot: %w", err)
	}
	return snap, nil
}

// LoadSnapshotFile reads a YAML dataset from disk.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: load snapshot %s: %w", path, err)
	}
	return ParseSnapshot(bytes.NewReader(raw))
}
