// Package graph holds the civil-aviation statistics knowledge graph: years,
// catalogs, indexes, areas and the records linking them. The graph is loaded
// once (from Neo4j or a YAML snapshot) into an immutable Snapshot that is
// safe for concurrent readers.
package graph

import "strconv"

// NoUnit is how an index without a unit is spelled in answers.
const NoUnit = "None"

// Year is a statistics year and its overall description, if any.
type Year struct {
	Year        int
	Description string
}

// Catalog is a topic group of indexes, e.g. 运输航空.
type Catalog struct {
	ID           int64
	Name         string
	descriptions map[int]string
}

// Description returns the catalog's status text for a year.
func (c *Catalog) Description(year int) (string, bool) {
	d, ok := c.descriptions[year]
	return d, ok && d != ""
}

// Index is a tracked metric. A parent index is the whole this index is a
// part of; children are ordered by ID.
type Index struct {
	ID       int64
	Name     string
	Unit     string // empty for non-quantitative indexes
	Catalog  *Catalog
	Parent   *Index
	Children []*Index
}

// HasUnit reports whether the index is quantitative.
func (i *Index) HasUnit() bool { return i.Unit != "" }

// UnitLabel returns the unit, or NoUnit when the index has none.
func (i *Index) UnitLabel() string {
	if i.Unit == "" {
		return NoUnit
	}
	return i.Unit
}

// Area is a geographic scope. Label is the display form used in answers
// (国内 → 国内航线); it defaults to Name.
type Area struct {
	ID     int64
	Name   string
	Label  string
	Parent *Area
}

// Value is a record's payload: a number, or opaque text that cannot take
// part in arithmetic.
type Value struct {
	Number  float64
	Text    string
	Numeric bool
}

// Num returns a numeric value.
func Num(f float64) Value { return Value{Number: f, Numeric: true} }

// Text returns a non-numeric value.
func Text(s string) Value { return Value{Text: s} }

// String renders the value the way the answers print numbers: shortest
// round-trip form, always with a fractional part (27199 → "27199.0").
func (v Value) String() string {
	if !v.Numeric {
		return v.Text
	}
	return FormatNumber(v.Number)
}

// FormatNumber prints f in shortest round-trip form with at least one
// fractional digit.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}

type recordKey struct {
	index int64
	year  int
	area  int64 // 0 for whole-index records
}
