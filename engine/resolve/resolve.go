// Package resolve maps a query's entity names and year references onto the
// graph snapshot. Missing data is reported as an Outcome, never an error.
package resolve

import (
	"sort"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
)

// Outcome classifies a lookup.
type Outcome uint8

const (
	Found Outcome = iota
	// NotFound means the entity itself is unknown to the graph.
	NotFound
	// NoRecord means the entity is known but has no value for the year/area.
	NoRecord
	// NoParentRecord means the whole (parent index or area) has no value.
	NoParentRecord
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case NoRecord:
		return "no_record"
	case NoParentRecord:
		return "no_parent_record"
	}
	return "unknown"
}

// Lookup is the result of fetching one record.
type Lookup struct {
	Outcome Outcome
	Index   *graph.Index
	Area    *graph.Area
	Year    int
	Value   graph.Value
}

// OK reports whether the record was found.
func (l Lookup) OK() bool { return l.Outcome == Found }

// Resolver reads from an immutable snapshot and is safe for concurrent use.
type Resolver struct {
	g *graph.Snapshot
}

// New creates a Resolver over g.
func New(g *graph.Snapshot) *Resolver {
	return &Resolver{g: g}
}

// Graph returns the underlying snapshot.
func (r *Resolver) Graph() *graph.Snapshot { return r.g }

// Years resolves year references in query order. Two-digit years are
// expanded, ranges are expanded to every year they cover, and relative
// years count back from the first explicit year of the query. Duplicates
// are dropped.
func (r *Resolver) Years(refs []domain.YearRef) []int {
	anchor, anchored := 0, false
	for _, ref := range refs {
		if ref.Kind == domain.YearAbsolute || ref.Kind == domain.YearRange {
			anchor, anchored = domain.NormalizeYear(ref.Year), true
			break
		}
	}

	var out []int
	seen := make(map[int]bool)
	add := func(y int) {
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	for _, ref := range refs {
		switch ref.Kind {
		case domain.YearAbsolute:
			add(domain.NormalizeYear(ref.Year))
		case domain.YearRange:
			for y := domain.NormalizeYear(ref.Year); y <= domain.NormalizeYear(ref.End); y++ {
				add(y)
			}
		case domain.YearRelative:
			if anchored {
				add(anchor - ref.Offset)
			}
		}
	}
	return out
}

// Span resolves refs and returns every year from the earliest to the latest
// resolved year, ascending.
func (r *Resolver) Span(refs []domain.YearRef) []int {
	ys := r.Years(refs)
	if len(ys) == 0 {
		return nil
	}
	lo, hi := ys[0], ys[0]
	for _, y := range ys[1:] {
		lo, hi = min(lo, y), max(hi, y)
	}
	out := make([]int, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		out = append(out, y)
	}
	return out
}

// Indexes resolves index names. Known indexes are returned in ascending ID
// order, which is the canonical answer order; unknown names keep their
// query order. Repeated names are collapsed.
func (r *Resolver) Indexes(names []string) (found []*graph.Index, missing []string) {
	seen := make(map[string]bool)
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		if idx, ok := r.g.Index(n); ok {
			found = append(found, idx)
		} else {
			missing = append(missing, n)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, missing
}

// Catalogs resolves catalog names, known ones in ascending ID order.
func (r *Resolver) Catalogs(names []string) (found []*graph.Catalog, missing []string) {
	seen := make(map[string]bool)
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		if c, ok := r.g.Catalog(n); ok {
			found = append(found, c)
		} else {
			missing = append(missing, n)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, missing
}

// Area resolves one area name.
func (r *Resolver) Area(name string) (*graph.Area, Outcome) {
	if a, ok := r.g.Area(name); ok {
		return a, Found
	}
	return nil, NotFound
}

// Record fetches idx in year, scoped to area when area is non-nil.
func (r *Resolver) Record(idx *graph.Index, year int, area *graph.Area) Lookup {
	l := Lookup{Outcome: NoRecord, Index: idx, Area: area, Year: year}
	if v, ok := r.g.Record(idx, year, area); ok {
		l.Outcome, l.Value = Found, v
	}
	return l
}

// ParentRecord fetches the parent index of idx in year. It reports
// NoParentRecord when idx has no parent or the parent has no value.
func (r *Resolver) ParentRecord(idx *graph.Index, year int) Lookup {
	if idx.Parent == nil {
		return Lookup{Outcome: NoParentRecord, Index: idx, Year: year}
	}
	l := r.Record(idx.Parent, year, nil)
	if !l.OK() {
		l.Outcome = NoParentRecord
	}
	return l
}

// AreaParentRecord fetches idx in the parent area of area. It reports
// NoParentRecord when the area has no parent or the parent has no value.
func (r *Resolver) AreaParentRecord(idx *graph.Index, area *graph.Area, year int) Lookup {
	if area.Parent == nil {
		return Lookup{Outcome: NoParentRecord, Index: idx, Area: area, Year: year}
	}
	l := r.Record(idx, year, area.Parent)
	if !l.OK() {
		l.Outcome = NoParentRecord
	}
	return l
}

// HasAnyRecord reports whether idx (scoped to area) has a record in any of
// years.
func (r *Resolver) HasAnyRecord(idx *graph.Index, area *graph.Area, years []int) bool {
	for _, y := range years {
		if _, ok := r.g.Record(idx, y, area); ok {
			return true
		}
	}
	return false
}

// Series returns the records of idx (scoped to area) for each year that has
// one, in year order.
func (r *Resolver) Series(idx *graph.Index, area *graph.Area, years []int) []Lookup {
	var out []Lookup
	for _, y := range years {
		if l := r.Record(idx, y, area); l.OK() {
			out = append(out, l)
		}
	}
	return out
}

// FirstYear returns the earliest year idx has a record in, or NotFound.
func (r *Resolver) FirstYear(idx *graph.Index) (int, Outcome) {
	if y, ok := r.g.FirstYear(idx); ok {
		return y, Found
	}
	return 0, NotFound
}
