package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSnapshot is returned when loaded graph data breaks an invariant.
var ErrInvalidSnapshot = errors.New("graph: invalid snapshot")

// SnapshotData is the flat, serializable form of the graph produced by the
// loaders.
type SnapshotData struct {
	Years    []YearData    `yaml:"years"`
	Catalogs []CatalogData `yaml:"catalogs"`
	Areas    []AreaData    `yaml:"areas"`
	Indexes  []IndexData   `yaml:"indexes"`
}

type YearData struct {
	Year        int    `yaml:"year"`
	Description string `yaml:"description,omitempty"`
}

type CatalogData struct {
	ID           int64          `yaml:"id"`
	Name         string         `yaml:"name"`
	Descriptions map[int]string `yaml:"descriptions,omitempty"`
}

type AreaData struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name"`
	Label  string `yaml:"label,omitempty"`
	Parent string `yaml:"parent,omitempty"`
}

type IndexData struct {
	ID      int64        `yaml:"id"`
	Name    string       `yaml:"name"`
	Unit    string       `yaml:"unit,omitempty"`
	Catalog string       `yaml:"catalog,omitempty"`
	Parent  string       `yaml:"parent,omitempty"`
	Records []RecordData `yaml:"records,omitempty"`
}

// RecordData holds either Value (numeric) or Text (non-numeric).
type RecordData struct {
	Year  int      `yaml:"year"`
	Area  string   `yaml:"area,omitempty"`
	Value *float64 `yaml:"value,omitempty"`
	Text  string   `yaml:"text,omitempty"`
}

// Snapshot is the read-only graph handle shared by all queries. Every list
// it returns is ordered by node ID, which is the canonical answer order.
type Snapshot struct {
	years    map[int]*Year
	yearList []int

	catalogs    []*Catalog
	catalogName map[string]*Catalog

	areas    []*Area
	areaName map[string]*Area

	indexes   []*Index
	indexName map[string]*Index

	records map[recordKey]Value
	// recorded years per index, ascending
	indexYears map[int64][]int
}

// NewSnapshot builds and validates a Snapshot.
func NewSnapshot(d SnapshotData) (*Snapshot, error) {
	s := &Snapshot{
		years:       make(map[int]*Year),
		catalogName: make(map[string]*Catalog),
		areaName:    make(map[string]*Area),
		indexName:   make(map[string]*Index),
		records:     make(map[recordKey]Value),
		indexYears:  make(map[int64][]int),
	}
	for _, y := range d.Years {
		if _, dup := s.years[y.Year]; dup {
			return nil, fmt.Errorf("%w: duplicate year %d", ErrInvalidSnapshot, y.Year)
		}
		s.years[y.Year] = &Year{Year: y.Year, Description: y.Description}
	}
	if err := s.addCatalogs(d.Catalogs); err != nil {
		return nil, err
	}
	if err := s.addAreas(d.Areas); err != nil {
		return nil, err
	}
	if err := s.addIndexes(d.Indexes); err != nil {
		return nil, err
	}
	for y := range s.years {
		s.yearList = append(s.yearList, y)
	}
	sort.Ints(s.yearList)
	return s, nil
}

func (s *Snapshot) addCatalogs(cs []CatalogData) error {
	ids := make(map[int64]bool)
	for _, c := range cs {
		if c.ID <= 0 || ids[c.ID] {
			return fmt.Errorf("%w: catalog %q: bad or duplicate id %d", ErrInvalidSnapshot, c.Name, c.ID)
		}
		if _, dup := s.catalogName[c.Name]; dup || c.Name == "" {
			return fmt.Errorf("%w: catalog name %q", ErrInvalidSnapshot, c.Name)
		}
		ids[c.ID] = true
		cat := &Catalog{ID: c.ID, Name: c.Name, descriptions: make(map[int]string, len(c.Descriptions))}
		for y, text := range c.Descriptions {
			cat.descriptions[y] = text
		}
		s.catalogs = append(s.catalogs, cat)
		s.catalogName[c.Name] = cat
	}
	sort.Slice(s.catalogs, func(i, j int) bool { return s.catalogs[i].ID < s.catalogs[j].ID })
	return nil
}

func (s *Snapshot) addAreas(as []AreaData) error {
	ids := make(map[int64]bool)
	for _, a := range as {
		if a.ID <= 0 || ids[a.ID] {
			return fmt.Errorf("%w: area %q: bad or duplicate id %d", ErrInvalidSnapshot, a.Name, a.ID)
		}
		if _, dup := s.areaName[a.Name]; dup || a.Name == "" {
			return fmt.Errorf("%w: area name %q", ErrInvalidSnapshot, a.Name)
		}
		ids[a.ID] = true
		label := a.Label
		if label == "" {
			label = a.Name
		}
		area := &Area{ID: a.ID, Name: a.Name, Label: label}
		s.areas = append(s.areas, area)
		s.areaName[a.Name] = area
	}
	for _, a := range as {
		if a.Parent == "" {
			continue
		}
		parent, ok := s.areaName[a.Parent]
		if !ok {
			return fmt.Errorf("%w: area %q: unknown parent %q", ErrInvalidSnapshot, a.Name, a.Parent)
		}
		s.areaName[a.Name].Parent = parent
	}
	for _, a := range s.areas {
		if err := checkAcyclic(a.Name, func(n string) string {
			if p := s.areaName[n].Parent; p != nil {
				return p.Name
			}
			return ""
		}); err != nil {
			return err
		}
	}
	sort.Slice(s.areas, func(i, j int) bool { return s.areas[i].ID < s.areas[j].ID })
	return nil
}

func (s *Snapshot) addIndexes(is []IndexData) error {
	ids := make(map[int64]bool)
	for _, d := range is {
		if d.ID <= 0 || ids[d.ID] {
			return fmt.Errorf("%w: index %q: bad or duplicate id %d", ErrInvalidSnapshot, d.Name, d.ID)
		}
		if _, dup := s.indexName[d.Name]; dup || d.Name == "" {
			return fmt.Errorf("%w: index name %q", ErrInvalidSnapshot, d.Name)
		}
		ids[d.ID] = true
		idx := &Index{ID: d.ID, Name: d.Name, Unit: d.Unit}
		if d.Catalog != "" {
			cat, ok := s.catalogName[d.Catalog]
			if !ok {
				return fmt.Errorf("%w: index %q: unknown catalog %q", ErrInvalidSnapshot, d.Name, d.Catalog)
			}
			idx.Catalog = cat
		}
		s.indexes = append(s.indexes, idx)
		s.indexName[d.Name] = idx
	}
	sort.Slice(s.indexes, func(i, j int) bool { return s.indexes[i].ID < s.indexes[j].ID })

	for _, d := range is {
		if d.Parent == "" {
			continue
		}
		parent, ok := s.indexName[d.Parent]
		if !ok {
			return fmt.Errorf("%w: index %q: unknown parent %q", ErrInvalidSnapshot, d.Name, d.Parent)
		}
		s.indexName[d.Name].Parent = parent
	}
	for _, idx := range s.indexes {
		if err := checkAcyclic(idx.Name, func(n string) string {
			if p := s.indexName[n].Parent; p != nil {
				return p.Name
			}
			return ""
		}); err != nil {
			return err
		}
		if idx.Parent != nil {
			idx.Parent.Children = append(idx.Parent.Children, idx)
		}
	}

	for _, d := range is {
		idx := s.indexName[d.Name]
		seenYear := make(map[int]bool)
		for _, r := range d.Records {
			key := recordKey{index: idx.ID, year: r.Year}
			if r.Area != "" {
				area, ok := s.areaName[r.Area]
				if !ok {
					return fmt.Errorf("%w: index %q: record in unknown area %q", ErrInvalidSnapshot, d.Name, r.Area)
				}
				key.area = area.ID
			}
			if _, dup := s.records[key]; dup {
				return fmt.Errorf("%w: index %q: duplicate record for %d/%s", ErrInvalidSnapshot, d.Name, r.Year, r.Area)
			}
			if r.Value != nil {
				s.records[key] = Num(*r.Value)
			} else {
				s.records[key] = Text(r.Text)
			}
			if _, ok := s.years[r.Year]; !ok {
				s.years[r.Year] = &Year{Year: r.Year}
			}
			if !seenYear[r.Year] {
				seenYear[r.Year] = true
				s.indexYears[idx.ID] = append(s.indexYears[idx.ID], r.Year)
			}
		}
		sort.Ints(s.indexYears[idx.ID])
	}
	return nil
}

// checkAcyclic walks parent links from start and fails on a revisit.
func checkAcyclic(start string, parent func(string) string) error {
	seen := map[string]bool{start: true}
	for n := parent(start); n != ""; n = parent(n) {
		if seen[n] {
			return fmt.Errorf("%w: parent cycle through %q", ErrInvalidSnapshot, start)
		}
		seen[n] = true
	}
	return nil
}

// Year returns the year node, if the graph knows the year.
func (s *Snapshot) Year(y int) (*Year, bool) {
	n, ok := s.years[y]
	return n, ok
}

// Index looks up an index by name.
func (s *Snapshot) Index(name string) (*Index, bool) {
	i, ok := s.indexName[name]
	return i, ok
}

// Area looks up an area by name.
func (s *Snapshot) Area(name string) (*Area, bool) {
	a, ok := s.areaName[name]
	return a, ok
}

// Catalog looks up a catalog by name.
func (s *Snapshot) Catalog(name string) (*Catalog, bool) {
	c, ok := s.catalogName[name]
	return c, ok
}

// Indexes returns all indexes in ID order.
func (s *Snapshot) Indexes() []*Index { return s.indexes }

// Record returns the value of idx in year for area (nil for the whole
// index).
func (s *Snapshot) Record(idx *Index, year int, area *Area) (Value, bool) {
	key := recordKey{index: idx.ID, year: year}
	if area != nil {
		key.area = area.ID
	}
	v, ok := s.records[key]
	return v, ok
}

// RecordYears returns the years in which idx has any record, ascending.
func (s *Snapshot) RecordYears(idx *Index) []int { return s.indexYears[idx.ID] }

// FirstYear returns the earliest year with any record of idx.
func (s *Snapshot) FirstYear(idx *Index) (int, bool) {
	ys := s.indexYears[idx.ID]
	if len(ys) == 0 {
		return 0, false
	}
	return ys[0], true
}

// IndexesIn returns the indexes recorded in year, in ID order.
func (s *Snapshot) IndexesIn(year int) []*Index {
	var out []*Index
	for _, idx := range s.indexes {
		if s.recordedIn(idx, year) {
			out = append(out, idx)
		}
	}
	return out
}

// CatalogsIn returns the catalogs present in year, in ID order. A catalog
// is present when at least one of its indexes has a record that year.
func (s *Snapshot) CatalogsIn(year int) []*Catalog {
	present := make(map[int64]bool)
	for _, idx := range s.IndexesIn(year) {
		if idx.Catalog != nil {
			present[idx.Catalog.ID] = true
		}
	}
	var out []*Catalog
	for _, c := range s.catalogs {
		if present[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func (s *Snapshot) recordedIn(idx *Index, year int) bool {
	ys := s.indexYears[idx.ID]
	i := sort.SearchInts(ys, year)
	return i < len(ys) && ys[i] == year
}
