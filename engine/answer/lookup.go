package answer

import (
	"fmt"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/resolve"
)

func (s *search) YearStatus(domain.Query) string {
	var parts []string
	for _, y := range s.years() {
		if node, ok := s.res.Graph().Year(y); ok && node.Description != "" {
			parts = append(parts, fmt.Sprintf(tmplYearStatus, y, node.Description))
		} else {
			parts = append(parts, fmt.Sprintf(tmplNoYearStatus, y))
		}
	}
	return join(parts)
}

func (s *search) CatalogStatus(q domain.Query) string {
	y := s.year()
	found, missing := s.res.Catalogs(q.Catalogs)
	var parts []string
	for _, c := range found {
		if desc, ok := c.Description(y); ok {
			parts = append(parts, fmt.Sprintf(tmplCatalogStatus, c.Name, y, desc))
		} else {
			parts = append(parts, fmt.Sprintf(tmplNoCatalogStatus, y, c.Name))
		}
	}
	return join(withMissing(parts, missing))
}

func (s *search) ExistCatalog(domain.Query) string {
	var parts []string
	for _, y := range s.years() {
		cats := s.res.Graph().CatalogsIn(y)
		if len(cats) == 0 {
			parts = append(parts, fmt.Sprintf(tmplNoCatalogs, y))
			continue
		}
		names := make([]string, len(cats))
		for i, c := range cats {
			names[i] = c.Name
		}
		parts = append(parts, fmt.Sprintf(tmplExistCatalogs, y, listNames(names)))
	}
	return join(parts)
}

func (s *search) IndexValue(q domain.Query) string {
	y := s.year()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, idx := range found {
		parts = append(parts, valueSentence(s.res.Record(idx, y, nil)))
	}
	return join(withMissing(parts, missing))
}

func (s *search) AreaValue(q domain.Query) string {
	y := s.year()
	areas, missingAreas := s.areas()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, a := range areas {
		for _, idx := range found {
			parts = append(parts, valueSentence(s.res.Record(idx, y, a)))
		}
	}
	return join(withMissing(parts, missing, missingAreas))
}

// valueSentence prints a record exactly as stored.
func valueSentence(l resolve.Lookup) string {
	label, name := "", ""
	if l.Area != nil {
		label, name = l.Area.Label, l.Area.Name
	}
	if !l.OK() {
		return fmt.Sprintf(tmplNoRecord, name, l.Index.Name)
	}
	return fmt.Sprintf(tmplValue, label, l.Index.Name, l.Value.String(), l.Index.Unit)
}

func (s *search) BeginStats(q domain.Query) string {
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, idx := range found {
		if y, o := s.res.FirstYear(idx); o == resolve.Found {
			parts = append(parts, fmt.Sprintf(tmplFirstYear, idx.Name, y))
		} else {
			parts = append(parts, fmt.Sprintf(tmplNeverRecorded, idx.Name))
		}
	}
	return join(withMissing(parts, missing))
}

// entity names an index, optionally scoped to an area, as the answers spell
// it in failure sentences.
func entity(idx *graph.Index, area *graph.Area) string {
	if area == nil {
		return idx.Name
	}
	return area.Name + idx.Name
}
