package answer

import (
	"fmt"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/resolve"
)

// share is a part's proportion of its whole.
type share struct {
	part, whole resolve.Lookup
	pct         float64 // rounded to 2 places
	inverse     float64 // whole/part, rounded to 3 places
}

// computeShare validates a part/whole pair and divides. A non-empty string
// is the failure sentence.
func computeShare(part, whole resolve.Lookup) (share, string) {
	if part.Index.Unit != whole.Index.Unit {
		return share{}, fmt.Sprintf(tmplUnitMismatch,
			part.Index.Name, part.Index.UnitLabel(), whole.Index.Name, whole.Index.UnitLabel())
	}
	if !part.Value.Numeric || !whole.Value.Numeric {
		return share{}, fmt.Sprintf(tmplInvalidValue, entity(part.Index, part.Area))
	}
	if part.Value.Number == 0 {
		return share{}, fmt.Sprintf(tmplZeroBase, entity(part.Index, part.Area))
	}
	if whole.Value.Number == 0 {
		return share{}, fmt.Sprintf(tmplZeroBase, entity(whole.Index, whole.Area))
	}
	return share{
		part:    part,
		whole:   whole,
		pct:     round(part.Value.Number/whole.Value.Number*100, 2),
		inverse: round(whole.Value.Number/part.Value.Number, 3),
	}, ""
}

func (s *search) IndexShare(q domain.Query) string {
	y := s.year()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, idx := range found {
		parts = append(parts, s.indexShare(idx, y))
	}
	return join(withMissing(parts, missing))
}

func (s *search) indexShare(idx *graph.Index, y int) string {
	part := s.res.Record(idx, y, nil)
	if !part.OK() {
		return fmt.Sprintf(tmplNoRecord, "", idx.Name)
	}
	whole := s.res.ParentRecord(idx, y)
	if !whole.OK() {
		return fmt.Sprintf(tmplNoParent, idx.Name)
	}
	sh, fail := computeShare(part, whole)
	if fail != "" {
		return fail
	}
	p := whole.Index
	return fmt.Sprintf(tmplShare, idx.Name, part.Value, idx.Unit,
		p.Name, graph.FormatNumber(sh.pct), p.Name, graph.FormatNumber(sh.inverse))
}

func (s *search) AreaShare(q domain.Query) string {
	y := s.year()
	areas, missingAreas := s.areas()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, a := range areas {
		for _, idx := range found {
			parts = append(parts, s.areaShare(idx, a, y))
		}
	}
	return join(withMissing(parts, missing, missingAreas))
}

func (s *search) areaShare(idx *graph.Index, a *graph.Area, y int) string {
	part := s.res.Record(idx, y, a)
	if !part.OK() {
		return fmt.Sprintf(tmplAreaNoRecord, a.Name, idx.Name)
	}
	whole := s.res.AreaParentRecord(idx, a, y)
	if !whole.OK() {
		return fmt.Sprintf(tmplAreaNoParent, a.Name, idx.Name)
	}
	sh, fail := computeShare(part, whole)
	if fail != "" {
		return fail
	}
	pa := a.Parent.Name
	return fmt.Sprintf(tmplAreaShare, a.Label, idx.Name, part.Value, idx.Unit,
		pa, idx.Name, graph.FormatNumber(sh.pct), pa, idx.Name, graph.FormatNumber(sh.inverse))
}

// laterFirst orders two years newest first; share changes compare the
// later year against the earlier one.
func laterFirst(a, b int) (int, int) {
	if a < b {
		return b, a
	}
	return a, b
}

func (s *search) IndexShareChange(q domain.Query) string {
	y1, y2, ok := s.yearPair()
	if !ok {
		return ""
	}
	later, earlier := laterFirst(y1, y2)
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, idx := range found {
		parts = append(parts, s.shareChange(idx, nil, later, earlier))
	}
	return join(withMissing(parts, missing))
}

func (s *search) AreaShareChange(q domain.Query) string {
	y1, y2, ok := s.yearPair()
	if !ok {
		return ""
	}
	later, earlier := laterFirst(y1, y2)
	areas, missingAreas := s.areas()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, a := range areas {
		for _, idx := range found {
			parts = append(parts, s.shareChange(idx, a, later, earlier))
		}
	}
	return join(withMissing(parts, missing, missingAreas))
}

// shareChange compares idx's share of its whole in two years. With a nil
// area the whole is the parent index, otherwise the parent area.
func (s *search) shareChange(idx *graph.Index, a *graph.Area, later, earlier int) string {
	name := entity(idx, a)
	var shares [2]share
	for i, y := range [2]int{later, earlier} {
		part := s.res.Record(idx, y, a)
		if !part.OK() {
			return fmt.Sprintf(tmplYearsNoRecord, later, earlier, name)
		}
		var whole resolve.Lookup
		if a == nil {
			whole = s.res.ParentRecord(idx, y)
		} else {
			whole = s.res.AreaParentRecord(idx, a, y)
		}
		if !whole.OK() {
			return fmt.Sprintf(tmplYearsNoParent, later, earlier, name)
		}
		sh, fail := computeShare(part, whole)
		if fail != "" {
			return fail
		}
		shares[i] = sh
	}

	sentences := [2]string{}
	for i, y := range [2]int{later, earlier} {
		sh := shares[i]
		tmpl, wholeName := tmplShareYear, sh.whole.Index.Name
		if a != nil {
			tmpl, wholeName = tmplAreaShareYear, a.Parent.Name
		}
		sentences[i] = fmt.Sprintf(tmpl, y, name, sh.part.Value, idx.Unit,
			wholeName, sh.whole.Value, sh.whole.Index.Unit, graph.FormatNumber(sh.pct))
	}
	word, delta := signed(shares[0].pct-shares[1].pct, 2, wordRaise, wordDecline)
	return fmt.Sprintf(tmplShareChange, sentences[0], sentences[1], word, delta)
}
