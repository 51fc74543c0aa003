package answer

import (
	"fmt"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/resolve"
)

// pairOp is the arithmetic applied to two comparable lookups.
type pairOp int

const (
	opRatio pairOp = iota
	opDiff
)

// checkComparable checks that two lookups can take part in arithmetic. A
// non-empty string is the failure sentence.
func checkComparable(a, b resolve.Lookup) string {
	for _, l := range [2]resolve.Lookup{a, b} {
		if !l.OK() {
			name := ""
			if l.Area != nil {
				name = l.Area.Name
			}
			return fmt.Sprintf(tmplCompareNoRec, name+l.Index.Name)
		}
	}
	for _, l := range [2]resolve.Lookup{a, b} {
		if !l.Value.Numeric {
			return fmt.Sprintf(tmplInvalidValue, l.Index.Name)
		}
	}
	return ""
}

// pairSentence phrases a ratio or difference of two same-year values. The
// names are how each side is introduced ("国内航线的运输总周转量").
func pairSentence(op pairOp, nameA, nameB string, a, b resolve.Lookup) string {
	if fail := checkComparable(a, b); fail != "" {
		return fail
	}
	va, vb := a.Value.Number, b.Value.Number
	unit := a.Index.Unit
	switch op {
	case opRatio:
		if vb == 0 {
			return fmt.Sprintf(tmplZeroBase, nameB)
		}
		if va == 0 {
			return fmt.Sprintf(tmplZeroBase, nameA)
		}
		return fmt.Sprintf(tmplRatio, nameA, a.Value, unit, nameB, b.Value, b.Index.Unit,
			num(va/vb, 3), num(vb/va, 3))
	default:
		word, d := signed(va-vb, 2, wordMore, wordLess)
		return fmt.Sprintf(tmplDiff, nameA, a.Value, unit, nameB, b.Value, b.Index.Unit, word, d, unit)
	}
}

func (s *search) IndexRatio(q domain.Query) string { return s.crossIndex(q, opRatio) }
func (s *search) IndexDiff(q domain.Query) string  { return s.crossIndex(q, opDiff) }

// crossIndex compares the first index in canonical order with each of the
// others in the same year.
func (s *search) crossIndex(q domain.Query, op pairOp) string {
	y := s.year()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for i := 1; i < len(found); i++ {
		a, b := found[0], found[i]
		if !a.HasUnit() || !b.HasUnit() || a.Unit != b.Unit {
			parts = append(parts, fmt.Sprintf(tmplUnitMismatch, a.Name, a.UnitLabel(), b.Name, b.UnitLabel()))
			continue
		}
		parts = append(parts, pairSentence(op, a.Name, b.Name, s.res.Record(a, y, nil), s.res.Record(b, y, nil)))
	}
	return join(withMissing(parts, missing))
}

func (s *search) AreaRatio(q domain.Query) string { return s.crossArea(q, opRatio) }
func (s *search) AreaDiff(q domain.Query) string  { return s.crossArea(q, opDiff) }

// crossArea compares each index between the first named area and each of
// the other areas.
func (s *search) crossArea(q domain.Query, op pairOp) string {
	y := s.year()
	areas, missingAreas := s.areas()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, idx := range found {
		for i := 1; i < len(areas); i++ {
			a, b := areas[0], areas[i]
			parts = append(parts, pairSentence(op,
				a.Label+"的"+idx.Name, b.Label+"的"+idx.Name,
				s.res.Record(idx, y, a), s.res.Record(idx, y, b)))
		}
	}
	return join(withMissing(parts, missing, missingAreas))
}

func (s *search) IndexTimeRatio(q domain.Query) string { return s.crossTime(q, opRatio, false) }
func (s *search) IndexTimeDiff(q domain.Query) string  { return s.crossTime(q, opDiff, false) }
func (s *search) AreaTimeRatio(q domain.Query) string  { return s.crossTime(q, opRatio, true) }
func (s *search) AreaTimeDiff(q domain.Query) string   { return s.crossTime(q, opDiff, true) }

// crossTime compares each entity's value in the query's first year with
// its value in the comparison year.
func (s *search) crossTime(q domain.Query, op pairOp, byArea bool) string {
	y1, y2, ok := s.yearPair()
	if !ok {
		return ""
	}
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	if !byArea {
		for _, idx := range found {
			parts = append(parts, timeSentence(op, idx, nil, s.res.Record(idx, y1, nil), s.res.Record(idx, y2, nil)))
		}
		return join(withMissing(parts, missing))
	}

	areas, missingAreas := s.areas()
	for _, a := range areas {
		for _, idx := range found {
			parts = append(parts, timeSentence(op, idx, a, s.res.Record(idx, y1, a), s.res.Record(idx, y2, a)))
		}
	}
	return join(withMissing(parts, missing, missingAreas))
}

func timeSentence(op pairOp, idx *graph.Index, area *graph.Area, cur, prev resolve.Lookup) string {
	name := entity(idx, area)
	for _, l := range [2]resolve.Lookup{cur, prev} {
		if !l.OK() {
			return fmt.Sprintf(tmplTimeNoRec, l.Year, name)
		}
	}
	if !cur.Value.Numeric || !prev.Value.Numeric {
		return fmt.Sprintf(tmplInvalidValue, idx.Name)
	}
	v1, v2 := cur.Value.Number, prev.Value.Number
	switch op {
	case opRatio:
		if v2 == 0 {
			return fmt.Sprintf(tmplZeroBase, fmt.Sprintf("%d年的%s", prev.Year, name))
		}
		return fmt.Sprintf(tmplTimeRatio, cur.Year, name, cur.Value, idx.Unit,
			prev.Year, prev.Value, idx.Unit, num(v1/v2, 3))
	default:
		word, d := signed(v1-v2, 2, wordIncrease, wordDecrease)
		return fmt.Sprintf(tmplTimeDiff, cur.Year, name, cur.Value, idx.Unit,
			prev.Year, prev.Value, idx.Unit, word, d, idx.Unit)
	}
}
