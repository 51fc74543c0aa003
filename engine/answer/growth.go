package answer

import (
	"fmt"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
)

func (s *search) IndexGrowth(q domain.Query) string {
	y := s.year()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, idx := range found {
		parts = append(parts, s.growth(idx, nil, y))
	}
	return join(withMissing(parts, missing))
}

func (s *search) AreaGrowth(q domain.Query) string {
	y := s.year()
	areas, missingAreas := s.areas()
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	for _, a := range areas {
		for _, idx := range found {
			parts = append(parts, s.growth(idx, a, y))
		}
	}
	return join(withMissing(parts, missing, missingAreas))
}

// growth is the year-over-year change of idx in y.
func (s *search) growth(idx *graph.Index, a *graph.Area, y int) string {
	name := entity(idx, a)
	cur, prev := s.res.Record(idx, y, a), s.res.Record(idx, y-1, a)
	if !cur.OK() {
		return fmt.Sprintf(tmplGrowthNoData, y, name)
	}
	if !cur.Value.Numeric {
		return fmt.Sprintf(tmplGrowthNotNum, y, name)
	}
	if !prev.OK() {
		return fmt.Sprintf(tmplGrowthNoData, y-1, name)
	}
	if !prev.Value.Numeric {
		return fmt.Sprintf(tmplGrowthNotNum, y-1, name)
	}
	if prev.Value.Number == 0 {
		return fmt.Sprintf(tmplZeroBase, fmt.Sprintf("%d年的%s", y-1, name))
	}
	pct := (cur.Value.Number - prev.Value.Number) / prev.Value.Number * 100
	word, mag := signed(pct, 2, wordGrowth, wordDecline)
	return fmt.Sprintf(tmplGrowth, y, name, cur.Value, idx.Unit, prev.Value, idx.Unit, word, mag)
}
