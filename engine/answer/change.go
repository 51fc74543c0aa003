package answer

import (
	"fmt"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/render"
)

// IndexCompose lists each index's direct children. Indexes without
// children get a sentence each; the rest share one composition chart.
func (s *search) IndexCompose(q domain.Query) string {
	found, missing := s.res.Indexes(q.Indexes)
	var parts []string
	var composed []*graph.Index
	for _, idx := range found {
		if len(idx.Children) == 0 {
			parts = append(parts, fmt.Sprintf(tmplNoComposition, idx.Name))
			continue
		}
		composed = append(composed, idx)
	}
	if len(composed) > 0 && len(parts) > 0 {
		s.logger.Warn("composition answer mixes empty and non-empty indexes",
			"question", q.Question, "empty", len(parts), "composed", len(composed))
	}
	parts = withMissing(parts, missing)
	if len(composed) > 0 {
		if msg := s.rendered(s.compositionChart(composed)); msg != "" {
			parts = append(parts, msg)
		}
	}
	return join(parts)
}

// compositionChart plots every child of the composed indexes over the
// query's years, or over every year the parent was recorded in.
func (s *search) compositionChart(composed []*graph.Index) render.Chart {
	years := s.res.Span(s.q.Years)
	if len(years) == 0 {
		years = s.res.Graph().RecordYears(composed[0])
	}
	chart := render.Chart{Kind: render.Bar, Years: years}
	for _, parent := range composed {
		for _, child := range parent.Children {
			chart.Series = append(chart.Series, s.series(child, nil, child.Name, years))
		}
	}
	return chart
}

func (s *search) CatalogChange(domain.Query) string {
	a, b, ok := s.orderedPair()
	if !ok {
		return ""
	}
	g := s.res.Graph()
	return changeSet(a, b, "目录", catalogNames(g.CatalogsIn(a)), catalogNames(g.CatalogsIn(b)))
}

func (s *search) IndexChange(domain.Query) string {
	a, b, ok := s.orderedPair()
	if !ok {
		return ""
	}
	g := s.res.Graph()
	return changeSet(a, b, "指标", indexNames(g.IndexesIn(a)), indexNames(g.IndexesIn(b)))
}

// orderedPair returns the query's two years ascending.
func (s *search) orderedPair() (int, int, bool) {
	y1, y2, ok := s.yearPair()
	later, earlier := laterFirst(y1, y2)
	return earlier, later, ok
}

// changeSet describes the symmetric difference of two years' name sets,
// from each year's point of view.
func changeSet(a, b int, noun string, inA, inB []string) string {
	side := func(from, to int, fromSet, toSet []string) string {
		have := make(map[string]bool, len(fromSet))
		for _, n := range fromSet {
			have[n] = true
		}
		var absent []string
		for _, n := range toSet {
			if !have[n] {
				absent = append(absent, n)
			}
		}
		if len(absent) == 0 {
			return fmt.Sprintf(tmplChangeSame, from, to, noun)
		}
		return fmt.Sprintf(tmplChangeDiff, from, to, len(absent), noun, listNames(absent))
	}
	return join([]string{side(a, b, inA, inB), side(b, a, inB, inA)})
}

func (s *search) IndexesChange(domain.Query) string {
	g := s.res.Graph()
	return s.countChart("指标数量", func(y int) []string { return indexNames(g.IndexesIn(y)) })
}

func (s *search) CatalogsChange(domain.Query) string {
	g := s.res.Graph()
	return s.countChart("目录数量", func(y int) []string { return catalogNames(g.CatalogsIn(y)) })
}

// countChart plots how many names each year of the query span has and
// lists them under the chart.
func (s *search) countChart(label string, namesIn func(int) []string) string {
	years := s.res.Span(s.q.Years)
	chart := render.Chart{Kind: render.Bar, Years: years}
	counts := render.Series{Name: label}
	for _, y := range years {
		names := namesIn(y)
		counts.Points = append(counts.Points, render.Point{Year: y, Value: float64(len(names))})
		chart.Notes = append(chart.Notes, fmt.Sprintf("%d年：%s", y, listNames(names)))
	}
	chart.Series = []render.Series{counts}
	return join([]string{s.rendered(chart)})
}

func catalogNames(cs []*graph.Catalog) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func indexNames(is []*graph.Index) []string {
	out := make([]string, len(is))
	for i, idx := range is {
		out[i] = idx.Name
	}
	return out
}
