package answer

import (
	"fmt"

	"github.com/WessleyAI/cakg/engine/domain"
	"github.com/WessleyAI/cakg/engine/graph"
	"github.com/WessleyAI/cakg/engine/render"
)

// trendMode selects what a multi-year answer plots.
type trendMode int

const (
	trendValues trendMode = iota
	trendShares
	trendExtremes
)

// target is one index, optionally scoped to an area, taking part in a
// multi-year answer.
type target struct {
	idx  *graph.Index
	area *graph.Area
}

func (t target) name() string { return entity(t.idx, t.area) }

func (s *search) IndexTrend(q domain.Query) string      { return s.trend(q, false, trendValues) }
func (s *search) AreaTrend(q domain.Query) string       { return s.trend(q, true, trendValues) }
func (s *search) IndexShareTrend(q domain.Query) string { return s.trend(q, false, trendShares) }
func (s *search) AreaShareTrend(q domain.Query) string  { return s.trend(q, true, trendShares) }
func (s *search) IndexExtreme(q domain.Query) string    { return s.trend(q, false, trendExtremes) }
func (s *search) AreaExtreme(q domain.Query) string     { return s.trend(q, true, trendExtremes) }

// trend pre-checks every requested entity over the query's year span.
// Entities that fail get a sentence; the rest are drawn on one chart and
// the answer points at it. Failures come first.
func (s *search) trend(q domain.Query, byArea bool, mode trendMode) string {
	years := s.res.Span(q.Years)
	found, missing := s.res.Indexes(q.Indexes)

	var targets []target
	var missingAreas []string
	if byArea {
		var areas []*graph.Area
		areas, missingAreas = s.areas()
		for _, a := range areas {
			for _, idx := range found {
				targets = append(targets, target{idx, a})
			}
		}
	} else {
		for _, idx := range found {
			targets = append(targets, target{idx: idx})
		}
	}

	var parts []string
	var passed []target
	for _, t := range targets {
		if fail := s.precheck(t, years, mode == trendShares); fail != "" {
			parts = append(parts, fail)
			continue
		}
		passed = append(passed, t)
	}
	parts = withMissing(parts, missing, missingAreas)

	if len(passed) > 0 {
		if msg := s.rendered(s.trendChart(passed, years, mode)); msg != "" {
			parts = append(parts, msg)
		}
	}
	return join(parts)
}

// precheck reports why t cannot be plotted over years, or "".
func (s *search) precheck(t target, years []int, needWhole bool) string {
	if !s.res.HasAnyRecord(t.idx, t.area, years) {
		return fmt.Sprintf(tmplTrendNoRecord, t.name())
	}
	if needWhole {
		whole, ok := t.whole()
		if !ok || !s.res.HasAnyRecord(whole.idx, whole.area, years) {
			return fmt.Sprintf(tmplTrendNoParent, t.name())
		}
		if !s.numeric(whole, years) {
			return fmt.Sprintf(tmplTrendNotNum, whole.name())
		}
	}
	if !s.numeric(t, years) {
		return fmt.Sprintf(tmplTrendNotNum, t.name())
	}
	return ""
}

// whole is the index or area t is a part of.
func (t target) whole() (target, bool) {
	if t.area != nil {
		if t.area.Parent == nil {
			return target{}, false
		}
		return target{t.idx, t.area.Parent}, true
	}
	if t.idx.Parent == nil {
		return target{}, false
	}
	return target{idx: t.idx.Parent}, true
}

// numeric reports whether t is quantitative and every record of it in
// years is a number.
func (s *search) numeric(t target, years []int) bool {
	if !t.idx.HasUnit() {
		return false
	}
	for _, l := range s.res.Series(t.idx, t.area, years) {
		if !l.Value.Numeric {
			return false
		}
	}
	return true
}

func (s *search) series(idx *graph.Index, area *graph.Area, name string, years []int) render.Series {
	out := render.Series{Name: name, Unit: idx.Unit}
	for _, l := range s.res.Series(idx, area, years) {
		if l.Value.Numeric {
			out.Points = append(out.Points, render.Point{Year: l.Year, Value: l.Value.Number})
		}
	}
	return out
}

func (s *search) trendChart(targets []target, years []int, mode trendMode) render.Chart {
	chart := render.Chart{Kind: render.Line, Years: years}
	for _, t := range targets {
		label := t.name()
		if t.area != nil {
			label = t.area.Label + t.idx.Name
		}
		switch mode {
		case trendShares:
			chart.Kind = render.Share
			chart.Series = append(chart.Series, s.shareSeries(t, label, years))
		case trendExtremes:
			chart.Kind = render.Bar
			sr := s.series(t.idx, t.area, label, years)
			chart.Series = append(chart.Series, sr)
			if note := extremesNote(sr); note != "" {
				chart.Notes = append(chart.Notes, note)
			}
		default:
			chart.Series = append(chart.Series, s.series(t.idx, t.area, label, years))
		}
	}
	return chart
}

// shareSeries is t's percentage of its whole for every year both exist.
func (s *search) shareSeries(t target, label string, years []int) render.Series {
	whole, _ := t.whole()
	out := render.Series{Name: label + "占比", Unit: "%"}
	for _, part := range s.res.Series(t.idx, t.area, years) {
		w := s.res.Record(whole.idx, part.Year, whole.area)
		if !w.OK() || w.Value.Number == 0 {
			continue
		}
		out.Points = append(out.Points, render.Point{
			Year:  part.Year,
			Value: round(part.Value.Number/w.Value.Number*100, 2),
		})
	}
	return out
}

// extremesNote names the years of the largest and smallest values.
func extremesNote(sr render.Series) string {
	if len(sr.Points) == 0 {
		return ""
	}
	hi, lo := sr.Points[0], sr.Points[0]
	for _, p := range sr.Points[1:] {
		if p.Value > hi.Value {
			hi = p
		}
		if p.Value < lo.Value {
			lo = p
		}
	}
	return fmt.Sprintf("%s：最大值为%d年的%s%s，最小值为%d年的%s%s", sr.Name,
		hi.Year, graph.FormatNumber(hi.Value), sr.Unit, lo.Year, graph.FormatNumber(lo.Value), sr.Unit)
}
