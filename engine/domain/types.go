// Package domain defines the query types handed to the answer engine by the
// upstream classifier and entity parser, and validates them at the engine's
// entry point.
package domain

import (
	"fmt"
	"strings"
)

// YearKind tells how a YearRef names its year(s).
type YearKind uint8

const (
	// YearAbsolute is a stated year such as 2011 or "11".
	YearAbsolute YearKind = iota
	// YearRelative is "去年", "前年" or "N年前", counted back from the
	// query's first explicit year.
	YearRelative
	// YearRange is an inclusive span such as 2011-13.
	YearRange
)

// YearRef is one year mention extracted from a question.
type YearRef struct {
	Kind   YearKind `json:"kind"`
	Year   int      `json:"year,omitempty"`   // absolute year, or range start
	End    int      `json:"end,omitempty"`    // range end (inclusive)
	Offset int      `json:"offset,omitempty"` // years back from the anchor
}

// Year returns an absolute year reference.
func Year(y int) YearRef { return YearRef{Kind: YearAbsolute, Year: y} }

// YearsAgo returns a reference n years before the query's explicit year.
func YearsAgo(n int) YearRef { return YearRef{Kind: YearRelative, Offset: n} }

// YearSpan returns an inclusive year range.
func YearSpan(from, to int) YearRef { return YearRef{Kind: YearRange, Year: from, End: to} }

func (y YearRef) String() string {
	switch y.Kind {
	case YearRelative:
		return fmt.Sprintf("-%d", y.Offset)
	case YearRange:
		return fmt.Sprintf("%d-%d", y.Year, y.End)
	default:
		return fmt.Sprintf("%d", y.Year)
	}
}

// Query is a classified question with its extracted entities, in the order
// they were mentioned.
type Query struct {
	// Question is the original question text. The renderer embeds it in
	// the output file name.
	Question string       `json:"question"`
	Type     QuestionType `json:"type"`
	Years    []YearRef    `json:"years,omitempty"`
	Indexes  []string     `json:"indexes,omitempty"`
	Areas    []string     `json:"areas,omitempty"`
	Catalogs []string     `json:"catalogs,omitempty"`
}

func (q Query) String() string {
	years := make([]string, len(q.Years))
	for i, y := range q.Years {
		years[i] = y.String()
	}
	return fmt.Sprintf("%s years=[%s] indexes=[%s] areas=[%s] catalogs=[%s]",
		q.Type, strings.Join(years, ","), strings.Join(q.Indexes, ","),
		strings.Join(q.Areas, ","), strings.Join(q.Catalogs, ","))
}
