package domain

import (
	"fmt"
	"strings"
)

// requirement is the minimum number of entities a question type needs.
type requirement struct {
	years, indexes, areas, catalogs int
}

var requirements = [numQuestionTypes]requirement{
	YearStatus:       {years: 1},
	CatalogStatus:    {years: 1, catalogs: 1},
	ExistCatalog:     {years: 1},
	IndexValue:       {years: 1, indexes: 1},
	AreaValue:        {years: 1, indexes: 1, areas: 1},
	IndexShare:       {years: 1, indexes: 1},
	IndexShareChange: {years: 2, indexes: 1},
	IndexRatio:       {years: 1, indexes: 2},
	IndexTimeRatio:   {years: 2, indexes: 1},
	IndexDiff:        {years: 1, indexes: 2},
	IndexTimeDiff:    {years: 2, indexes: 1},
	IndexGrowth:      {years: 1, indexes: 1},
	AreaShare:        {years: 1, indexes: 1, areas: 1},
	AreaShareChange:  {years: 2, indexes: 1, areas: 1},
	AreaRatio:        {years: 1, indexes: 1, areas: 2},
	AreaTimeRatio:    {years: 2, indexes: 1, areas: 1},
	AreaDiff:         {years: 1, indexes: 1, areas: 2},
	AreaTimeDiff:     {years: 2, indexes: 1, areas: 1},
	AreaGrowth:       {years: 1, indexes: 1, areas: 1},
	IndexCompose:     {indexes: 1},
	CatalogChange:    {years: 2},
	IndexChange:      {years: 2},
	IndexesChange:    {years: 1},
	CatalogsChange:   {years: 1},
	IndexTrend:       {years: 1, indexes: 1},
	AreaTrend:        {years: 1, indexes: 1, areas: 1},
	IndexShareTrend:  {years: 1, indexes: 1},
	AreaShareTrend:   {years: 1, indexes: 1, areas: 1},
	IndexExtreme:     {years: 1, indexes: 1},
	AreaExtreme:      {years: 1, indexes: 1, areas: 1},
	BeginStats:       {indexes: 1},
}

// NormalizeYear expands two-digit years ("11年") to 2011.
func NormalizeYear(y int) int {
	if y >= 0 && y < 100 {
		return 2000 + y
	}
	return y
}

// ValidateQuery checks that q has a known type and the entities its type
// needs.
func ValidateQuery(q Query) error {
	if !q.Type.Valid() {
		return NewValidationError("type", q.Type.String(), ErrUnknownQuestionType)
	}
	req := requirements[q.Type]

	if len(q.Years) < req.years {
		return NewValidationError("years", fmt.Sprintf("%d < %d", len(q.Years), req.years), ErrMissingEntity)
	}
	if n := countDistinct(q.Indexes); n < req.indexes {
		return NewValidationError("indexes", fmt.Sprintf("%d < %d", n, req.indexes), ErrMissingEntity)
	}
	if n := countDistinct(q.Areas); n < req.areas {
		return NewValidationError("areas", fmt.Sprintf("%d < %d", n, req.areas), ErrMissingEntity)
	}
	if n := countDistinct(q.Catalogs); n < req.catalogs {
		return NewValidationError("catalogs", fmt.Sprintf("%d < %d", n, req.catalogs), ErrMissingEntity)
	}
	return validateYears(q.Years)
}

func validateYears(refs []YearRef) error {
	anchored := len(refs) == 0
	for _, y := range refs {
		switch y.Kind {
		case YearAbsolute:
			if y.Year < 0 {
				return NewValidationError("years", y.String(), ErrInvalidYear)
			}
			anchored = true
		case YearRange:
			if y.Year < 0 || NormalizeYear(y.End) < NormalizeYear(y.Year) {
				return NewValidationError("years", y.String(), ErrInvalidYear)
			}
			anchored = true
		case YearRelative:
			if y.Offset < 1 {
				return NewValidationError("years", y.String(), ErrInvalidYear)
			}
		default:
			return NewValidationError("years", y.String(), ErrInvalidYear)
		}
	}
	if !anchored {
		// "去年" alone has nothing to count back from.
		return NewValidationError("years", "relative only", ErrInvalidYear)
	}
	return nil
}

// countDistinct counts the different non-empty names. A pair question that
// names the same entity twice still has only one entity to compare.
func countDistinct(names []string) int {
	seen := make(map[string]struct{}, len(names))
	for _, s := range names {
		if s = strings.TrimSpace(s); s != "" {
			seen[s] = struct{}{}
		}
	}
	return len(seen)
}
