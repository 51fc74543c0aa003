package domain

import (
	"fmt"
)

// QuestionType is the classifier's tag for a question. The set is closed:
// every value is handled by a method of Visitor, and Dispatch is the only
// place that maps one to the other.
type QuestionType uint8

const (
	YearStatus QuestionType = iota
	CatalogStatus
	ExistCatalog
	IndexValue
	AreaValue
	IndexShare       // share of the parent index, one year
	IndexShareChange // share of the parent index, change between two years
	IndexRatio       // two indexes, same year
	IndexTimeRatio   // one index, two years
	IndexDiff
	IndexTimeDiff
	IndexGrowth // year-over-year
	AreaShare
	AreaShareChange
	AreaRatio
	AreaTimeRatio
	AreaDiff
	AreaTimeDiff
	AreaGrowth
	IndexCompose
	CatalogChange
	IndexChange
	IndexesChange
	CatalogsChange
	IndexTrend
	AreaTrend
	IndexShareTrend
	AreaShareTrend
	IndexExtreme
	AreaExtreme
	BeginStats

	numQuestionTypes
)

// Wire names follow the upstream classifier's tags.
var questionTypeNames = [numQuestionTypes]string{
	YearStatus:       "year_status",
	CatalogStatus:    "catalog_status",
	ExistCatalog:     "exist_catalog",
	IndexValue:       "index_value",
	AreaValue:        "area_value",
	IndexShare:       "index_overall",
	IndexShareChange: "index_2_overall",
	IndexRatio:       "indexes_m_compare",
	IndexTimeRatio:   "indexes_2m_compare",
	IndexDiff:        "indexes_n_compare",
	IndexTimeDiff:    "indexes_2n_compare",
	IndexGrowth:      "indexes_g_compare",
	AreaShare:        "area_overall",
	AreaShareChange:  "area_2_overall",
	AreaRatio:        "areas_m_compare",
	AreaTimeRatio:    "areas_2m_compare",
	AreaDiff:         "areas_n_compare",
	AreaTimeDiff:     "areas_2n_compare",
	AreaGrowth:       "areas_g_compare",
	IndexCompose:     "index_compose",
	CatalogChange:    "catalog_change",
	IndexChange:      "index_change",
	IndexesChange:    "indexes_change",
	CatalogsChange:   "catalogs_change",
	IndexTrend:       "indexes_trend",
	AreaTrend:        "areas_trend",
	IndexShareTrend:  "indexes_overall_trend",
	AreaShareTrend:   "areas_overall_trend",
	IndexExtreme:     "indexes_max",
	AreaExtreme:      "areas_max",
	BeginStats:       "begin_stats",
}

// QuestionTypes returns every question type in declaration order.
func QuestionTypes() []QuestionType {
	out := make([]QuestionType, numQuestionTypes)
	for i := range out {
		out[i] = QuestionType(i)
	}
	return out
}

// Valid reports whether t is a member of the closed set.
func (t QuestionType) Valid() bool { return t < numQuestionTypes }

func (t QuestionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("QuestionType(%d)", uint8(t))
	}
	return questionTypeNames[t]
}

// ParseQuestionType maps a classifier tag to its QuestionType.
func ParseQuestionType(s string) (QuestionType, error) {
	for i, name := range questionTypeNames {
		if name == s {
			return QuestionType(i), nil
		}
	}
	return 0, NewValidationError("type", s, ErrUnknownQuestionType)
}

func (t QuestionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, NewValidationError("type", t.String(), ErrUnknownQuestionType)
	}
	return []byte(questionTypeNames[t]), nil
}

func (t *QuestionType) UnmarshalText(b []byte) error {
	v, err := ParseQuestionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Visitor answers one question family per method. Adding a question type
// adds a method here, so every implementation stops compiling until it
// handles the new family.
type Visitor[R any] interface {
	YearStatus(Query) R
	CatalogStatus(Query) R
	ExistCatalog(Query) R
	IndexValue(Query) R
	AreaValue(Query) R
	IndexShare(Query) R
	IndexShareChange(Query) R
	IndexRatio(Query) R
	IndexTimeRatio(Query) R
	IndexDiff(Query) R
	IndexTimeDiff(Query) R
	IndexGrowth(Query) R
	AreaShare(Query) R
	AreaShareChange(Query) R
	AreaRatio(Query) R
	AreaTimeRatio(Query) R
	AreaDiff(Query) R
	AreaTimeDiff(Query) R
	AreaGrowth(Query) R
	IndexCompose(Query) R
	CatalogChange(Query) R
	IndexChange(Query) R
	IndexesChange(Query) R
	CatalogsChange(Query) R
	IndexTrend(Query) R
	AreaTrend(Query) R
	IndexShareTrend(Query) R
	AreaShareTrend(Query) R
	IndexExtreme(Query) R
	AreaExtreme(Query) R
	BeginStats(Query) R
}

// Dispatch validates q and hands it to the visitor method for its type.
func Dispatch[R any](q Query, v Visitor[R]) (R, error) {
	var zero R
	if err := ValidateQuery(q); err != nil {
		return zero, err
	}
	switch q.Type {
	case YearStatus:
		return v.YearStatus(q), nil
	case CatalogStatus:
		return v.CatalogStatus(q), nil
	case ExistCatalog:
		return v.ExistCatalog(q), nil
	case IndexValue:
		return v.IndexValue(q), nil
	case AreaValue:
		return v.AreaValue(q), nil
	case IndexShare:
		return v.IndexShare(q), nil
	case IndexShareChange:
		return v.IndexShareChange(q), nil
	case IndexRatio:
		return v.IndexRatio(q), nil
	case IndexTimeRatio:
		return v.IndexTimeRatio(q), nil
	case IndexDiff:
		return v.IndexDiff(q), nil
	case IndexTimeDiff:
		return v.IndexTimeDiff(q), nil
	case IndexGrowth:
		return v.IndexGrowth(q), nil
	case AreaShare:
		return v.AreaShare(q), nil
	case AreaShareChange:
		return v.AreaShareChange(q), nil
	case AreaRatio:
		return v.AreaRatio(q), nil
	case AreaTimeRatio:
		return v.AreaTimeRatio(q), nil
	case AreaDiff:
		return v.AreaDiff(q), nil
	case AreaTimeDiff:
		return v.AreaTimeDiff(q), nil
	case AreaGrowth:
		return v.AreaGrowth(q), nil
	case IndexCompose:
		return v.IndexCompose(q), nil
	case CatalogChange:
		return v.CatalogChange(q), nil
	case IndexChange:
		return v.IndexChange(q), nil
	case IndexesChange:
		return v.IndexesChange(q), nil
	case CatalogsChange:
		return v.CatalogsChange(q), nil
	case IndexTrend:
		return v.IndexTrend(q), nil
	case AreaTrend:
		return v.AreaTrend(q), nil
	case IndexShareTrend:
		return v.IndexShareTrend(q), nil
	case AreaShareTrend:
		return v.AreaShareTrend(q), nil
	case IndexExtreme:
		return v.IndexExtreme(q), nil
	case AreaExtreme:
		return v.AreaExtreme(q), nil
	case BeginStats:
		return v.BeginStats(q), nil
	}
	return zero, NewValidationError("type", q.Type.String(), ErrUnknownQuestionType)
}
